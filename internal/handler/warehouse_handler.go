package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListWarehouses returns the tenant's warehouses
func ListWarehouses(c echo.Context) error {
	log := logger.FromContext(c)

	var warehouses []model.Warehouse
	err := database.GetDB().
		Where("tenant_id = ?", tenantID(c)).
		Order("name").Find(&warehouses).Error
	if err != nil {
		log.Error("Failed to list warehouses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve warehouses"})
	}

	return c.JSON(http.StatusOK, warehouses)
}

// GetWarehouse returns one warehouse with its stock summary
func GetWarehouse(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var warehouse model.Warehouse
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tid).First(&warehouse).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "warehouse not found"})
		}
		log.Error("Failed to load warehouse", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load warehouse"})
	}

	var productCount int64
	var totalStock int64
	db.Model(&model.Product{}).Where("tenant_id = ? AND warehouse_id = ?", tid, warehouse.ID).Count(&productCount)
	db.Model(&model.Product{}).Where("tenant_id = ? AND warehouse_id = ?", tid, warehouse.ID).
		Select("COALESCE(SUM(stock), 0)").Scan(&totalStock)

	return c.JSON(http.StatusOK, echo.Map{
		"warehouse":     warehouse,
		"product_count": productCount,
		"total_stock":   totalStock,
	})
}

// CreateWarehouse adds a warehouse, subject to the subscription limit
func CreateWarehouse(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var warehouse model.Warehouse
	if err := c.Bind(&warehouse); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if warehouse.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	if t, err := resolveTenant(db, tid); err == nil && t.Subscription.MaxWarehouses > 0 {
		var count int64
		db.Model(&model.Warehouse{}).Where("tenant_id = ?", tid).Count(&count)
		if count >= int64(t.Subscription.MaxWarehouses) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "warehouse limit reached for this subscription"})
		}
	}

	warehouse.ID = ""
	warehouse.TenantID = tid
	warehouse.IsActive = true
	if err := db.Create(&warehouse).Error; err != nil {
		log.Error("Failed to create warehouse", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "warehouse creation failed"})
	}

	log.Info("Warehouse created", zap.String("warehouse_id", warehouse.ID))
	return c.JSON(http.StatusCreated, warehouse)
}

// UpdateWarehouse applies a partial update to a warehouse
func UpdateWarehouse(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var warehouse model.Warehouse
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).First(&warehouse).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "warehouse not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load warehouse"})
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	for _, k := range []string{"id", "tenant_id", "created_at", "updated_at"} {
		delete(updates, k)
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, warehouse)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := db.Model(&warehouse).Updates(updates).Error; err != nil {
		log.Error("Failed to update warehouse", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	db.Where("id = ?", warehouse.ID).First(&warehouse)
	return c.JSON(http.StatusOK, warehouse)
}

// DeleteWarehouse removes a warehouse that holds no products
func DeleteWarehouse(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)
	id := c.Param("id")

	var productCount int64
	db.Model(&model.Product{}).Where("tenant_id = ? AND warehouse_id = ?", tid, id).Count(&productCount)
	if productCount > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "warehouse still holds products"})
	}

	result := db.Where("id = ? AND tenant_id = ?", id, tid).Delete(&model.Warehouse{})
	if result.Error != nil {
		log.Error("Failed to delete warehouse", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "warehouse not found"})
	}

	log.Info("Warehouse deleted", zap.String("warehouse_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "warehouse deleted"})
}
