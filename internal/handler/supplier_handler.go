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

// ListSuppliers returns the tenant's suppliers with an optional search filter
func ListSuppliers(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR name_en LIKE ? OR phone LIKE ?", like, like, like)
	}

	var suppliers []model.Supplier
	if err := query.Order("name").Find(&suppliers).Error; err != nil {
		log.Error("Failed to list suppliers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve suppliers"})
	}

	return c.JSON(http.StatusOK, suppliers)
}

// GetSupplier returns one supplier with their purchase history
func GetSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var supplier model.Supplier
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tid).First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "supplier not found"})
		}
		log.Error("Failed to load supplier", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load supplier"})
	}

	var purchases []model.Purchase
	db.Where("tenant_id = ? AND supplier_id = ?", tid, supplier.ID).
		Order("date DESC").Limit(50).Find(&purchases)

	return c.JSON(http.StatusOK, echo.Map{
		"supplier":  supplier,
		"purchases": purchases,
	})
}

// CreateSupplier adds a supplier to the caller's tenant
func CreateSupplier(c echo.Context) error {
	log := logger.FromContext(c)

	var supplier model.Supplier
	if err := c.Bind(&supplier); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if supplier.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	supplier.ID = ""
	supplier.TenantID = tenantID(c)
	if err := database.GetDB().Create(&supplier).Error; err != nil {
		log.Error("Failed to create supplier", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "supplier creation failed"})
	}

	log.Info("Supplier created", zap.String("supplier_id", supplier.ID))
	return c.JSON(http.StatusCreated, supplier)
}

// UpdateSupplier applies a partial update to a supplier
func UpdateSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var supplier model.Supplier
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "supplier not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load supplier"})
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	for _, k := range []string{"id", "tenant_id", "created_at", "updated_at"} {
		delete(updates, k)
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, supplier)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := db.Model(&supplier).Updates(updates).Error; err != nil {
		log.Error("Failed to update supplier", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	db.Where("id = ?", supplier.ID).First(&supplier)
	return c.JSON(http.StatusOK, supplier)
}

// DeleteSupplier removes a supplier from the caller's tenant
func DeleteSupplier(c echo.Context) error {
	log := logger.FromContext(c)

	result := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		Delete(&model.Supplier{})
	if result.Error != nil {
		log.Error("Failed to delete supplier", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "supplier not found"})
	}

	log.Info("Supplier deleted", zap.String("supplier_id", c.Param("id")))
	return c.JSON(http.StatusOK, echo.Map{"message": "supplier deleted"})
}
