package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListProducts returns the tenant's products with optional search, category
// and low-stock filters
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR name_en LIKE ? OR sku LIKE ? OR barcode LIKE ?",
			like, like, like, like)
	}
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ? OR category_en = ?", category, category)
	}
	if c.QueryParam("low_stock") == "true" {
		query = query.Where("stock <= reorder_level")
	}
	if warehouse := c.QueryParam("warehouse_id"); warehouse != "" {
		query = query.Where("warehouse_id = ?", warehouse)
	}

	var products []model.Product
	if err := query.Order("name").Find(&products).Error; err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProduct returns one product in the caller's tenant
func GetProduct(c echo.Context) error {
	var product model.Product
	err := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		logger.FromContext(c).Error("Failed to load product", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product to the caller's tenant
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	var product model.Product
	if err := c.Bind(&product); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if product.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	db := database.GetDB()
	tid := tenantID(c)

	if product.SKU != "" {
		var count int64
		db.Model(&model.Product{}).Where("tenant_id = ? AND sku = ?", tid, product.SKU).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "SKU already exists"})
		}
	}

	if t, err := resolveTenant(db, tid); err == nil && t.Subscription.MaxProducts > 0 {
		var count int64
		db.Model(&model.Product{}).Where("tenant_id = ?", tid).Count(&count)
		if count >= int64(t.Subscription.MaxProducts) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "product limit reached for this subscription"})
		}
	}

	product.ID = ""
	product.TenantID = tid
	product.IsActive = true
	if product.ReorderLevel == 0 {
		product.ReorderLevel = 10
	}
	if err := db.Create(&product).Error; err != nil {
		log.Error("Failed to create product", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "product creation failed"})
	}

	log.Info("Product created", zap.String("product_id", product.ID), zap.String("sku", product.SKU))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct applies a partial update to a product
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var product model.Product
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tid).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Identity and scope columns are not client-writable
	for _, k := range []string{"id", "tenant_id", "created_at", "updated_at"} {
		delete(updates, k)
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, product)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := db.Model(&product).Updates(updates).Error; err != nil {
		log.Error("Failed to update product", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	db.Where("id = ?", product.ID).First(&product)
	return c.JSON(http.StatusOK, product)
}

// AdjustStock moves a product's stock by a signed delta, floored at zero
func AdjustStock(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	delta, err := strconv.Atoi(c.QueryParam("delta"))
	if err != nil || delta == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be a non-zero integer"})
	}

	var product model.Product
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tid).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}

	newStock := product.Stock + delta
	if newStock < 0 {
		newStock = 0
	}
	err = db.Model(&product).Updates(map[string]interface{}{
		"stock":      newStock,
		"updated_at": time.Now().UTC(),
	}).Error
	if err != nil {
		log.Error("Failed to adjust stock", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock adjustment failed"})
	}

	log.Info("Stock adjusted",
		zap.String("product_id", product.ID),
		zap.Int("delta", delta),
		zap.Int("stock", newStock))
	product.Stock = newStock
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product from the caller's tenant
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)

	result := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		Delete(&model.Product{})
	if result.Error != nil {
		log.Error("Failed to delete product", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	log.Info("Product deleted", zap.String("product_id", c.Param("id")))
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}
