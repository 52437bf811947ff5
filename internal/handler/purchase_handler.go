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

// ListPurchases returns the tenant's purchase orders, newest first
func ListPurchases(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if supplier := c.QueryParam("supplier_id"); supplier != "" {
		query = query.Where("supplier_id = ?", supplier)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var purchases []model.Purchase
	if err := query.Order("date DESC").Limit(200).Find(&purchases).Error; err != nil {
		log.Error("Failed to list purchases", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve purchases"})
	}

	return c.JSON(http.StatusOK, purchases)
}

// GetPurchase returns one purchase order in the caller's tenant
func GetPurchase(c echo.Context) error {
	var purchase model.Purchase
	err := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "purchase not found"})
		}
		logger.FromContext(c).Error("Failed to load purchase", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load purchase"})
	}
	return c.JSON(http.StatusOK, purchase)
}

// CreatePurchase records a received purchase order and restocks each line.
// Lines carrying a product id increment that product's stock; lines with
// only a SKU match on SKU; unmatched lines create the product. Each line is
// applied on its own and a failure is reported per line rather than rolling
// back the whole purchase.
func CreatePurchase(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var purchase model.Purchase
	if err := c.Bind(&purchase); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(purchase.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "purchase needs at least one item"})
	}

	purchase.ID = ""
	purchase.TenantID = tid
	if purchase.Date.IsZero() {
		purchase.Date = time.Now().UTC()
	}
	if purchase.Status == "" {
		purchase.Status = "received"
	}
	if purchase.PurchaseNumber == "" {
		purchase.PurchaseNumber = nextDocumentNumber(db, tid, &model.Purchase{}, "PUR")
	}
	if purchase.Total == 0 {
		for _, item := range purchase.Items {
			purchase.Subtotal += item.Total
		}
		purchase.Total = purchase.Subtotal + purchase.Tax
	}

	if err := db.Create(&purchase).Error; err != nil {
		log.Error("Failed to create purchase", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase creation failed"})
	}

	stockErrors := []echo.Map{}
	for i, item := range purchase.Items {
		if item.Quantity <= 0 {
			continue
		}
		if err := restockPurchaseLine(db, tid, item); err != nil {
			log.Error("Failed to restock purchase line",
				zap.String("purchase_id", purchase.ID),
				zap.Int("line", i),
				zap.Error(err))
			stockErrors = append(stockErrors, echo.Map{
				"line":  i,
				"sku":   item.SKU,
				"error": "stock update failed",
			})
		}
	}

	log.Info("Purchase created",
		zap.String("purchase_id", purchase.ID),
		zap.String("number", purchase.PurchaseNumber),
		zap.Int("items", len(purchase.Items)))

	response := echo.Map{"purchase": purchase}
	if len(stockErrors) > 0 {
		response["stock_errors"] = stockErrors
	}
	return c.JSON(http.StatusCreated, response)
}

func restockPurchaseLine(db *gorm.DB, tenantID string, item model.PurchaseItem) error {
	now := time.Now().UTC()

	if item.ProductID != "" {
		result := db.Model(&model.Product{}).
			Where("id = ? AND tenant_id = ?", item.ProductID, tenantID).
			Updates(map[string]interface{}{
				"stock":      gorm.Expr("stock + ?", item.Quantity),
				"cost_price": item.UnitCost,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
	}

	if item.SKU != "" {
		result := db.Model(&model.Product{}).
			Where("sku = ? AND tenant_id = ?", item.SKU, tenantID).
			Updates(map[string]interface{}{
				"stock":      gorm.Expr("stock + ?", item.Quantity),
				"cost_price": item.UnitCost,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
	}

	// New product seen for the first time on a purchase
	product := model.Product{
		TenantID:  tenantID,
		Name:      item.Name,
		NameEn:    item.NameEn,
		SKU:       item.SKU,
		Stock:     item.Quantity,
		CostPrice: item.UnitCost,
		IsActive:  true,
	}
	return db.Create(&product).Error
}

// DeletePurchase removes a purchase order. Stock is not reversed; use an
// explicit stock adjustment to correct inventory.
func DeletePurchase(c echo.Context) error {
	log := logger.FromContext(c)

	result := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		Delete(&model.Purchase{})
	if result.Error != nil {
		log.Error("Failed to delete purchase", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "purchase not found"})
	}

	log.Info("Purchase deleted", zap.String("purchase_id", c.Param("id")))
	return c.JSON(http.StatusOK, echo.Map{"message": "purchase deleted"})
}
