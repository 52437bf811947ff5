package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListInvoices returns the tenant's invoices, newest first, with optional
// status and customer filters
func ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customer := c.QueryParam("customer_id"); customer != "" {
		query = query.Where("customer_id = ?", customer)
	}
	if from := c.QueryParam("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.QueryParam("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var invoices []model.Invoice
	if err := query.Order("date DESC").Limit(200).Find(&invoices).Error; err != nil {
		log.Error("Failed to list invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve invoices"})
	}

	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice returns one invoice in the caller's tenant
func GetInvoice(c echo.Context) error {
	var invoice model.Invoice
	err := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		logger.FromContext(c).Error("Failed to load invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load invoice"})
	}
	return c.JSON(http.StatusOK, invoice)
}

// CreateInvoice records a sales invoice and decrements stock for each line.
// Stock updates run per line and a failed line is logged without rolling
// back the invoice, matching the point-of-sale flow where the sale already
// happened.
func CreateInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var invoice model.Invoice
	if err := c.Bind(&invoice); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(invoice.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invoice needs at least one item"})
	}

	invoice.ID = ""
	invoice.TenantID = tid
	if invoice.Date.IsZero() {
		invoice.Date = time.Now().UTC()
	}
	if invoice.Status == "" {
		invoice.Status = model.InvoiceStatusUnpaid
	}
	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = nextDocumentNumber(db, tid, &model.Invoice{}, "INV")
	}
	if invoice.Total == 0 {
		for _, item := range invoice.Items {
			invoice.Subtotal += item.Total
		}
		invoice.Total = invoice.Subtotal + invoice.Tax - invoice.Discount
	}

	if err := db.Create(&invoice).Error; err != nil {
		log.Error("Failed to create invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invoice creation failed"})
	}

	for _, item := range invoice.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		err := db.Model(&model.Product{}).
			Where("id = ? AND tenant_id = ?", item.ProductID, tid).
			Updates(map[string]interface{}{
				"stock":      gorm.Expr("CASE WHEN stock - ? < 0 THEN 0 ELSE stock - ? END", item.Quantity, item.Quantity),
				"updated_at": time.Now().UTC(),
			}).Error
		if err != nil {
			log.Error("Failed to decrement stock for invoice line",
				zap.String("invoice_id", invoice.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	log.Info("Invoice created",
		zap.String("invoice_id", invoice.ID),
		zap.String("number", invoice.InvoiceNumber),
		zap.Float64("total", invoice.Total))
	return c.JSON(http.StatusCreated, invoice)
}

// UpdateInvoiceStatus moves an invoice between paid/unpaid/partial
func UpdateInvoiceStatus(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	switch req.Status {
	case model.InvoiceStatusPaid, model.InvoiceStatusUnpaid, model.InvoiceStatusPartial:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	result := db.Model(&model.Invoice{}).
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		Updates(map[string]interface{}{"status": req.Status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		log.Error("Failed to update invoice status", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "status updated", "status": req.Status})
}

// DeleteInvoice removes an invoice. Stock is not restored; corrections go
// through an explicit stock adjustment.
func DeleteInvoice(c echo.Context) error {
	log := logger.FromContext(c)

	result := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		Delete(&model.Invoice{})
	if result.Error != nil {
		log.Error("Failed to delete invoice", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	log.Info("Invoice deleted", zap.String("invoice_id", c.Param("id")))
	return c.JSON(http.StatusOK, echo.Map{"message": "invoice deleted"})
}

// nextDocumentNumber builds a sequential display number like INV-000042
// from the tenant's current document count
func nextDocumentNumber(db *gorm.DB, tenantID string, m interface{}, prefix string) string {
	var count int64
	db.Model(m).Where("tenant_id = ?", tenantID).Count(&count)
	return fmt.Sprintf("%s-%06d", prefix, count+1)
}
