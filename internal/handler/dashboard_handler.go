package handler

import (
	"net/http"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dashboard returns the tenant's headline numbers: sales today and this
// month, expenses, low-stock count, and unpaid invoice totals
func Dashboard(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var salesToday, salesMonth, expensesMonth, unpaidTotal float64
	var invoicesToday, lowStockCount, customerCount, productCount int64

	db.Model(&model.Invoice{}).Where("tenant_id = ? AND date >= ?", tid, dayStart).
		Select("COALESCE(SUM(total), 0)").Scan(&salesToday)
	db.Model(&model.Invoice{}).Where("tenant_id = ? AND date >= ?", tid, monthStart).
		Select("COALESCE(SUM(total), 0)").Scan(&salesMonth)
	db.Model(&model.Invoice{}).Where("tenant_id = ? AND date >= ?", tid, dayStart).
		Count(&invoicesToday)
	db.Model(&model.Invoice{}).Where("tenant_id = ? AND status != ?", tid, model.InvoiceStatusPaid).
		Select("COALESCE(SUM(total), 0)").Scan(&unpaidTotal)
	db.Model(&model.Expense{}).Where("tenant_id = ? AND date >= ?", tid, monthStart).
		Select("COALESCE(SUM(amount), 0)").Scan(&expensesMonth)
	db.Model(&model.Product{}).Where("tenant_id = ? AND stock <= reorder_level", tid).
		Count(&lowStockCount)
	db.Model(&model.Customer{}).Where("tenant_id = ?", tid).Count(&customerCount)
	db.Model(&model.Product{}).Where("tenant_id = ?", tid).Count(&productCount)

	log.Info("Dashboard requested", zap.String("tenant_id", tid))
	return c.JSON(http.StatusOK, echo.Map{
		"sales_today":    salesToday,
		"sales_month":    salesMonth,
		"invoices_today": invoicesToday,
		"unpaid_total":   unpaidTotal,
		"expenses_month": expensesMonth,
		"low_stock":      lowStockCount,
		"customers":      customerCount,
		"products":       productCount,
		"server_time":    now,
	})
}
