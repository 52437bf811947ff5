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

// ListCustomers returns the tenant's customers with an optional search filter
func ListCustomers(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR name_en LIKE ? OR phone LIKE ?", like, like, like)
	}

	var customers []model.Customer
	if err := query.Order("name").Find(&customers).Error; err != nil {
		log.Error("Failed to list customers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve customers"})
	}

	return c.JSON(http.StatusOK, customers)
}

// GetCustomer returns one customer with their invoice history
func GetCustomer(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var customer model.Customer
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tid).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		log.Error("Failed to load customer", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load customer"})
	}

	var invoices []model.Invoice
	db.Where("tenant_id = ? AND customer_id = ?", tid, customer.ID).
		Order("date DESC").Limit(50).Find(&invoices)

	return c.JSON(http.StatusOK, echo.Map{
		"customer": customer,
		"invoices": invoices,
	})
}

// CreateCustomer adds a customer to the caller's tenant
func CreateCustomer(c echo.Context) error {
	log := logger.FromContext(c)

	var customer model.Customer
	if err := c.Bind(&customer); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if customer.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	customer.ID = ""
	customer.TenantID = tenantID(c)
	if customer.Type == "" {
		customer.Type = "individual"
	}
	if err := database.GetDB().Create(&customer).Error; err != nil {
		log.Error("Failed to create customer", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "customer creation failed"})
	}

	log.Info("Customer created", zap.String("customer_id", customer.ID))
	return c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer applies a partial update to a customer
func UpdateCustomer(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var customer model.Customer
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load customer"})
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	for _, k := range []string{"id", "tenant_id", "created_at", "updated_at"} {
		delete(updates, k)
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, customer)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := db.Model(&customer).Updates(updates).Error; err != nil {
		log.Error("Failed to update customer", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	db.Where("id = ?", customer.ID).First(&customer)
	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer removes a customer from the caller's tenant
func DeleteCustomer(c echo.Context) error {
	log := logger.FromContext(c)

	result := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		Delete(&model.Customer{})
	if result.Error != nil {
		log.Error("Failed to delete customer", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	log.Info("Customer deleted", zap.String("customer_id", c.Param("id")))
	return c.JSON(http.StatusOK, echo.Map{"message": "customer deleted"})
}
