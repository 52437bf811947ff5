package handler

import (
	"errors"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/internal/rbac"
	"github.com/adelangokeh992-cell/erp-pro/internal/tenant"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"
	"github.com/adelangokeh992-cell/erp-pro/pkg/password"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const trialDays = 14

var tenantCodeCleaner = regexp.MustCompile(`[^a-zA-Z0-9]`)

// generateTenantCode builds a short human-shareable code from the company
// name plus a random numeric suffix
func generateTenantCode(name string) string {
	clean := tenantCodeCleaner.ReplaceAllString(name, "")
	prefix := strings.ToUpper(clean)
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	if prefix == "" {
		prefix = "COMP"
	}
	return prefix + strconv.Itoa(1000+rand.Intn(9000))
}

// ListTenants returns all tenants with optional status/plan/search filters
func ListTenants(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	query := db.Model(&model.Tenant{})
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR name_en LIKE ? OR email LIKE ? OR code LIKE ?",
			like, like, like, like)
	}

	var tenants []model.Tenant
	if err := query.Order("created_at DESC").Limit(100).Find(&tenants).Error; err != nil {
		log.Error("Failed to list tenants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tenants"})
	}

	result := make([]echo.Map, 0, len(tenants))
	for i := range tenants {
		t := &tenants[i]
		var userCount, productCount int64
		db.Model(&model.User{}).Where("tenant_id = ?", t.ID).Count(&userCount)
		db.Model(&model.Product{}).Where("tenant_id = ?", t.ID).Count(&productCount)
		result = append(result, echo.Map{
			"tenant":        t,
			"user_count":    userCount,
			"product_count": productCount,
		})
	}

	return c.JSON(http.StatusOK, result)
}

// TenantStats returns aggregate tenant counts by status and plan
func TenantStats(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	byStatus := echo.Map{}
	var total int64
	db.Model(&model.Tenant{}).Count(&total)
	for _, status := range []string{
		model.TenantStatusActive, model.TenantStatusTrial,
		model.TenantStatusExpired, model.TenantStatusSuspended,
	} {
		var count int64
		db.Model(&model.Tenant{}).Where("status = ?", status).Count(&count)
		byStatus[status] = count
	}

	if activeCount, ok := byStatus[model.TenantStatusActive].(int64); ok {
		prometheus.ActiveTenantsGauge.Set(float64(activeCount))
	}

	log.Info("Tenant stats requested", zap.Int64("total", total))
	return c.JSON(http.StatusOK, echo.Map{
		"total":    total,
		"byStatus": byStatus,
	})
}

// GetTenant returns one tenant with usage counts
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	id := c.Param("id")

	t, err := tenant.NewDirectory(db).ResolveByID(id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to load tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tenant"})
	}

	var userCount, productCount, invoiceCount int64
	db.Model(&model.User{}).Where("tenant_id = ?", t.ID).Count(&userCount)
	db.Model(&model.Product{}).Where("tenant_id = ?", t.ID).Count(&productCount)
	db.Model(&model.Invoice{}).Where("tenant_id = ?", t.ID).Count(&invoiceCount)

	return c.JSON(http.StatusOK, echo.Map{
		"tenant": t,
		"stats": echo.Map{
			"users":    userCount,
			"products": productCount,
			"invoices": invoiceCount,
		},
	})
}

// CreateTenant provisions a new tenant on a trial subscription together
// with its first tenant_admin user
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.TenantOperationCounter.WithLabelValues("create").Inc()

	var req struct {
		Name          string               `json:"name"`
		NameEn        string               `json:"name_en"`
		Email         string               `json:"email"`
		Phone         string               `json:"phone"`
		Address       string               `json:"address"`
		Country       string               `json:"country"`
		AdminUsername string               `json:"admin_username"`
		AdminPassword string               `json:"admin_password"`
		Settings      model.TenantSettings `json:"settings"`
		Subscription  model.Subscription   `json:"subscription"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.AdminUsername == "" || req.AdminPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, admin_username and admin_password are required"})
	}
	if len(req.AdminPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	db := database.GetDB()

	var existingEmail int64
	db.Model(&model.Tenant{}).Where("email = ?", req.Email).Count(&existingEmail)
	if req.Email != "" && existingEmail > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already in use"})
	}

	// Regenerate until the code is free; collisions are rare with a
	// 4-digit suffix but code uniqueness is an invariant
	code := generateTenantCode(firstNonEmpty(req.NameEn, req.Name))
	for {
		var count int64
		db.Model(&model.Tenant{}).Where("code = ?", code).Count(&count)
		if count == 0 {
			break
		}
		code = generateTenantCode(firstNonEmpty(req.NameEn, req.Name))
	}

	trialExpiry := time.Now().UTC().AddDate(0, 0, trialDays)
	subscription := req.Subscription
	if subscription.Plan == "" {
		subscription.Plan = "trial"
	}
	if subscription.ExpiryDate == nil {
		subscription.ExpiryDate = &trialExpiry
	}
	if subscription.MaxUsers == 0 {
		subscription.MaxUsers = 5
	}
	if subscription.MaxProducts == 0 {
		subscription.MaxProducts = 1000
	}
	if subscription.MaxWarehouses == 0 {
		subscription.MaxWarehouses = 1
	}

	settings := req.Settings
	if settings.Currency == "" {
		settings.Currency = "USD"
	}
	if settings.Language == "" {
		settings.Language = "ar"
	}

	newTenant := model.Tenant{
		Code:         code,
		Name:         req.Name,
		NameEn:       req.NameEn,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Country:      firstNonEmpty(req.Country, "SA"),
		Status:       model.TenantStatusTrial,
		Subscription: subscription,
		License: model.License{
			MaxDevices: cfg.License.DefaultMaxDevices,
			Devices:    []model.LicenseDevice{},
		},
		Settings: settings,
	}

	hashed, err := password.Hash(req.AdminPassword)
	if err != nil {
		log.Error("Failed to hash admin password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	// Tenant and its admin user are created together; roll back the tenant
	// if the user insert fails
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newTenant).Error; err != nil {
			return err
		}
		admin := model.User{
			TenantID:     &newTenant.ID,
			Username:     req.AdminUsername,
			PasswordHash: hashed,
			Email:        req.Email,
			Role:         rbac.RoleTenantAdmin,
			Permissions:  rbac.PermissionsForRole(rbac.RoleTenantAdmin),
			Status:       model.UserStatusActive,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		log.Error("Failed to create tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	log.Info("Tenant created",
		zap.String("tenant_id", newTenant.ID),
		zap.String("code", newTenant.Code))
	return c.JSON(http.StatusCreated, newTenant)
}

// GetTenantSettings returns the caller's own tenant settings and the
// subscription limits alongside current usage, for client-side limit checks
func GetTenantSettings(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	t, err := tenant.NewDirectory(db).ResolveByID(tid)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to load tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tenant"})
	}

	var userCount, productCount, warehouseCount int64
	db.Model(&model.User{}).Where("tenant_id = ?", t.ID).Count(&userCount)
	db.Model(&model.Product{}).Where("tenant_id = ?", t.ID).Count(&productCount)
	db.Model(&model.Warehouse{}).Where("tenant_id = ?", t.ID).Count(&warehouseCount)

	return c.JSON(http.StatusOK, echo.Map{
		"code":         t.Code,
		"name":         t.Name,
		"name_en":      t.NameEn,
		"status":       tenant.EffectiveStatus(t, time.Now().UTC()),
		"settings":     t.Settings,
		"subscription": t.Subscription,
		"usage": echo.Map{
			"users":      userCount,
			"products":   productCount,
			"warehouses": warehouseCount,
		},
	})
}

// UpdateTenant applies a partial update to tenant profile fields
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.TenantOperationCounter.WithLabelValues("update").Inc()
	db := database.GetDB()
	id := c.Param("id")

	t, err := tenant.NewDirectory(db).ResolveByID(id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tenant"})
	}

	var req struct {
		Name     *string               `json:"name"`
		NameEn   *string               `json:"name_en"`
		Email    *string               `json:"email"`
		Phone    *string               `json:"phone"`
		Address  *string               `json:"address"`
		Status   *string               `json:"status"`
		Settings *model.TenantSettings `json:"settings"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.NameEn != nil {
		updates["name_en"] = *req.NameEn
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Status != nil {
		// suspended is an administrative action; expired is derived from
		// the subscription and not settable directly
		switch *req.Status {
		case model.TenantStatusActive, model.TenantStatusTrial, model.TenantStatusSuspended:
			updates["status"] = *req.Status
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}
	if req.Settings != nil {
		updates["settings"] = *req.Settings
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusOK, t)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := db.Model(&model.Tenant{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
		log.Error("Failed to update tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	updated, _ := tenant.NewDirectory(db).ResolveByID(t.ID)
	return c.JSON(http.StatusOK, updated)
}

// ExtendSubscription adds days to the tenant's subscription, counting from
// now when the subscription has already lapsed
func ExtendSubscription(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.TenantOperationCounter.WithLabelValues("extend").Inc()

	days, err := strconv.Atoi(c.QueryParam("days"))
	if err != nil || days < 1 || days > 365 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be between 1 and 365"})
	}

	newExpiry, err := tenant.NewDirectory(database.GetDB()).ExtendSubscription(c.Param("id"), days)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to extend subscription", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "extension failed"})
	}

	log.Info("Subscription extended",
		zap.String("tenant_id", c.Param("id")),
		zap.Int("days", days),
		zap.Time("new_expiry", newExpiry))
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "subscription extended",
		"newExpiryDate": newExpiry,
	})
}

// DeleteTenant removes a tenant and cascades to all tenant-scoped data
func DeleteTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.TenantOperationCounter.WithLabelValues("delete").Inc()
	db := database.GetDB()
	id := c.Param("id")

	t, err := tenant.NewDirectory(db).ResolveByID(id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tenant"})
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&model.User{}, &model.Product{}, &model.Customer{}, &model.Supplier{},
			&model.Invoice{}, &model.Purchase{}, &model.Warehouse{},
			&model.Account{}, &model.JournalEntry{}, &model.Expense{},
		} {
			if err := tx.Where("tenant_id = ?", t.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Tenant{}, "id = ?", t.ID).Error
	})
	if err != nil {
		log.Error("Failed to delete tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}

	log.Info("Tenant deleted", zap.String("tenant_id", t.ID), zap.String("code", t.Code))
	return c.JSON(http.StatusOK, echo.Map{"message": "tenant deleted"})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
