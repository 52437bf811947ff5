package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/middleware"
	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/internal/rbac"
	"github.com/adelangokeh992-cell/erp-pro/internal/tenant"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/jwtutil"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"
	"github.com/adelangokeh992-cell/erp-pro/pkg/password"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// One generic message for unknown user, wrong password and inactive account
// alike, so responses cannot be used to enumerate usernames.
const invalidCredentialsMsg = "invalid credentials"

func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		TenantCode string `json:"tenantCode,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("query")(time.Now())

	// Resolve the tenant first when a code is supplied, so the username
	// lookup stays inside that tenant's scope
	dir := tenant.NewDirectory(db)
	var loginTenant *model.Tenant
	if req.TenantCode != "" {
		t, err := dir.ResolveByCode(req.TenantCode)
		if err != nil {
			log.Error("Login with unknown tenant code", zap.String("code", req.TenantCode))
			prometheus.RecordAuthError("login_failure")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentialsMsg})
		}
		loginTenant = t
	}

	query := db.Where("username = ?", req.Username)
	if loginTenant != nil {
		query = query.Where("tenant_id = ? OR role = ?", loginTenant.ID, rbac.RoleSuperAdmin)
	}
	var user model.User
	if err := query.First(&user).Error; err != nil {
		log.Error("Login failed: user lookup", zap.String("username", req.Username))
		prometheus.RecordAuthError("login_failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentialsMsg})
	}

	// Verify password against the ordered scheme chain
	if !password.Verify(req.Password, user.PasswordHash) {
		log.Error("Login failed: password mismatch", zap.String("username", req.Username))
		prometheus.RecordAuthError("login_failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentialsMsg})
	}

	// Migrate legacy hashes to the primary scheme on successful login
	if password.NeedsRehash(user.PasswordHash) {
		if rehashed, err := password.Hash(req.Password); err == nil {
			if err := db.Model(&user).Update("password_hash", rehashed).Error; err != nil {
				log.Warn("Failed to migrate legacy password hash", zap.Error(err))
			}
		}
	}

	if user.Status != model.UserStatusActive {
		log.Error("Login failed: account not active", zap.String("username", req.Username))
		prometheus.RecordAuthError("login_failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentialsMsg})
	}

	// Resolve and gate the tenant for non-super-admin users
	role := rbac.Normalize(user.Role)
	if role != rbac.RoleSuperAdmin {
		if loginTenant == nil && user.TenantID != nil {
			t, err := dir.ResolveByID(*user.TenantID)
			if err != nil {
				log.Error("Login failed: tenant missing", zap.Stringp("tenant_id", user.TenantID))
				prometheus.RecordAuthError("tenant_missing")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentialsMsg})
			}
			loginTenant = t
		}
		if loginTenant != nil {
			status, err := dir.CurrentStatus(loginTenant, time.Now().UTC())
			if err != nil {
				log.Error("Failed to evaluate tenant status", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
			}
			if status != model.TenantStatusActive && status != model.TenantStatusTrial {
				prometheus.RecordAuthError("subscription_inactive")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "subscription expired or tenant suspended"})
			}
		}
	}

	var tenantID *string
	if role != rbac.RoleSuperAdmin && loginTenant != nil {
		tenantID = &loginTenant.ID
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Username, role, tenantID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("username", user.Username),
		zap.String("role", role),
		zap.Stringp("tenant_id", tenantID))

	response := echo.Map{
		"access_token": token,
		"token_type":   "bearer",
		"user": echo.Map{
			"id":           user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"full_name":    user.FullName,
			"full_name_en": user.FullNameEn,
			"role":         role,
			"permissions":  effectivePermissions(&user),
		},
	}
	if loginTenant != nil && role != rbac.RoleSuperAdmin {
		response["tenant"] = echo.Map{
			"id":           loginTenant.ID,
			"code":         loginTenant.Code,
			"name":         loginTenant.Name,
			"name_en":      loginTenant.NameEn,
			"settings":     loginTenant.Settings,
			"subscription": loginTenant.Subscription,
		}
	}

	return c.JSON(http.StatusOK, response)
}

// Me returns the authenticated user's profile
func Me(c echo.Context) error {
	log := logger.FromContext(c)
	userID, _ := c.Get(middleware.ContextUserID).(string)

	var user model.User
	if err := database.GetDB().Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to load user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}

	return c.JSON(http.StatusOK, user)
}

// ChangePassword updates the authenticated user's password
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new password is required"})
	}

	userID, _ := c.Get(middleware.ContextUserID).(string)
	db := database.GetDB()

	var user model.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if !password.Verify(req.OldPassword, user.PasswordHash) {
		prometheus.RecordAuthError("password_change_failed")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password is incorrect"})
	}

	hashed, err := password.Hash(req.NewPassword)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	if err := db.Model(&user).Update("password_hash", hashed).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	log.Info("Password changed", zap.String("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed successfully"})
}

// Logout exists for client symmetry only: tokens are not revocable server
// side, logout is the client discarding its token.
func Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func effectivePermissions(user *model.User) map[string]bool {
	if len(user.Permissions) > 0 {
		return user.Permissions
	}
	return rbac.PermissionsForRole(user.Role)
}
