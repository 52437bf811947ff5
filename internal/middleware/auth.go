package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/internal/rbac"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/jwtutil"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
	ContextTenantID = "tenant_id"
)

// AuthMiddleware validates the JWT token from the Authorization header
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store user info in context for later use
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		if claims.TenantID != nil {
			c.Set(ContextTenantID, *claims.TenantID)
		}

		return next(c)
	}
}

// TenantScope derives the caller's tenant filter from the verified claims:
// nil for super_admin (sees all tenants' data), the token's tenant id for
// everyone else. Every read and write in the data layer must apply it.
func TenantScope(c echo.Context) *string {
	role, _ := c.Get(ContextRole).(string)
	if rbac.Normalize(role) == rbac.RoleSuperAdmin {
		return nil
	}
	if tenantID, ok := c.Get(ContextTenantID).(string); ok && tenantID != "" {
		return &tenantID
	}
	return nil
}

// RequireTenant rejects non-super-admin callers whose token carries no
// tenant scope
func RequireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get(ContextRole).(string)
		if rbac.Normalize(role) == rbac.RoleSuperAdmin {
			return next(c)
		}
		if tenantID, ok := c.Get(ContextTenantID).(string); !ok || tenantID == "" {
			logger.FromContext(c).Error("Request without tenant context")
			prometheus.RecordAuthError("missing_tenant")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant access required"})
		}
		return next(c)
	}
}

// RequireSuperAdmin restricts a route to super_admin callers
func RequireSuperAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get(ContextRole).(string)
		if rbac.Normalize(role) != rbac.RoleSuperAdmin {
			prometheus.RecordAuthError("super_admin_required")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
		}
		return next(c)
	}
}

// RequirePermission gates a route on one permission key. The user's explicit
// permission map, when present, replaces the role preset entirely.
func RequirePermission(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)
			role, _ := c.Get(ContextRole).(string)
			userID, _ := c.Get(ContextUserID).(string)

			if rbac.Normalize(role) == rbac.RoleSuperAdmin {
				return next(c)
			}

			var user model.User
			err := database.GetDB().Where("id = ?", userID).First(&user).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					prometheus.RecordAuthError("user_not_found")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
				}
				log.Error("Failed to load user for permission check", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "permission check failed"})
			}

			if !rbac.HasPermission(user.Role, user.Permissions, key) {
				log.Warn("Permission denied",
					zap.String("user_id", userID),
					zap.String("role", user.Role),
					zap.String("permission", key))
				prometheus.RecordAuthError("permission_denied")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
			}

			return next(c)
		}
	}
}
