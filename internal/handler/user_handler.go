package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/middleware"
	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/internal/rbac"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"
	"github.com/adelangokeh992-cell/erp-pro/pkg/password"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListUsers returns the tenant's users
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	var users []model.User
	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if role := c.QueryParam("role"); role != "" {
		query = query.Where("role = ?", rbac.Normalize(role))
	}
	if err := query.Order("created_at").Find(&users).Error; err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	return c.JSON(http.StatusOK, users)
}

// CreateUser adds a user to the caller's tenant. When no explicit permission
// map is supplied, the role's preset is materialized onto the user.
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Username    string          `json:"username"`
		Password    string          `json:"password"`
		FullName    string          `json:"full_name"`
		FullNameEn  string          `json:"full_name_en"`
		Email       string          `json:"email"`
		Role        string          `json:"role"`
		Permissions map[string]bool `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	role := rbac.Normalize(req.Role)
	if role == "" {
		role = rbac.RoleWorker
	}
	if !rbac.IsKnown(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	// Tenant-level admins cannot mint cross-tenant accounts
	if role == rbac.RoleSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot create super_admin users"})
	}

	db := database.GetDB()
	tid := tenantID(c)

	var existing int64
	db.Model(&model.User{}).Where("tenant_id = ? AND username = ?", tid, req.Username).Count(&existing)
	if existing > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
	}

	t, err := resolveTenant(db, tid)
	if err == nil && t.Subscription.MaxUsers > 0 {
		var userCount int64
		db.Model(&model.User{}).Where("tenant_id = ?", tid).Count(&userCount)
		if userCount >= int64(t.Subscription.MaxUsers) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "user limit reached for this subscription"})
		}
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	permissions := req.Permissions
	if len(permissions) == 0 {
		permissions = rbac.PermissionsForRole(role)
	}

	user := model.User{
		TenantID:     &tid,
		Username:     req.Username,
		PasswordHash: hashed,
		FullName:     req.FullName,
		FullNameEn:   req.FullNameEn,
		Email:        req.Email,
		Role:         role,
		Permissions:  permissions,
		Status:       model.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Error("Failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	log.Info("User created",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser applies a partial update to a user in the caller's tenant. A
// role change refreshes the permission preset unless the request carries an
// explicit map.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var user model.User
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to load user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}

	var req struct {
		FullName    *string         `json:"full_name"`
		FullNameEn  *string         `json:"full_name_en"`
		Email       *string         `json:"email"`
		Role        *string         `json:"role"`
		Permissions map[string]bool `json:"permissions"`
		Status      *string         `json:"status"`
		Password    *string         `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.FullNameEn != nil {
		updates["full_name_en"] = *req.FullNameEn
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Role != nil {
		role := rbac.Normalize(*req.Role)
		if !rbac.IsKnown(role) || role == rbac.RoleSuperAdmin {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		updates["role"] = role
		if len(req.Permissions) == 0 {
			updates["permissions"] = rbac.PermissionsForRole(role)
		}
	}
	if len(req.Permissions) > 0 {
		updates["permissions"] = req.Permissions
	}
	if req.Status != nil {
		switch *req.Status {
		case model.UserStatusActive, model.UserStatusInactive, model.UserStatusSuspended:
			updates["status"] = *req.Status
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
		}
		hashed, err := password.Hash(*req.Password)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		updates["password_hash"] = hashed
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusOK, user)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		log.Error("Failed to update user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	db.Where("id = ?", user.ID).First(&user)
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user from the caller's tenant
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)
	id := c.Param("id")

	if callerID, _ := c.Get(middleware.ContextUserID).(string); callerID == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	result := db.Where("id = ? AND tenant_id = ?", id, tid).Delete(&model.User{})
	if result.Error != nil {
		log.Error("Failed to delete user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	log.Info("User deleted", zap.String("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

func resolveTenant(db *gorm.DB, id string) (*model.Tenant, error) {
	var t model.Tenant
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
