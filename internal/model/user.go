package model

// User status values
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// User represents an account within a tenant. TenantID is nil only for
// super_admin users, which operate across all tenants.
type User struct {
	Base
	TenantID     *string         `json:"tenant_id,omitempty" gorm:"index;type:uuid"`
	Username     string          `json:"username" gorm:"type:varchar(100);index"`
	PasswordHash string          `json:"-" gorm:"type:varchar(255)"`
	FullName     string          `json:"full_name" gorm:"type:varchar(100)"`
	FullNameEn   string          `json:"full_name_en" gorm:"type:varchar(100)"`
	Email        string          `json:"email" gorm:"type:varchar(100);index"`
	Role         string          `json:"role" gorm:"type:varchar(30);default:'worker'"`
	Permissions  map[string]bool `json:"permissions" gorm:"type:jsonb;serializer:json"`
	Status       string          `json:"status" gorm:"type:varchar(20);default:'active'"`
}
