package model

// Warehouse represents a stock location scoped to a tenant
type Warehouse struct {
	Base
	TenantID    string `json:"tenant_id" gorm:"index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(200)"`
	NameEn      string `json:"name_en" gorm:"type:varchar(200)"`
	Code        string `json:"code" gorm:"type:varchar(50);index"`
	Address     string `json:"address" gorm:"type:text"`
	Phone       string `json:"phone" gorm:"type:varchar(30)"`
	ManagerID   string `json:"manager_id" gorm:"type:uuid"`
	ManagerName string `json:"manager_name" gorm:"type:varchar(200)"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`
}
