package model

// Customer represents a buyer account scoped to a tenant
type Customer struct {
	Base
	TenantID string  `json:"tenant_id" gorm:"index;type:uuid"`
	Name     string  `json:"name" gorm:"type:varchar(200)"`
	NameEn   string  `json:"name_en" gorm:"type:varchar(200)"`
	Phone    string  `json:"phone" gorm:"type:varchar(30)"`
	Email    string  `json:"email" gorm:"type:varchar(100)"`
	Address  string  `json:"address" gorm:"type:text"`
	Balance  float64 `json:"balance"`
	Type     string  `json:"type" gorm:"type:varchar(20);default:'individual'"`
}
