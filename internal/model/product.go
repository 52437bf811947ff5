package model

// Product represents an inventory item scoped to a tenant
type Product struct {
	Base
	TenantID     string  `json:"tenant_id" gorm:"index;type:uuid"`
	Name         string  `json:"name" gorm:"type:varchar(200)"`
	NameEn       string  `json:"name_en" gorm:"type:varchar(200)"`
	SKU          string  `json:"sku" gorm:"type:varchar(100);index"`
	Barcode      string  `json:"barcode" gorm:"type:varchar(100)"`
	Category     string  `json:"category" gorm:"type:varchar(100)"`
	CategoryEn   string  `json:"category_en" gorm:"type:varchar(100)"`
	Stock        int     `json:"stock"`
	CostPrice    float64 `json:"cost_price"`
	SalePrice    float64 `json:"sale_price"`
	ReorderLevel int     `json:"reorder_level" gorm:"default:10"`
	WarehouseID  string  `json:"warehouse_id" gorm:"type:uuid"`
	IsActive     bool    `json:"is_active" gorm:"default:true"`
}
