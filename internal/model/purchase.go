package model

import "time"

// PurchaseItem is one line of a purchase order
type PurchaseItem struct {
	ProductID string  `json:"product_id,omitempty"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	NameEn    string  `json:"name_en"`
	Quantity  int     `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
	Total     float64 `json:"total"`
}

// Purchase represents a purchase order from a supplier scoped to a tenant
type Purchase struct {
	Base
	TenantID       string         `json:"tenant_id" gorm:"index;type:uuid"`
	PurchaseNumber string         `json:"purchase_number" gorm:"type:varchar(50);index"`
	SupplierID     string         `json:"supplier_id" gorm:"type:uuid"`
	SupplierName   string         `json:"supplier_name" gorm:"type:varchar(200)"`
	Date           time.Time      `json:"date"`
	Items          []PurchaseItem `json:"items" gorm:"type:jsonb;serializer:json"`
	Subtotal       float64        `json:"subtotal"`
	Tax            float64        `json:"tax"`
	Total          float64        `json:"total"`
	Status         string         `json:"status" gorm:"type:varchar(20);default:'received'"`
	Notes          string         `json:"notes" gorm:"type:text"`
}
