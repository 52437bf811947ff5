package model

import "time"

// Invoice status values
const (
	InvoiceStatusPaid    = "paid"
	InvoiceStatusUnpaid  = "unpaid"
	InvoiceStatusPartial = "partial"
)

// InvoiceItem is one line of an invoice
type InvoiceItem struct {
	ProductID   string  `json:"product_id,omitempty"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

// Invoice represents a sales invoice scoped to a tenant
type Invoice struct {
	Base
	TenantID      string        `json:"tenant_id" gorm:"index;type:uuid"`
	InvoiceNumber string        `json:"invoice_number" gorm:"type:varchar(50);index"`
	CustomerID    string        `json:"customer_id" gorm:"type:uuid"`
	CustomerName  string        `json:"customer_name" gorm:"type:varchar(200)"`
	Date          time.Time     `json:"date"`
	DueDate       time.Time     `json:"due_date"`
	Items         []InvoiceItem `json:"items" gorm:"type:jsonb;serializer:json"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	Status        string        `json:"status" gorm:"type:varchar(20);default:'unpaid'"`
}
