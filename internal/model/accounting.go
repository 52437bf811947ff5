package model

import "time"

// Account represents one entry in a tenant's chart of accounts
type Account struct {
	Base
	TenantID string  `json:"tenant_id" gorm:"index;type:uuid"`
	Code     string  `json:"code" gorm:"type:varchar(20);index"`
	Name     string  `json:"name" gorm:"type:varchar(200)"`
	NameEn   string  `json:"name_en" gorm:"type:varchar(200)"`
	Type     string  `json:"type" gorm:"type:varchar(20)"` // asset, liability, equity, revenue, expense
	Balance  float64 `json:"balance"`
	ParentID string  `json:"parent_id" gorm:"type:uuid"`
	IsActive bool    `json:"is_active" gorm:"default:true"`
}

// JournalEntryLine is one debit/credit leg of a journal entry
type JournalEntryLine struct {
	AccountID   string  `json:"account_id"`
	AccountName string  `json:"account_name"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description string  `json:"description,omitempty"`
}

// JournalEntry represents a double-entry accounting record scoped to a tenant
type JournalEntry struct {
	Base
	TenantID    string             `json:"tenant_id" gorm:"index;type:uuid"`
	EntryNumber string             `json:"entry_number" gorm:"type:varchar(50);index"`
	Date        time.Time          `json:"date"`
	Description string             `json:"description" gorm:"type:text"`
	Lines       []JournalEntryLine `json:"lines" gorm:"type:jsonb;serializer:json"`
	Reference   string             `json:"reference" gorm:"type:varchar(100)"`
	Status      string             `json:"status" gorm:"type:varchar(20);default:'posted'"` // draft, posted, cancelled
	CreatedBy   string             `json:"created_by" gorm:"type:uuid"`
}

// Expense represents an operating expense scoped to a tenant
type Expense struct {
	Base
	TenantID      string    `json:"tenant_id" gorm:"index;type:uuid"`
	Category      string    `json:"category" gorm:"type:varchar(50)"` // rent, utilities, salaries, supplies, other
	Description   string    `json:"description" gorm:"type:text"`
	Amount        float64   `json:"amount"`
	Date          time.Time `json:"date"`
	PaymentMethod string    `json:"payment_method" gorm:"type:varchar(30);default:'cash'"`
	Reference     string    `json:"reference" gorm:"type:varchar(100)"`
	Notes         string    `json:"notes" gorm:"type:text"`
	CreatedBy     string    `json:"created_by" gorm:"type:uuid"`
}
