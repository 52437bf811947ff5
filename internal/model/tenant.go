package model

import (
	"time"
)

// Tenant status values
const (
	TenantStatusTrial     = "trial"
	TenantStatusActive    = "active"
	TenantStatusExpired   = "expired"
	TenantStatusSuspended = "suspended"
)

// License device status values
const (
	DeviceStatusActive  = "active"
	DeviceStatusBlocked = "blocked"
)

// Tenant represents an isolated company account, the unit of data partitioning
type Tenant struct {
	Base
	Code    string  `json:"code" gorm:"type:varchar(20);uniqueIndex"`
	Name    string  `json:"name" gorm:"type:varchar(100)"`
	NameEn  string  `json:"name_en" gorm:"type:varchar(100)"`
	Email   string  `json:"email" gorm:"type:varchar(100);index"`
	Phone   string  `json:"phone" gorm:"type:varchar(30)"`
	Address string  `json:"address" gorm:"type:text"`
	Country string  `json:"country" gorm:"type:varchar(5)"`
	Status  string  `json:"status" gorm:"type:varchar(20);index;default:'trial'"`

	Subscription Subscription   `json:"subscription" gorm:"type:jsonb;serializer:json"`
	License      License        `json:"license" gorm:"type:jsonb;serializer:json"`
	Settings     TenantSettings `json:"settings" gorm:"type:jsonb;serializer:json"`
}

// Subscription describes the tenant's plan and the limits it buys
type Subscription struct {
	Plan          string     `json:"plan"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	MaxUsers      int        `json:"max_users"`
	MaxProducts   int        `json:"max_products"`
	MaxWarehouses int        `json:"max_warehouses"`
}

// License holds the tenant's license key and its device bindings
type License struct {
	Key        string          `json:"key,omitempty"`
	Status     string          `json:"status,omitempty"`
	MaxDevices int             `json:"max_devices"`
	Devices    []LicenseDevice `json:"devices"`
}

// LicenseDevice is one hardware binding; only the hash of the hardware
// identifier is ever stored.
type LicenseDevice struct {
	HardwareIDHash   string    `json:"hardware_id_hash"`
	DeviceName       string    `json:"device_name,omitempty"`
	AppVersion       string    `json:"app_version,omitempty"`
	FirstActivatedAt time.Time `json:"first_activated_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	Status           string    `json:"status"`
}

// ActiveDevices counts devices that currently hold a license seat
func (l License) ActiveDevices() int {
	count := 0
	for _, d := range l.Devices {
		if d.Status == DeviceStatusActive {
			count++
		}
	}
	return count
}

// TenantSettings holds per-tenant presentation and feature toggles
type TenantSettings struct {
	Language        string          `json:"language,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	CurrencySymbol  string          `json:"currency_symbol,omitempty"`
	Timezone        string          `json:"timezone,omitempty"`
	EnabledFeatures map[string]bool `json:"enabled_features,omitempty"`
}
