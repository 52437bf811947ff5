package license

import (
	"errors"
	"testing"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/internal/tenant"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Tenant{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewService(db, tenant.NewDirectory(db), 1), db
}

func seedLicensedTenant(t *testing.T, db *gorm.DB, code string, maxDevices int) *model.Tenant {
	t.Helper()
	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	tn := &model.Tenant{
		Code:   code,
		Name:   "Licensed " + code,
		Status: model.TenantStatusActive,
		Subscription: model.Subscription{
			Plan:       "pro",
			ExpiryDate: &future,
		},
		License: model.License{
			MaxDevices: maxDevices,
			Devices:    []model.LicenseDevice{},
		},
	}
	if err := db.Create(tn).Error; err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}
	return tn
}

func TestActivateFirstDeviceProvisionsKey(t *testing.T) {
	svc, db := newTestService(t)
	seeded := seedLicensedTenant(t, db, "LIC10001", 1)

	resp, err := svc.Activate(ActivateRequest{
		TenantCode: "LIC10001",
		LicenseKey: "KEY-AAAA",
		HardwareID: "hw-alpha",
		DeviceName: "POS Terminal 1",
	})
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if !resp.IsValid {
		t.Fatalf("expected valid activation, got reason %q", resp.Reason)
	}
	if resp.ActiveDevices != 1 || resp.RemainingDevices != 0 {
		t.Fatalf("unexpected quota: %+v", resp)
	}

	var stored model.Tenant
	db.Where("id = ?", seeded.ID).First(&stored)
	if stored.License.Key != "KEY-AAAA" {
		t.Fatalf("first activation should pin the key, stored %q", stored.License.Key)
	}
	if len(stored.License.Devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(stored.License.Devices))
	}
	if stored.License.Devices[0].HardwareIDHash == "hw-alpha" {
		t.Fatal("raw hardware id must not be persisted")
	}
}

func TestActivateSecondDeviceHitsLimit(t *testing.T) {
	svc, db := newTestService(t)
	seedLicensedTenant(t, db, "LIC20002", 1)

	if _, err := svc.Activate(ActivateRequest{
		TenantCode: "LIC20002", LicenseKey: "KEY-BBBB", HardwareID: "hw-one",
	}); err != nil {
		t.Fatalf("first activation failed: %v", err)
	}

	resp, err := svc.Activate(ActivateRequest{
		TenantCode: "LIC20002", LicenseKey: "KEY-BBBB", HardwareID: "hw-two",
	})
	if err != nil {
		t.Fatalf("second activation errored: %v", err)
	}
	if resp.IsValid {
		t.Fatal("second device should be denied at maxDevices=1")
	}
	if resp.Reason != ReasonDeviceLimitReached {
		t.Fatalf("expected %q, got %q", ReasonDeviceLimitReached, resp.Reason)
	}
}

func TestActivateIsIdempotentPerDevice(t *testing.T) {
	svc, db := newTestService(t)
	seeded := seedLicensedTenant(t, db, "LIC30003", 1)

	for i := 0; i < 3; i++ {
		resp, err := svc.Activate(ActivateRequest{
			TenantCode: "LIC30003", LicenseKey: "KEY-CCCC", HardwareID: "hw-same",
			AppVersion: "2.1.0",
		})
		if err != nil {
			t.Fatalf("activation %d failed: %v", i, err)
		}
		if !resp.IsValid {
			t.Fatalf("activation %d denied: %q", i, resp.Reason)
		}
	}

	var stored model.Tenant
	db.Where("id = ?", seeded.ID).First(&stored)
	if len(stored.License.Devices) != 1 {
		t.Fatalf("re-activation must not add devices, got %d", len(stored.License.Devices))
	}
	if stored.License.Devices[0].AppVersion != "2.1.0" {
		t.Fatalf("re-activation should refresh metadata, got %q", stored.License.Devices[0].AppVersion)
	}
}

func TestActivateWrongKey(t *testing.T) {
	svc, db := newTestService(t)
	seedLicensedTenant(t, db, "LIC40004", 2)

	if _, err := svc.Activate(ActivateRequest{
		TenantCode: "LIC40004", LicenseKey: "KEY-REAL", HardwareID: "hw-a",
	}); err != nil {
		t.Fatalf("first activation failed: %v", err)
	}

	_, err := svc.Activate(ActivateRequest{
		TenantCode: "LIC40004", LicenseKey: "KEY-FAKE", HardwareID: "hw-b",
	})
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestActivateUnknownTenant(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Activate(ActivateRequest{
		TenantCode: "NOPE0000", LicenseKey: "KEY", HardwareID: "hw",
	})
	if !errors.Is(err, tenant.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivateExpiredTenant(t *testing.T) {
	svc, db := newTestService(t)
	past := time.Now().UTC().Add(-time.Hour)
	tn := &model.Tenant{
		Code:         "LIC50005",
		Status:       model.TenantStatusActive,
		Subscription: model.Subscription{ExpiryDate: &past},
	}
	if err := db.Create(tn).Error; err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}

	resp, err := svc.Activate(ActivateRequest{
		TenantCode: "LIC50005", LicenseKey: "KEY", HardwareID: "hw",
	})
	if err != nil {
		t.Fatalf("Activate errored: %v", err)
	}
	if resp.IsValid || resp.Reason != ReasonSubscriptionInactive {
		t.Fatalf("expected SubscriptionInactive, got %+v", resp)
	}
}

func TestCheckNeverRegistersDevices(t *testing.T) {
	svc, db := newTestService(t)
	seeded := seedLicensedTenant(t, db, "LIC60006", 3)

	resp, err := svc.Check(CheckRequest{TenantCode: "LIC60006", HardwareID: "hw-unseen"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if resp.IsValid || resp.Reason != ReasonDeviceNotRegistered {
		t.Fatalf("expected DeviceNotRegistered, got %+v", resp)
	}

	var stored model.Tenant
	db.Where("id = ?", seeded.ID).First(&stored)
	if len(stored.License.Devices) != 0 {
		t.Fatalf("check must not register devices, got %d", len(stored.License.Devices))
	}
}

func TestCheckRegisteredDevice(t *testing.T) {
	svc, db := newTestService(t)
	seedLicensedTenant(t, db, "LIC70007", 1)

	if _, err := svc.Activate(ActivateRequest{
		TenantCode: "LIC70007", LicenseKey: "KEY-GGGG", HardwareID: "hw-reg",
	}); err != nil {
		t.Fatalf("activation failed: %v", err)
	}

	resp, err := svc.Check(CheckRequest{TenantCode: "LIC70007", HardwareID: "hw-reg"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !resp.IsValid {
		t.Fatalf("registered device should pass, got %q", resp.Reason)
	}
}

func TestCheckBlockedDevice(t *testing.T) {
	svc, db := newTestService(t)
	seeded := seedLicensedTenant(t, db, "LIC80008", 1)

	if _, err := svc.Activate(ActivateRequest{
		TenantCode: "LIC80008", LicenseKey: "KEY-HHHH", HardwareID: "hw-blk",
	}); err != nil {
		t.Fatalf("activation failed: %v", err)
	}

	var stored model.Tenant
	db.Where("id = ?", seeded.ID).First(&stored)
	stored.License.Devices[0].Status = model.DeviceStatusBlocked
	if err := db.Model(&model.Tenant{}).Where("id = ?", stored.ID).
		Update("license", stored.License).Error; err != nil {
		t.Fatalf("failed to block device: %v", err)
	}

	resp, err := svc.Check(CheckRequest{TenantCode: "LIC80008", HardwareID: "hw-blk"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if resp.IsValid || resp.Reason != ReasonDeviceBlocked {
		t.Fatalf("expected DeviceBlocked, got %+v", resp)
	}

	// A blocked device frees no quota either
	if stored.License.ActiveDevices() != 0 {
		t.Fatalf("blocked device should not count as active")
	}
}
