package tenant

import (
	"testing"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, code, status string, expiry *time.Time) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{
		Code:   code,
		Name:   "Test Company " + code,
		Status: status,
		Subscription: model.Subscription{
			Plan:       "basic",
			ExpiryDate: expiry,
		},
	}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}
	return tenant
}

func TestResolveByCode(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectory(db)
	seedTenant(t, db, "ACME1234", model.TenantStatusActive, nil)

	got, err := dir.ResolveByCode("ACME1234")
	if err != nil {
		t.Fatalf("ResolveByCode failed: %v", err)
	}
	if got.Code != "ACME1234" {
		t.Fatalf("unexpected tenant: %+v", got)
	}

	if _, err := dir.ResolveByCode("NOPE0000"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name   string
		status string
		expiry *time.Time
		want   string
	}{
		{"active with future expiry", model.TenantStatusActive, &future, model.TenantStatusActive},
		{"active with past expiry", model.TenantStatusActive, &past, model.TenantStatusExpired},
		{"trial with past expiry", model.TenantStatusTrial, &past, model.TenantStatusExpired},
		{"active without expiry", model.TenantStatusActive, nil, model.TenantStatusActive},
		{"suspended wins over future expiry", model.TenantStatusSuspended, &future, model.TenantStatusSuspended},
		{"suspended wins over past expiry", model.TenantStatusSuspended, &past, model.TenantStatusSuspended},
	}
	for _, tc := range cases {
		tenant := &model.Tenant{Status: tc.status}
		tenant.Subscription.ExpiryDate = tc.expiry
		if got := EffectiveStatus(tenant, now); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCurrentStatusWritesBackExpired(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectory(db)
	past := time.Now().UTC().Add(-time.Hour)
	seeded := seedTenant(t, db, "EXPD1234", model.TenantStatusActive, &past)

	status, err := dir.CurrentStatus(seeded, time.Now().UTC())
	if err != nil {
		t.Fatalf("CurrentStatus failed: %v", err)
	}
	if status != model.TenantStatusExpired {
		t.Fatalf("expected expired, got %q", status)
	}

	var stored model.Tenant
	if err := db.Where("id = ?", seeded.ID).First(&stored).Error; err != nil {
		t.Fatalf("failed to reload tenant: %v", err)
	}
	if stored.Status != model.TenantStatusExpired {
		t.Fatalf("expected write-back to expired, stored %q", stored.Status)
	}

	// Second evaluation is a no-op
	if status, err = dir.CurrentStatus(&stored, time.Now().UTC()); err != nil || status != model.TenantStatusExpired {
		t.Fatalf("second evaluation: status %q, err %v", status, err)
	}
}

func TestCurrentStatusDoesNotOverwriteSuspended(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectory(db)
	past := time.Now().UTC().Add(-time.Hour)
	seeded := seedTenant(t, db, "SUSP1234", model.TenantStatusSuspended, &past)

	status, err := dir.CurrentStatus(seeded, time.Now().UTC())
	if err != nil {
		t.Fatalf("CurrentStatus failed: %v", err)
	}
	if status != model.TenantStatusSuspended {
		t.Fatalf("expected suspended to stick, got %q", status)
	}
}

func TestRequireActive(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectory(db)
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	ok := seedTenant(t, db, "OKAY1234", model.TenantStatusTrial, &future)
	if err := dir.RequireActive(ok, now); err != nil {
		t.Fatalf("trial tenant should pass: %v", err)
	}

	expired := seedTenant(t, db, "GONE1234", model.TenantStatusActive, &past)
	if err := dir.RequireActive(expired, now); err != ErrSubscriptionInactive {
		t.Fatalf("expected ErrSubscriptionInactive, got %v", err)
	}
}

func TestExtendSubscriptionFromFutureExpiry(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectory(db)
	future := time.Now().UTC().Add(10 * 24 * time.Hour)
	seeded := seedTenant(t, db, "EXTD1234", model.TenantStatusActive, &future)

	newExpiry, err := dir.ExtendSubscription(seeded.ID, 30)
	if err != nil {
		t.Fatalf("ExtendSubscription failed: %v", err)
	}
	want := future.AddDate(0, 0, 30)
	if !newExpiry.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, newExpiry)
	}
}

func TestExtendSubscriptionFromNowWhenLapsed(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectory(db)
	past := time.Now().UTC().Add(-30 * 24 * time.Hour)
	seeded := seedTenant(t, db, "LAPS1234", model.TenantStatusExpired, &past)

	before := time.Now().UTC()
	newExpiry, err := dir.ExtendSubscription(seeded.ID, 7)
	if err != nil {
		t.Fatalf("ExtendSubscription failed: %v", err)
	}
	// Counting from now, not from the lapsed expiry
	if newExpiry.Before(before.AddDate(0, 0, 6)) {
		t.Fatalf("expiry %v should count from now", newExpiry)
	}

	var stored model.Tenant
	db.Where("id = ?", seeded.ID).First(&stored)
	if stored.Status != model.TenantStatusActive {
		t.Fatalf("extension should reset status to active, got %q", stored.Status)
	}
}

func TestExtendSubscriptionUnknownTenant(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectory(db)
	if _, err := dir.ExtendSubscription("00000000-0000-0000-0000-000000000000", 7); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectory(db)
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	seedTenant(t, db, "SWP10001", model.TenantStatusActive, &past)
	seedTenant(t, db, "SWP20002", model.TenantStatusTrial, &past)
	seedTenant(t, db, "SWP30003", model.TenantStatusActive, &future)
	seedTenant(t, db, "SWP40004", model.TenantStatusSuspended, &past)

	swept, err := dir.SweepExpired(now)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if swept != 2 {
		t.Fatalf("expected 2 tenants swept, got %d", swept)
	}

	var expiredCount int64
	db.Model(&model.Tenant{}).Where("status = ?", model.TenantStatusExpired).Count(&expiredCount)
	if expiredCount != 2 {
		t.Fatalf("expected 2 expired tenants stored, got %d", expiredCount)
	}

	// Sweeping again finds nothing new
	swept, err = dir.SweepExpired(now)
	if err != nil || swept != 0 {
		t.Fatalf("second sweep: swept %d, err %v", swept, err)
	}
}
