package tenant

import (
	"errors"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no tenant matches the given code or id
	ErrNotFound = errors.New("tenant not found")
	// ErrSubscriptionInactive is returned when a gated operation hits an
	// expired or suspended tenant
	ErrSubscriptionInactive = errors.New("subscription expired or tenant suspended")
)

// Directory resolves tenants and maintains their subscription status
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// ResolveByCode loads a tenant by its unique code
func (d *Directory) ResolveByCode(code string) (*model.Tenant, error) {
	var t model.Tenant
	if err := d.db.Where("code = ?", code).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ResolveByID loads a tenant by id
func (d *Directory) ResolveByID(id string) (*model.Tenant, error) {
	var t model.Tenant
	if err := d.db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// EffectiveStatus derives the tenant's status at the given instant. A passed
// expiry date makes the tenant expired unless it is already suspended or
// expired by explicit status.
func EffectiveStatus(t *model.Tenant, now time.Time) string {
	status := t.Status
	if status == model.TenantStatusSuspended || status == model.TenantStatusExpired {
		return status
	}
	if exp := t.Subscription.ExpiryDate; exp != nil && exp.Before(now) {
		return model.TenantStatusExpired
	}
	return status
}

// CurrentStatus returns the effective status and persists the expired
// transition the first time it is observed, so later reads and the
// login/activation flows see consistent stored state.
func (d *Directory) CurrentStatus(t *model.Tenant, now time.Time) (string, error) {
	effective := EffectiveStatus(t, now)
	if effective == model.TenantStatusExpired &&
		t.Status != model.TenantStatusExpired && t.Status != model.TenantStatusSuspended {
		// Conditional write keeps this idempotent and safe against a
		// concurrently running sweep
		err := d.db.Model(&model.Tenant{}).
			Where("id = ? AND status NOT IN ?", t.ID,
				[]string{model.TenantStatusExpired, model.TenantStatusSuspended}).
			Updates(map[string]interface{}{"status": model.TenantStatusExpired, "updated_at": now}).Error
		if err != nil {
			return effective, err
		}
		t.Status = model.TenantStatusExpired
	}
	return effective, nil
}

// RequireActive fails with ErrSubscriptionInactive unless the tenant's
// effective status allows gated operations.
func (d *Directory) RequireActive(t *model.Tenant, now time.Time) error {
	status, err := d.CurrentStatus(t, now)
	if err != nil {
		return err
	}
	if status == model.TenantStatusExpired || status == model.TenantStatusSuspended {
		return ErrSubscriptionInactive
	}
	return nil
}

// ExtendSubscription adds days to max(now, currentExpiry) and resets status to
// active, so extending an already-expired subscription counts from now.
func (d *Directory) ExtendSubscription(tenantID string, days int) (time.Time, error) {
	t, err := d.ResolveByID(tenantID)
	if err != nil {
		return time.Time{}, err
	}

	now := time.Now().UTC()
	from := now
	if exp := t.Subscription.ExpiryDate; exp != nil && exp.After(now) {
		from = *exp
	}
	newExpiry := from.AddDate(0, 0, days)

	t.Subscription.ExpiryDate = &newExpiry
	err = d.db.Model(&model.Tenant{}).Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"subscription": t.Subscription,
			"status":       model.TenantStatusActive,
			"updated_at":   now,
		}).Error
	if err != nil {
		return time.Time{}, err
	}
	return newExpiry, nil
}

// SweepExpired writes back expired status for every tenant whose subscription
// has lapsed but whose stored status does not say so yet. Returns the number
// of tenants transitioned.
func (d *Directory) SweepExpired(now time.Time) (int, error) {
	var tenants []model.Tenant
	if err := d.db.Where("status NOT IN ?",
		[]string{model.TenantStatusExpired, model.TenantStatusSuspended}).
		Find(&tenants).Error; err != nil {
		return 0, err
	}

	swept := 0
	for i := range tenants {
		t := &tenants[i]
		if EffectiveStatus(t, now) != model.TenantStatusExpired {
			continue
		}
		if _, err := d.CurrentStatus(t, now); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}
