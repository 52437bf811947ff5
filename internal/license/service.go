package license

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/internal/tenant"

	"gorm.io/gorm"
)

// ErrInvalidKey is returned when the provided license key does not match the
// key already provisioned on the tenant
var ErrInvalidKey = errors.New("invalid license key")

// Machine-readable reasons carried in a failed StatusResponse
const (
	ReasonSubscriptionInactive = "SubscriptionInactive"
	ReasonDeviceLimitReached   = "DeviceLimitReached"
	ReasonDeviceNotRegistered  = "DeviceNotRegistered"
	ReasonDeviceBlocked        = "DeviceBlocked"
)

// ActivateRequest is the payload clients send to bind a device
type ActivateRequest struct {
	TenantCode string `json:"tenantCode"`
	LicenseKey string `json:"licenseKey"`
	HardwareID string `json:"hardwareId"`
	DeviceName string `json:"deviceName,omitempty"`
	AppVersion string `json:"appVersion,omitempty"`
}

// CheckRequest is the payload clients send to validate an existing binding
type CheckRequest struct {
	TenantCode string `json:"tenantCode"`
	HardwareID string `json:"hardwareId"`
}

// StatusResponse is returned to clients for both activate and check.
// Licensing failures are normal responses, not errors, so clients can tell a
// licensing problem from a transport problem and still see quota context.
type StatusResponse struct {
	IsValid            bool       `json:"isValid"`
	Reason             string     `json:"reason,omitempty"`
	TenantID           string     `json:"tenantId,omitempty"`
	TenantCode         string     `json:"tenantCode,omitempty"`
	TenantStatus       string     `json:"tenantStatus,omitempty"`
	Plan               string     `json:"plan,omitempty"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry,omitempty"`
	LicenseStatus      string     `json:"licenseStatus,omitempty"`
	MaxDevices         int        `json:"maxDevices"`
	ActiveDevices      int        `json:"activeDevices"`
	RemainingDevices   int        `json:"remainingDevices"`
}

// Service implements device-bound licensing on top of the tenant directory
type Service struct {
	db                *gorm.DB
	dir               *tenant.Directory
	defaultMaxDevices int
}

func NewService(db *gorm.DB, dir *tenant.Directory, defaultMaxDevices int) *Service {
	if defaultMaxDevices < 1 {
		defaultMaxDevices = 1
	}
	return &Service{db: db, dir: dir, defaultMaxDevices: defaultMaxDevices}
}

// hashHardwareID hashes the identifier so the raw value is never persisted.
// The hash must be deterministic because check looks devices up by it.
func hashHardwareID(hardwareID string) string {
	sum := sha256.Sum256([]byte(hardwareID))
	return hex.EncodeToString(sum[:])
}

func (s *Service) statusFor(t *model.Tenant) StatusResponse {
	maxDevices := t.License.MaxDevices
	if maxDevices < 1 {
		maxDevices = s.defaultMaxDevices
	}
	active := t.License.ActiveDevices()
	remaining := maxDevices - active
	if remaining < 0 {
		remaining = 0
	}
	licenseStatus := t.License.Status
	if licenseStatus == "" {
		licenseStatus = "active"
	}
	return StatusResponse{
		TenantID:           t.ID,
		TenantCode:         t.Code,
		TenantStatus:       t.Status,
		Plan:               t.Subscription.Plan,
		SubscriptionExpiry: t.Subscription.ExpiryDate,
		LicenseStatus:      licenseStatus,
		MaxDevices:         maxDevices,
		ActiveDevices:      active,
		RemainingDevices:   remaining,
	}
}

func (s *Service) persistLicense(t *model.Tenant, now time.Time) error {
	return s.db.Model(&model.Tenant{}).Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"license":    t.License,
			"updated_at": now,
		}).Error
}

// Activate binds a hashed hardware id to the tenant's license.
//
// A tenant with no stored key adopts the provided key on first activation;
// the deployment model accepts this bootstrap because reaching it requires a
// valid tenant code and the key is pinned from then on. Re-activating a known
// device is idempotent and never consumes an extra seat.
func (s *Service) Activate(req ActivateRequest) (*StatusResponse, error) {
	t, err := s.dir.ResolveByCode(req.TenantCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status, err := s.dir.CurrentStatus(t, now)
	if err != nil {
		return nil, err
	}

	if status == model.TenantStatusExpired || status == model.TenantStatusSuspended {
		resp := s.statusFor(t)
		resp.IsValid = false
		resp.Reason = ReasonSubscriptionInactive
		resp.LicenseStatus = "inactive"
		return &resp, nil
	}

	if t.License.Key != "" {
		if t.License.Key != req.LicenseKey {
			return nil, ErrInvalidKey
		}
	} else {
		// First activation provisions the key for this tenant
		t.License.Key = req.LicenseKey
	}
	if t.License.MaxDevices < 1 {
		t.License.MaxDevices = s.defaultMaxDevices
	}
	if t.License.Status == "" {
		t.License.Status = "active"
	}

	hash := hashHardwareID(req.HardwareID)
	var device *model.LicenseDevice
	for i := range t.License.Devices {
		if t.License.Devices[i].HardwareIDHash == hash {
			device = &t.License.Devices[i]
			break
		}
	}

	if device != nil {
		// Idempotent re-activation: refresh heartbeat and metadata only
		device.LastSeenAt = now
		if req.DeviceName != "" {
			device.DeviceName = req.DeviceName
		}
		if req.AppVersion != "" {
			device.AppVersion = req.AppVersion
		}
	} else {
		if t.License.ActiveDevices() >= t.License.MaxDevices {
			resp := s.statusFor(t)
			resp.IsValid = false
			resp.Reason = ReasonDeviceLimitReached
			return &resp, nil
		}
		t.License.Devices = append(t.License.Devices, model.LicenseDevice{
			HardwareIDHash:   hash,
			DeviceName:       req.DeviceName,
			AppVersion:       req.AppVersion,
			FirstActivatedAt: now,
			LastSeenAt:       now,
			Status:           model.DeviceStatusActive,
		})
	}

	if err := s.persistLicense(t, now); err != nil {
		return nil, err
	}

	resp := s.statusFor(t)
	resp.IsValid = true
	return &resp, nil
}

// Check validates an existing device binding without registering new devices,
// so clients can poll cheaply without consuming license seats. A successful
// check touches the device's lastSeenAt as a heartbeat.
func (s *Service) Check(req CheckRequest) (*StatusResponse, error) {
	t, err := s.dir.ResolveByCode(req.TenantCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status, err := s.dir.CurrentStatus(t, now)
	if err != nil {
		return nil, err
	}

	resp := s.statusFor(t)

	if status == model.TenantStatusExpired || status == model.TenantStatusSuspended {
		resp.IsValid = false
		resp.Reason = ReasonSubscriptionInactive
		return &resp, nil
	}

	hash := hashHardwareID(req.HardwareID)
	var device *model.LicenseDevice
	for i := range t.License.Devices {
		if t.License.Devices[i].HardwareIDHash == hash {
			device = &t.License.Devices[i]
			break
		}
	}

	if device == nil {
		resp.IsValid = false
		resp.Reason = ReasonDeviceNotRegistered
		return &resp, nil
	}
	if device.Status != model.DeviceStatusActive {
		resp.IsValid = false
		resp.Reason = ReasonDeviceBlocked
		return &resp, nil
	}

	device.LastSeenAt = now
	if err := s.persistLicense(t, now); err != nil {
		return nil, err
	}

	resp.IsValid = true
	return &resp, nil
}
