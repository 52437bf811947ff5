package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/license"
	"github.com/adelangokeh992-cell/erp-pro/internal/tenant"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func licenseService() *license.Service {
	db := database.GetDB()
	return license.NewService(db, tenant.NewDirectory(db), cfg.License.DefaultMaxDevices)
}

// ActivateLicense binds a device (by hashed hardware id) to a tenant license
func ActivateLicense(c echo.Context) error {
	log := logger.FromContext(c)

	var req license.ActivateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TenantCode == "" || req.LicenseKey == "" || req.HardwareID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenantCode, licenseKey and hardwareId are required"})
	}

	resp, err := licenseService().Activate(req)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrNotFound):
			prometheus.LicenseActivationCounter.WithLabelValues("not_found").Inc()
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		case errors.Is(err, license.ErrInvalidKey):
			prometheus.LicenseActivationCounter.WithLabelValues("invalid_key").Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid license key"})
		default:
			log.Error("License activation failed", zap.Error(err))
			prometheus.LicenseActivationCounter.WithLabelValues("error").Inc()
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activation failed"})
		}
	}

	if resp.IsValid {
		prometheus.LicenseActivationCounter.WithLabelValues("ok").Inc()
		log.Info("License activated",
			zap.String("tenant_code", resp.TenantCode),
			zap.Int("active_devices", resp.ActiveDevices))
	} else {
		prometheus.LicenseActivationCounter.WithLabelValues("denied").Inc()
		log.Warn("License activation denied",
			zap.String("tenant_code", resp.TenantCode),
			zap.String("reason", resp.Reason))
	}

	return c.JSON(http.StatusOK, resp)
}

// CheckLicense validates an existing device binding without registering
// new devices
func CheckLicense(c echo.Context) error {
	log := logger.FromContext(c)

	var req license.CheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TenantCode == "" || req.HardwareID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenantCode and hardwareId are required"})
	}

	resp, err := licenseService().Check(req)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			prometheus.LicenseCheckCounter.WithLabelValues("not_found").Inc()
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("License check failed", zap.Error(err))
		prometheus.LicenseCheckCounter.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check failed"})
	}

	if resp.IsValid {
		prometheus.LicenseCheckCounter.WithLabelValues("ok").Inc()
	} else {
		prometheus.LicenseCheckCounter.WithLabelValues("denied").Inc()
	}

	return c.JSON(http.StatusOK, resp)
}

// SuspendExpired runs the tenant expiry sweep on demand, for deployments
// that drive it from an external scheduler instead of the in-process loop.
// When SUSPEND_CRON_SECRET is set, the request must carry it in
// X-Cron-Secret.
func SuspendExpired(c echo.Context) error {
	log := logger.FromContext(c)

	if cfg.License.CronSecret != "" && c.Request().Header.Get("X-Cron-Secret") != cfg.License.CronSecret {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing cron secret"})
	}

	now := time.Now().UTC()
	swept, err := tenant.NewDirectory(database.GetDB()).SweepExpired(now)
	if err != nil {
		log.Error("Suspend-expired sweep failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}

	if swept > 0 {
		prometheus.TenantsExpiredCounter.Add(float64(swept))
		log.Info("Suspend-expired sweep completed", zap.Int("count", swept))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"suspendedCount": swept,
		"message":        "Auto-suspend completed",
		"serverTime":     now,
	})
}
