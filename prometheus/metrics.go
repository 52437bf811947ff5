package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "db_error" etc.
	)

	// Sync upload requests
	SyncUploadCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_sync_upload_total",
			Help: "Total number of sync upload requests",
		},
	)

	// Sync download requests
	SyncDownloadCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_sync_download_total",
			Help: "Total number of sync download requests",
		},
	)

	// Per-item sync change results
	SyncChangeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_sync_changes_total",
			Help: "Total number of sync changes processed by result status",
		},
		[]string{"collection", "action", "status"},
	)

	// License activation attempts by result
	LicenseActivationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_license_activations_total",
			Help: "Total number of license activation attempts",
		},
		[]string{"result"}, // "ok", "subscription_inactive", "device_limit", "invalid_key", "error"
	)

	// License check attempts by result
	LicenseCheckCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_license_checks_total",
			Help: "Total number of license check attempts",
		},
		[]string{"result"},
	)

	// Tenants transitioned to expired by the sweep
	TenantsExpiredCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_tenants_expired_total",
			Help: "Total number of tenants marked expired by the expiry sweep",
		},
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // operation can be "create", "update", "delete", "extend", etc.
	)
)

// Histogram metrics
var (
	// HTTP request duration
	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erp_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request counter
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"method", "path", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erp_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "erp_active_tenants",
			Help: "Number of currently active tenants",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "erp_info",
			Help: "Information about the ERP backend service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(SyncUploadCounter)
	prometheus.MustRegister(SyncDownloadCounter)
	prometheus.MustRegister(SyncChangeCounter)
	prometheus.MustRegister(LicenseActivationCounter)
	prometheus.MustRegister(LicenseCheckCounter)
	prometheus.MustRegister(TenantsExpiredCounter)
	prometheus.MustRegister(TenantOperationCounter)

	// Register histograms
	prometheus.MustRegister(HttpRequestDuration)
	prometheus.MustRegister(HttpRequestsTotal)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTenantsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Start timer for request duration
			start := time.Now()

			// Process request
			err := next(c)

			// Calculate request duration
			duration := time.Since(start).Seconds()

			// Get request details
			method := c.Request().Method
			path := c.Path()
			status := strconv.Itoa(c.Response().Status)

			// Record metrics
			HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
			HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration)

			return err
		}
	}
}
