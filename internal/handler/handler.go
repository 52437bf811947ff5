package handler

import (
	"github.com/adelangokeh992-cell/erp-pro/internal/middleware"
	"github.com/adelangokeh992-cell/erp-pro/pkg/config"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"github.com/labstack/echo/v4"
)

var cfg *config.Config

// Init stores the application configuration for handlers that need it
func Init(c *config.Config) {
	cfg = c
}

// tenantID returns the caller's tenant id. Routes using it sit behind
// RequireTenant, so the value is always present.
func tenantID(c echo.Context) string {
	id, _ := c.Get(middleware.ContextTenantID).(string)
	return id
}

func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
