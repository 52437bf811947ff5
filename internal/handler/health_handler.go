package handler

import (
	"net/http"

	"github.com/adelangokeh992-cell/erp-pro/pkg/database"

	"github.com/labstack/echo/v4"
)

// HealthCheck handles the health check endpoint. Passing ?check=db also
// pings the database.
func HealthCheck(c echo.Context) error {
	if c.QueryParam("check") == "db" {
		sqlDB, err := database.GetDB().DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status":  "unhealthy",
				"service": "erp-pro",
				"error":   "database unreachable",
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "erp-pro",
	})
}
