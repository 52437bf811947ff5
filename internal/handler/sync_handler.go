package handler

import (
	"net/http"

	"github.com/adelangokeh992-cell/erp-pro/internal/middleware"
	syncengine "github.com/adelangokeh992-cell/erp-pro/internal/sync"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SyncUpload accepts batched offline changes and applies them with the
// per-document optimistic-concurrency policy
func SyncUpload(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SyncUploadCounter.Inc()

	var req syncengine.UploadRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse sync upload request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	scope := middleware.TenantScope(c)
	engine := syncengine.NewEngine(database.GetDB(), log)
	resp := engine.Upload(scope, req)

	for _, coll := range resp.Collections {
		for _, result := range coll.Results {
			prometheus.SyncChangeCounter.WithLabelValues(coll.Name, result.Action, result.Status).Inc()
		}
	}

	log.Info("Sync upload processed",
		zap.Int("collections", len(resp.Collections)),
		zap.Stringp("tenant_id", scope))
	return c.JSON(http.StatusOK, resp)
}

// SyncDownload serves incremental downloads since a per-collection watermark
func SyncDownload(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SyncDownloadCounter.Inc()

	var req syncengine.DownloadRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse sync download request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	scope := middleware.TenantScope(c)
	engine := syncengine.NewEngine(database.GetDB(), log)
	resp := engine.Download(scope, req)

	log.Info("Sync download processed",
		zap.Int("collections", len(resp.Collections)),
		zap.Stringp("tenant_id", scope))
	return c.JSON(http.StatusOK, resp)
}
