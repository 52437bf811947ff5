package tenant

import (
	"context"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/pkg/config"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"go.uber.org/zap"
)

// StartExpirySweep runs the periodic tenant expiry sweep until ctx is
// canceled. At most one sweep is in flight at a time; a tick arriving while
// the previous sweep is still running is dropped. The sweep itself is
// idempotent, so an external scheduler hitting the suspend-expired endpoint
// alongside this loop is safe.
func StartExpirySweep(ctx context.Context, cfg config.SweepConfig, dir *Directory, log *zap.Logger) {
	if !cfg.Enabled {
		log.Info("Tenant expiry sweep disabled; rely on external scheduler")
		return
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	running := make(chan struct{}, 1)

	log.Info("Tenant expiry sweep started", zap.Duration("interval", interval))
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case running <- struct{}{}:
				default:
					log.Warn("Previous expiry sweep still running, skipping tick")
					continue
				}

				now := time.Now().UTC()
				swept, err := dir.SweepExpired(now)
				<-running

				if err != nil {
					log.Error("Tenant expiry sweep failed", zap.Error(err))
					continue
				}
				if swept > 0 {
					prometheus.TenantsExpiredCounter.Add(float64(swept))
					log.Info("Tenant expiry sweep marked tenants as expired",
						zap.Int("count", swept))
				}
			}
		}
	}()
}
