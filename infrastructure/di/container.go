package di

import (
	"go.uber.org/zap"

	"sysmap-backend/application/services"
	"sysmap-backend/infrastructure/config"
	"sysmap-backend/infrastructure/persistence/maps"
	"sysmap-backend/infrastructure/persistence/shares"
	"sysmap-backend/infrastructure/store"
	"sysmap-backend/pkg/observability"
	"sysmap-backend/pkg/ratelimit"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        store.KVStore
	MapsRepo     *maps.Repository
	SharesRepo   *shares.Repository
	RateLimiter  ratelimit.Limiter
	MapService   *services.MapService
	ShareService *services.ShareService
	Metrics      *observability.Collector
}

// Close releases the container's long-lived resources.
func (c *Container) Close() error {
	if stopper, ok := c.RateLimiter.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	return c.Store.Close()
}
