package di

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sysmap-backend/application/services"
	"sysmap-backend/infrastructure/config"
	"sysmap-backend/infrastructure/persistence/maps"
	"sysmap-backend/infrastructure/persistence/shares"
	"sysmap-backend/infrastructure/store"
	"sysmap-backend/pkg/observability"
	"sysmap-backend/pkg/ratelimit"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideKVStore creates the key-value store selected by STORE_DRIVER,
// wrapped in a circuit breaker and an operation counter.
func ProvideKVStore(ctx context.Context, cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (store.KVStore, error) {
	var (
		inner store.KVStore
		err   error
	)

	switch cfg.StoreDriver {
	case config.DriverBadger:
		inner, err = store.NewBadgerStore(store.BadgerConfig{
			Path:       cfg.BadgerPath,
			SyncWrites: cfg.Environment == "production",
			GCInterval: cfg.BadgerGCInterval,
		}, logger)
		if err != nil {
			return nil, err
		}
	case config.DriverDynamoDB:
		awsCfg, loadErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if loadErr != nil {
			return nil, loadErr
		}
		inner = store.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, logger)
	case config.DriverMemory:
		inner = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}

	return store.NewInstrumentedStore(store.NewBreakerStore(inner, cfg.StoreDriver, logger), metrics), nil
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("sysmap")
}

// ProvideMapsRepository creates the map repository
func ProvideMapsRepository(kv store.KVStore, cfg *config.Config, logger *zap.Logger) *maps.Repository {
	return maps.NewRepository(kv, cfg.StoreTimeout, logger)
}

// ProvideSharesRepository creates the redacted share repository
func ProvideSharesRepository(kv store.KVStore, cfg *config.Config, logger *zap.Logger) *shares.Repository {
	return shares.NewRepository(kv, cfg.StoreTimeout, logger)
}

// ProvideRateLimiter creates the sliding window limiter guarding share creation
func ProvideRateLimiter(cfg *config.Config) ratelimit.Limiter {
	return ratelimit.NewSlidingWindowLimiter(cfg.RedactedLimitMax, cfg.RedactedLimitWindow)
}

// ProvideMapService creates the map service
func ProvideMapService(repo *maps.Repository, cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *services.MapService {
	return services.NewMapService(repo, cfg.MaxNodesPerMap, metrics, logger)
}

// ProvideShareService creates the share service
func ProvideShareService(
	mapsRepo *maps.Repository,
	sharesRepo *shares.Repository,
	limiter ratelimit.Limiter,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.ShareService {
	return services.NewShareService(mapsRepo, sharesRepo, limiter, services.ShareConfig{
		TTL:           cfg.RedactedTTL,
		PublicBaseURL: cfg.PublicBaseURL,
		LimitWindow:   cfg.RedactedLimitWindow,
		LimitMax:      cfg.RedactedLimitMax,
		EnableIndex:   cfg.EnableRedactedIndex,
	}, metrics, logger)
}
