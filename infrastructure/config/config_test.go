package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, DriverBadger, cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.RedactedTTL)
	assert.Equal(t, 5, cfg.RedactedLimitMax)
	assert.Equal(t, time.Minute, cfg.RedactedLimitWindow)
	assert.Equal(t, 0, cfg.MaxNodesPerMap)
	assert.Equal(t, 5*time.Minute, cfg.BadgerGCInterval)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDACTED_LIMIT_MAX", "10")
	t.Setenv("REDACTED_TTL", "24h")
	t.Setenv("ENABLE_REDACTED_INDEX", "true")
	t.Setenv("BADGER_GC_INTERVAL", "10m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 10, cfg.RedactedLimitMax)
	assert.Equal(t, 24*time.Hour, cfg.RedactedTTL)
	assert.True(t, cfg.EnableRedactedIndex)
	assert.Equal(t, 10*time.Minute, cfg.BadgerGCInterval)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:         "development",
			StoreDriver:         DriverBadger,
			BadgerPath:          "/tmp/data",
			DynamoDBTable:       "sysmap",
			RedactedTTL:         time.Hour,
			RedactedLimitMax:    5,
			RedactedLimitWindow: time.Minute,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.StoreDriver = "redis"
		assert.Error(t, cfg.Validate())
	})

	t.Run("badger requires a path", func(t *testing.T) {
		cfg := base()
		cfg.BadgerPath = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("dynamodb requires a table", func(t *testing.T) {
		cfg := base()
		cfg.StoreDriver = DriverDynamoDB
		cfg.DynamoDBTable = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("memory driver is rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.Environment = "production"
		cfg.StoreDriver = DriverMemory
		assert.Error(t, cfg.Validate())
	})

	t.Run("limits must be positive", func(t *testing.T) {
		cfg := base()
		cfg.RedactedLimitMax = 0
		assert.Error(t, cfg.Validate())

		cfg = base()
		cfg.RedactedTTL = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("gc interval must not be negative", func(t *testing.T) {
		cfg := base()
		cfg.BadgerGCInterval = -time.Minute
		assert.Error(t, cfg.Validate())
	})
}
