package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store driver names accepted in STORE_DRIVER
const (
	DriverBadger   = "badger"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	CORSOrigins   string
	MaxBodyBytes  int64

	// Store configuration
	StoreDriver      string
	BadgerPath       string
	BadgerGCInterval time.Duration
	AWSRegion        string
	DynamoDBTable    string
	StoreTimeout     time.Duration

	// Map configuration
	DefaultMapName string
	MaxNodesPerMap int // 0 = unlimited

	// Redacted sharing
	PublicBaseURL       string
	RedactedTTL         time.Duration
	RedactedLimitWindow time.Duration
	RedactedLimitMax    int
	EnableRedactedIndex bool

	// Logging and features
	LogLevel      string
	EnableMetrics bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", 10485760)), // 10MB

		StoreDriver:      getEnv("STORE_DRIVER", DriverBadger),
		BadgerPath:       getEnv("BADGER_PATH", "./data/sysmap"),
		BadgerGCInterval: getEnvDuration("BADGER_GC_INTERVAL", 5*time.Minute),
		AWSRegion:        getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable:    getEnv("DYNAMODB_TABLE", "sysmap"),
		StoreTimeout:     getEnvDuration("STORE_TIMEOUT", 10*time.Second),

		DefaultMapName: getEnv("DEFAULT_MAP_NAME", "My System Map"),
		MaxNodesPerMap: getEnvInt("MAX_NODES_PER_MAP", 0),

		PublicBaseURL:       getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		RedactedTTL:         getEnvDuration("REDACTED_TTL", 7*24*time.Hour),
		RedactedLimitWindow: getEnvDuration("REDACTED_LIMIT_WINDOW", time.Minute),
		RedactedLimitMax:    getEnvInt("REDACTED_LIMIT_MAX", 5),
		EnableRedactedIndex: getEnvBool("ENABLE_REDACTED_INDEX", false),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverBadger, DriverDynamoDB, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.StoreDriver == DriverBadger && c.BadgerPath == "" {
		return fmt.Errorf("BADGER_PATH is required for the badger driver")
	}
	if c.BadgerGCInterval < 0 {
		return fmt.Errorf("BADGER_GC_INTERVAL must not be negative")
	}
	if c.StoreDriver == DriverDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb driver")
	}
	if c.RedactedLimitMax <= 0 {
		return fmt.Errorf("REDACTED_LIMIT_MAX must be positive")
	}
	if c.RedactedTTL <= 0 {
		return fmt.Errorf("REDACTED_TTL must be positive")
	}
	if c.IsProduction() && c.StoreDriver == DriverMemory {
		return fmt.Errorf("the memory store driver is not allowed in production")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
