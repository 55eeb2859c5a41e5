// Package config loads service configuration from environment variables with
// sensible defaults and validates it before startup.
//
// Environment variables:
//
// Application:
//   - PORT: server port (default: 8080)
//   - LOG_LEVEL: logging level (default: info)
//
// Database (routing rule storage):
//   - DATABASE_TYPE: "sqlite" or "postgres" (default: sqlite)
//   - DATABASE_PATH: SQLite database file path (default: ./legal_router.db)
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER,
//     POSTGRES_PASSWORD, POSTGRES_SSL_MODE: PostgreSQL connection settings
//
// Redis (shared round-robin cursors and distributed rule locks; optional,
// single-instance deployments run without it):
//   - REDIS_ADDRESS, REDIS_PASSWORD, REDIS_DB, REDIS_POOL_SIZE
//
// Rate limiting:
//   - RATE_LIMIT_ENABLED (default: true)
//   - RATE_LIMIT_DEFAULT: requests per window (default: 100)
//   - RATE_LIMIT_WINDOW: window duration (default: 60s)
//
// Workload dashboard:
//   - WORKLOAD_CACHE_TTL: snapshot cache lifetime (default: 30s)
//   - WORKLOAD_REFRESH_SCHEDULE: cron spec for background refresh
//     (default: "@every 1m")
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the assignment service.
type Config struct {
	Port     string
	LogLevel string

	// Rule storage
	DatabaseType     string
	DatabasePath     string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	// Redis, optional
	RedisAddress  string
	RedisPassword string
	RedisDB       string
	RedisPoolSize string

	// Rate limiting
	RateLimitEnabled bool
	RateLimitDefault string
	RateLimitWindow  string

	// Workload dashboard
	WorkloadCacheTTL        string
	WorkloadRefreshSchedule string
}

// Load creates a Config from environment variables. Call Validate before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DATABASE_PATH", "./legal_router.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "legal_router"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitDefault: getEnv("RATE_LIMIT_DEFAULT", "100"),
		RateLimitWindow:  getEnv("RATE_LIMIT_WINDOW", "60s"),

		WorkloadCacheTTL:        getEnv("WORKLOAD_CACHE_TTL", "30s"),
		WorkloadRefreshSchedule: getEnv("WORKLOAD_REFRESH_SCHEDULE", "@every 1m"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks required fields, formats and cross-field dependencies.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.DatabaseType {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("DATABASE_TYPE must be 'sqlite' or 'postgres'")
	}

	if c.DatabaseType == "postgres" || c.DatabaseType == "postgresql" {
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.RateLimitEnabled {
		if limit, err := strconv.Atoi(c.RateLimitDefault); err != nil || limit < 1 {
			return fmt.Errorf("RATE_LIMIT_DEFAULT must be a positive number")
		}
		if _, err := time.ParseDuration(c.RateLimitWindow); err != nil {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be a valid duration (e.g., '60s', '1m')")
		}
	}

	if _, err := time.ParseDuration(c.WorkloadCacheTTL); err != nil {
		return fmt.Errorf("WORKLOAD_CACHE_TTL must be a valid duration")
	}

	return nil
}

// WorkloadTTL returns the parsed workload cache TTL. Validate must have
// passed.
func (c *Config) WorkloadTTL() time.Duration {
	d, _ := time.ParseDuration(c.WorkloadCacheTTL)
	return d
}

// RateLimit returns the parsed rate limit and window. Validate must have
// passed.
func (c *Config) RateLimit() (int, time.Duration) {
	limit, _ := strconv.Atoi(c.RateLimitDefault)
	window, _ := time.ParseDuration(c.RateLimitWindow)
	return limit, window
}
