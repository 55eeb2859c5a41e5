package config

import (
	"os"
	"testing"
	"time"
)

var testEnvVars = []string{
	"PORT", "LOG_LEVEL",
	"DATABASE_TYPE", "DATABASE_PATH",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "POSTGRES_USER",
	"POSTGRES_PASSWORD", "POSTGRES_SSL_MODE",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_DEFAULT", "RATE_LIMIT_WINDOW",
	"WORKLOAD_CACHE_TTL", "WORKLOAD_REFRESH_SCHEDULE",
}

func clearTestEnvVars() {
	for _, key := range testEnvVars {
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearTestEnvVars()

	config := Load()

	if config.Port != "8080" {
		t.Errorf("Port = %v, want 8080", config.Port)
	}
	if config.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", config.LogLevel)
	}
	if config.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %v, want sqlite", config.DatabaseType)
	}
	if config.DatabasePath != "./legal_router.db" {
		t.Errorf("DatabasePath = %v", config.DatabasePath)
	}
	if config.RedisAddress != "" {
		t.Errorf("RedisAddress = %v, want empty (redis is optional)", config.RedisAddress)
	}
	if !config.RateLimitEnabled {
		t.Error("rate limiting should default to enabled")
	}
	if config.RateLimitDefault != "100" || config.RateLimitWindow != "60s" {
		t.Errorf("rate limit defaults = %v/%v", config.RateLimitDefault, config.RateLimitWindow)
	}
	if config.WorkloadCacheTTL != "30s" {
		t.Errorf("WorkloadCacheTTL = %v", config.WorkloadCacheTTL)
	}
	if config.WorkloadRefreshSchedule != "@every 1m" {
		t.Errorf("WorkloadRefreshSchedule = %v", config.WorkloadRefreshSchedule)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearTestEnvVars()
	defer clearTestEnvVars()

	os.Setenv("PORT", "9090")
	os.Setenv("DATABASE_TYPE", "postgres")
	os.Setenv("POSTGRES_HOST", "db.internal")
	os.Setenv("REDIS_ADDRESS", "redis.internal:6379")
	os.Setenv("RATE_LIMIT_ENABLED", "false")
	os.Setenv("WORKLOAD_CACHE_TTL", "2m")

	config := Load()

	if config.Port != "9090" {
		t.Errorf("Port = %v", config.Port)
	}
	if config.DatabaseType != "postgres" || config.PostgresHost != "db.internal" {
		t.Errorf("database config = %v/%v", config.DatabaseType, config.PostgresHost)
	}
	if config.RedisAddress != "redis.internal:6379" {
		t.Errorf("RedisAddress = %v", config.RedisAddress)
	}
	if config.RateLimitEnabled {
		t.Error("RATE_LIMIT_ENABLED=false not applied")
	}
	if config.WorkloadTTL() != 2*time.Minute {
		t.Errorf("WorkloadTTL = %v", config.WorkloadTTL())
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		clearTestEnvVars()
		return Load()
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"non-numeric port", func(c *Config) { c.Port = "http" }, true},
		{"port out of range", func(c *Config) { c.Port = "70000" }, true},
		{"unknown database type", func(c *Config) { c.DatabaseType = "mysql" }, true},
		{"postgres alias accepted", func(c *Config) { c.DatabaseType = "postgresql" }, false},
		{"postgres missing host", func(c *Config) {
			c.DatabaseType = "postgres"
			c.PostgresHost = ""
		}, true},
		{"postgres missing db", func(c *Config) {
			c.DatabaseType = "postgres"
			c.PostgresDB = ""
		}, true},
		{"postgres bad port", func(c *Config) {
			c.DatabaseType = "postgres"
			c.PostgresPort = "abc"
		}, true},
		{"redis db out of range", func(c *Config) {
			c.RedisAddress = "localhost:6379"
			c.RedisDB = "16"
		}, true},
		{"redis pool too small", func(c *Config) {
			c.RedisAddress = "localhost:6379"
			c.RedisPoolSize = "0"
		}, true},
		{"redis settings ignored without address", func(c *Config) { c.RedisDB = "99" }, false},
		{"bad rate limit", func(c *Config) { c.RateLimitDefault = "0" }, true},
		{"bad rate window", func(c *Config) { c.RateLimitWindow = "soon" }, true},
		{"rate settings ignored when disabled", func(c *Config) {
			c.RateLimitEnabled = false
			c.RateLimitDefault = "nope"
		}, false},
		{"bad workload ttl", func(c *Config) { c.WorkloadCacheTTL = "fast" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRateLimitHelper(t *testing.T) {
	clearTestEnvVars()
	config := Load()
	config.RateLimitDefault = "50"
	config.RateLimitWindow = "30s"

	limit, window := config.RateLimit()
	if limit != 50 || window != 30*time.Second {
		t.Errorf("RateLimit() = (%d, %v)", limit, window)
	}
}

func TestGetBoolEnv(t *testing.T) {
	defer os.Unsetenv("TEST_BOOL")

	os.Setenv("TEST_BOOL", "true")
	if !getBoolEnv("TEST_BOOL", false) {
		t.Error("'true' should parse")
	}
	os.Setenv("TEST_BOOL", "0")
	if getBoolEnv("TEST_BOOL", true) {
		t.Error("'0' should parse as false")
	}
	os.Setenv("TEST_BOOL", "not-a-bool")
	if !getBoolEnv("TEST_BOOL", true) {
		t.Error("unparseable values fall back to the default")
	}
	os.Unsetenv("TEST_BOOL")
	if getBoolEnv("TEST_BOOL", false) {
		t.Error("unset values fall back to the default")
	}
}
