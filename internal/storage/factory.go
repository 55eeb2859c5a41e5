package storage

import (
	"fmt"
	"strconv"

	"legal-router/internal/common/errors"
	"legal-router/internal/config"
	"legal-router/internal/storage/postgres"
	"legal-router/internal/storage/sqlite"
)

// NewStore creates a storage adapter based on configuration.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.DatabaseType {
	case "sqlite":
		return sqlite.NewAdapter(&sqlite.Config{
			DatabasePath: cfg.DatabasePath,
		})

	case "postgres", "postgresql":
		port, err := strconv.Atoi(cfg.PostgresPort)
		if err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("invalid PostgreSQL port: %s", cfg.PostgresPort))
		}
		return postgres.NewAdapter(&postgres.Config{
			Host:     cfg.PostgresHost,
			Port:     port,
			Database: cfg.PostgresDB,
			Username: cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			SSLMode:  cfg.PostgresSSLMode,
		})

	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported database type: %s", cfg.DatabaseType))
	}
}
