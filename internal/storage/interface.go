// Package storage defines the persistence contract for routing configuration
// and provides a factory over the concrete adapters (SQLite, PostgreSQL,
// in-memory).
package storage

import (
	"legal-router/internal/routing"
)

// Store is the full persistence surface the application wires together: rule
// definitions plus the durable round-robin cursor fallback. Redis, when
// configured, replaces only the RoundRobinStore half.
type Store interface {
	routing.RuleRepository
	routing.RoundRobinStore

	Close() error
	Health() error
}

// StorageConfig is implemented by each adapter's config type.
type StorageConfig interface {
	Validate() error
	GetType() string
	GetConnectionString() string
}
