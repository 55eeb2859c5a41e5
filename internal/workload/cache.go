// Package workload serves the provider workload dashboard from a short-lived
// cache. Aggregation fans out one query per provider and request type, so the
// API never computes it on every request; a cron job refreshes the snapshot in
// the background and cache misses fall through to a live computation.
package workload

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"

	"legal-router/internal/common/logging"
	"legal-router/internal/routing"
)

const snapshotKey = "providers"

// Aggregator is the slice of the engine the cache needs.
type Aggregator interface {
	ProviderWorkloads(ctx context.Context) ([]routing.ProviderWorkload, error)
}

type Cache struct {
	aggregator Aggregator
	cache      *gocache.Cache
	cron       *cron.Cron
	logger     logging.Logger

	mu          sync.Mutex
	generatedAt time.Time
}

// NewCache creates a workload cache with the given snapshot TTL and cron
// refresh schedule. Start begins the background refresh.
func NewCache(aggregator Aggregator, ttl time.Duration, schedule string, logger logging.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "workload-cache"})
	}

	c := &Cache{
		aggregator: aggregator,
		cache:      gocache.New(ttl, 2*ttl),
		cron:       cron.New(),
		logger:     logger,
	}

	if _, err := c.cron.AddFunc(schedule, c.refresh); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Cache) Start() {
	c.cron.Start()
}

func (c *Cache) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// Get returns the current workload snapshot. The boolean reports whether it
// came from cache.
func (c *Cache) Get(ctx context.Context) ([]routing.ProviderWorkload, time.Time, bool, error) {
	if cached, ok := c.cache.Get(snapshotKey); ok {
		c.mu.Lock()
		generatedAt := c.generatedAt
		c.mu.Unlock()
		return cached.([]routing.ProviderWorkload), generatedAt, true, nil
	}

	workloads, err := c.aggregator.ProviderWorkloads(ctx)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	c.store(workloads)
	return workloads, time.Now().UTC(), false, nil
}

// Fresh bypasses the cache, recomputes the snapshot and stores it.
func (c *Cache) Fresh(ctx context.Context) ([]routing.ProviderWorkload, time.Time, bool, error) {
	workloads, err := c.aggregator.ProviderWorkloads(ctx)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	c.store(workloads)
	return workloads, time.Now().UTC(), false, nil
}

func (c *Cache) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workloads, err := c.aggregator.ProviderWorkloads(ctx)
	if err != nil {
		// Keep serving the previous snapshot until it expires.
		c.logger.Warn("workload refresh failed", logging.Err(err))
		return
	}
	c.store(workloads)
	c.logger.Debug("workload snapshot refreshed", logging.Int("providers", len(workloads)))
}

func (c *Cache) store(workloads []routing.ProviderWorkload) {
	c.cache.Set(snapshotKey, workloads, gocache.DefaultExpiration)
	c.mu.Lock()
	c.generatedAt = time.Now().UTC()
	c.mu.Unlock()
}
