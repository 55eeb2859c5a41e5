package workload

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-router/internal/routing"
)

// stubAggregator counts calls and returns a canned snapshot.
type stubAggregator struct {
	workloads []routing.ProviderWorkload
	err       error
	calls     int
}

func (s *stubAggregator) ProviderWorkloads(context.Context) ([]routing.ProviderWorkload, error) {
	s.calls++
	return s.workloads, s.err
}

func snapshot(ids ...string) []routing.ProviderWorkload {
	out := make([]routing.ProviderWorkload, len(ids))
	for i, id := range ids {
		out[i] = routing.ProviderWorkload{ProviderID: id}
	}
	return out
}

func newTestCache(t *testing.T, agg Aggregator, ttl time.Duration) *Cache {
	t.Helper()
	c, err := NewCache(agg, ttl, "@every 1h", nil)
	require.NoError(t, err)
	return c
}

func TestNewCacheRejectsBadSchedule(t *testing.T) {
	_, err := NewCache(&stubAggregator{}, time.Minute, "whenever", nil)
	assert.Error(t, err)
}

func TestGetComputesOnMissThenServesCached(t *testing.T) {
	agg := &stubAggregator{workloads: snapshot("p1", "p2")}
	cache := newTestCache(t, agg, time.Minute)
	ctx := context.Background()

	workloads, generatedAt, cached, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, cached, "first call is a miss")
	assert.Len(t, workloads, 2)
	assert.False(t, generatedAt.IsZero())
	assert.Equal(t, 1, agg.calls)

	workloads, _, cached, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cached, "second call hits the cache")
	assert.Len(t, workloads, 2)
	assert.Equal(t, 1, agg.calls, "hit must not recompute")
}

func TestGetExpiresAfterTTL(t *testing.T) {
	agg := &stubAggregator{workloads: snapshot("p1")}
	cache := newTestCache(t, agg, 20*time.Millisecond)
	ctx := context.Background()

	_, _, _, err := cache.Get(ctx)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, _, cached, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, cached, "expired snapshot recomputes")
	assert.Equal(t, 2, agg.calls)
}

func TestFreshBypassesCache(t *testing.T) {
	agg := &stubAggregator{workloads: snapshot("p1")}
	cache := newTestCache(t, agg, time.Minute)
	ctx := context.Background()

	_, _, _, err := cache.Get(ctx)
	require.NoError(t, err)

	agg.workloads = snapshot("p1", "p2")
	workloads, _, cached, err := cache.Fresh(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, workloads, 2)
	assert.Equal(t, 2, agg.calls)

	// Fresh repopulates the cache for subsequent Gets.
	workloads, _, cached, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Len(t, workloads, 2)
}

func TestGetPropagatesAggregatorError(t *testing.T) {
	agg := &stubAggregator{err: fmt.Errorf("backend down")}
	cache := newTestCache(t, agg, time.Minute)

	_, _, _, err := cache.Get(context.Background())
	assert.Error(t, err)
}

func TestRefreshKeepsStaleSnapshotOnFailure(t *testing.T) {
	agg := &stubAggregator{workloads: snapshot("p1")}
	cache := newTestCache(t, agg, time.Minute)
	ctx := context.Background()

	_, _, _, err := cache.Get(ctx)
	require.NoError(t, err)

	agg.err = fmt.Errorf("backend down")
	cache.refresh()

	workloads, _, cached, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cached, "failed refresh must not evict the snapshot")
	assert.Len(t, workloads, 1)
}

func TestStartStop(t *testing.T) {
	cache := newTestCache(t, &stubAggregator{}, time.Minute)
	cache.Start()
	cache.Stop()
}
