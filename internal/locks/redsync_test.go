package locks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-router/internal/redis"
)

func setupLocker(t *testing.T) *RedsyncLocker {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	locker, err := NewRedsyncLocker(client)
	require.NoError(t, err)
	return locker
}

func TestNewRedsyncLockerRequiresClient(t *testing.T) {
	locker, err := NewRedsyncLocker(nil)
	assert.Nil(t, locker)
	assert.Error(t, err)
}

func TestAcquireAndRelease(t *testing.T) {
	locker := setupLocker(t)
	ctx := context.Background()

	lock, err := locker.AcquireRuleLock(ctx, "rule-1")
	require.NoError(t, err)
	require.NotNil(t, lock)

	assert.NoError(t, lock.Release(ctx))
	assert.NoError(t, lock.Release(ctx), "repeated release is a no-op")

	// Released lock can be re-acquired immediately.
	again, err := locker.AcquireRuleLock(ctx, "rule-1")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocksArePerRule(t *testing.T) {
	locker := setupLocker(t)
	ctx := context.Background()

	first, err := locker.AcquireRuleLock(ctx, "rule-1")
	require.NoError(t, err)
	defer first.Release(ctx)

	// A different rule's lock is free while rule-1 is held.
	other, err := locker.AcquireRuleLock(ctx, "rule-2")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))
}

func TestHeldLockBlocksSecondAcquirer(t *testing.T) {
	locker := setupLocker(t)
	ctx := context.Background()

	lock, err := locker.AcquireRuleLock(ctx, "rule-1")
	require.NoError(t, err)

	// With the lock held, a second acquirer with a short deadline must fail
	// rather than proceed.
	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = locker.AcquireRuleLock(short, "rule-1")
	assert.Error(t, err)

	require.NoError(t, lock.Release(ctx))

	// After release, acquisition succeeds again.
	second, err := locker.AcquireRuleLock(ctx, "rule-1")
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}
