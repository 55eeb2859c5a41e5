// Package locks provides the distributed per-rule lock used to serialize
// round-robin cursor updates across service instances. It wraps the Redlock
// implementation from go-redsync/redsync/v4.
//
// A routing decision holds its rule lock for a single cursor read-modify-write,
// well under a second, so locks carry a short fixed expiry and no background
// renewal.
package locks

import (
	"context"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"

	"legal-router/internal/common/errors"
	"legal-router/internal/redis"
	"legal-router/internal/routing"
)

const (
	lockKeyPrefix = "routing:lock:"
	lockExpiry    = 10 * time.Second
	lockTries     = 16
	lockRetryGap  = 50 * time.Millisecond
)

// RedsyncLocker implements routing.RuleLocker on top of Redis so concurrent
// decisions for the same rule keep strict rotation order across instances.
type RedsyncLocker struct {
	rs *redsync.Redsync
}

func NewRedsyncLocker(client *redis.Client) (*RedsyncLocker, error) {
	if client == nil {
		return nil, errors.ConfigError("redis client is required")
	}

	pool := goredis.NewPool(client.Redis())
	return &RedsyncLocker{rs: redsync.New(pool)}, nil
}

func (l *RedsyncLocker) AcquireRuleLock(ctx context.Context, ruleID string) (routing.RuleLock, error) {
	mutex := l.rs.NewMutex(lockKeyPrefix+ruleID,
		redsync.WithExpiry(lockExpiry),
		redsync.WithTries(lockTries),
		redsync.WithRetryDelay(lockRetryGap))

	if err := mutex.LockContext(ctx); err != nil {
		return nil, errors.InternalError("failed to acquire rule lock", err)
	}

	return &redsyncLock{mutex: mutex}, nil
}

type redsyncLock struct {
	mutex *redsync.Mutex
	once  sync.Once
}

func (l *redsyncLock) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		_, err = l.mutex.UnlockContext(ctx)
	})
	return err
}

var _ routing.RuleLocker = (*RedsyncLocker)(nil)
