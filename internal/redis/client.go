// Package redis wraps the go-redis client with the operations this service
// needs: shared round-robin cursors, rate limit counters and the connection
// used by the distributed lock manager.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"legal-router/internal/routing"
)

type Client struct {
	rdb    *redis.Client
	config *Config
}

type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		rdb:    rdb,
		config: config,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Redis returns the underlying client for libraries that take one directly
// (redsync pooling).
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// CheckRateLimit counts requests for key inside a sliding window and reports
// whether the current request is allowed.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	pipe := c.rdb.TxPipeline()

	now := time.Now().UnixNano()
	windowStart := now - window.Nanoseconds()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, key, window*2)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("failed to check rate limit: %w", err)
	}

	count := int(countCmd.Val())
	allowed := count < limit

	return allowed, count, nil
}

const cursorKeyPrefix = "routing:rr:"

func cursorKey(ruleID string) string {
	return cursorKeyPrefix + ruleID
}

type cursorRecord struct {
	LastProviderID string    `json:"last_provider_id"`
	LastIndex      int       `json:"last_index"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CursorStore is a routing.RoundRobinStore backed by Redis, so multiple
// service instances rotate through the same cursor.
type CursorStore struct {
	client *Client
}

func NewCursorStore(client *Client) *CursorStore {
	return &CursorStore{client: client}
}

func (s *CursorStore) GetRoundRobinState(ctx context.Context, ruleID string) (*routing.RoundRobinState, error) {
	data, err := s.client.rdb.Get(ctx, cursorKey(ruleID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round robin state: %w", err)
	}

	var record cursorRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round robin state: %w", err)
	}

	return &routing.RoundRobinState{
		RuleID:         ruleID,
		LastProviderID: record.LastProviderID,
		LastIndex:      record.LastIndex,
		UpdatedAt:      record.UpdatedAt,
	}, nil
}

// UpdateRoundRobinState swaps in the new cursor under WATCH so a concurrent
// writer forces a retry instead of a lost update. The engine already holds
// the per-rule lock on the hot path; the CAS covers writers outside it.
func (s *CursorStore) UpdateRoundRobinState(ctx context.Context, ruleID, providerID string, index int) error {
	key := cursorKey(ruleID)
	data, err := json.Marshal(cursorRecord{
		LastProviderID: providerID,
		LastIndex:      index,
		UpdatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal round robin state: %w", err)
	}

	txn := func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := s.client.rdb.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if err != redis.TxFailedErr {
			return fmt.Errorf("failed to update round robin state: %w", err)
		}
	}
	return fmt.Errorf("failed to update round robin state after %d retries", maxRetries)
}
