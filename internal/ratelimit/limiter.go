// Package ratelimit provides request rate limiting for the HTTP API. With
// Redis configured, limits are counted in a shared sliding window so they hold
// across instances; otherwise a per-process token bucket stands in.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"legal-router/internal/common/errors"
	"legal-router/internal/redis"
)

// Backend counts requests for a key and reports whether the current one is
// allowed plus how many landed in the window before it.
type Backend interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

type Config struct {
	DefaultLimit  int           `json:"default_limit"`
	DefaultWindow time.Duration `json:"default_window"`
	Enabled       bool          `json:"enabled"`
}

type RateLimit struct {
	Limit     int           `json:"limit"`
	Window    time.Duration `json:"window"`
	Remaining int           `json:"remaining"`
	ResetTime time.Time     `json:"reset_time"`
}

type Limiter struct {
	backend Backend
	config  *Config
}

func NewLimiter(backend Backend, config *Config) *Limiter {
	if config == nil {
		config = &Config{
			DefaultLimit:  100,
			DefaultWindow: time.Minute,
			Enabled:       true,
		}
	}

	return &Limiter{
		backend: backend,
		config:  config,
	}
}

func (l *Limiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimit, error) {
	if !l.config.Enabled {
		return &RateLimit{
			Limit:     limit,
			Window:    window,
			Remaining: limit,
			ResetTime: time.Now().Add(window),
		}, nil
	}

	_, current, err := l.backend.Allow(ctx, key, limit, window)
	if err != nil {
		return nil, errors.InternalError("failed to check rate limit", err)
	}

	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimit{
		Limit:     limit,
		Window:    window,
		Remaining: remaining,
		ResetTime: time.Now().Add(window),
	}, nil
}

func (l *Limiter) CheckDefaultLimit(ctx context.Context, key string) (*RateLimit, error) {
	return l.CheckLimit(ctx, key, l.config.DefaultLimit, l.config.DefaultWindow)
}

// HTTPMiddleware enforces the default limit per key on every request it wraps.
// Backend failures do not block traffic; the request is allowed through.
func (l *Limiter) HTTPMiddleware(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			rateLimit, err := l.CheckDefaultLimit(r.Context(), key)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rateLimit.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", rateLimit.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", rateLimit.ResetTime.Unix()))

			if rateLimit.Remaining <= 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateLimit.Window.Seconds())))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RedisBackend counts requests in a Redis sliding window shared by every
// instance.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	return b.client.CheckRateLimit(ctx, "rate_limit:"+key, limit, window)
}

// LocalBackend keeps a per-key token bucket in process memory. Counts are not
// shared across instances, so deployments behind a load balancer should use
// the Redis backend instead.
type LocalBackend struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewLocalBackend() *LocalBackend {
	return &LocalBackend{buckets: make(map[string]*rate.Limiter)}
}

func (b *LocalBackend) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	b.mu.Lock()
	bucket, ok := b.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
		b.buckets[key] = bucket
	}
	b.mu.Unlock()

	if !bucket.Allow() {
		return false, limit, nil
	}
	// Token buckets have no observable count; report consumed capacity.
	used := limit - int(bucket.Tokens())
	if used < 0 {
		used = 0
	}
	return true, used, nil
}

// IPBasedKey keys limits by client address, preferring proxy headers.
func IPBasedKey(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// EndpointBasedKey keys limits by method and path.
func EndpointBasedKey(r *http.Request) string {
	return fmt.Sprintf("endpoint:%s:%s", r.Method, r.URL.Path)
}
