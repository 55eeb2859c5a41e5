package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend returns canned responses for Allow.
type stubBackend struct {
	allowed bool
	count   int
	err     error
	calls   int
}

func (s *stubBackend) Allow(context.Context, string, int, time.Duration) (bool, int, error) {
	s.calls++
	return s.allowed, s.count, s.err
}

func TestNewLimiterDefaults(t *testing.T) {
	limiter := NewLimiter(&stubBackend{}, nil)
	assert.Equal(t, 100, limiter.config.DefaultLimit)
	assert.Equal(t, time.Minute, limiter.config.DefaultWindow)
	assert.True(t, limiter.config.Enabled)
}

func TestCheckLimit(t *testing.T) {
	t.Run("disabled reports full remaining without touching the backend", func(t *testing.T) {
		backend := &stubBackend{}
		limiter := NewLimiter(backend, &Config{Enabled: false})

		rl, err := limiter.CheckLimit(context.Background(), "k", 10, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 10, rl.Remaining)
		assert.Zero(t, backend.calls)
	})

	t.Run("remaining is limit minus current count", func(t *testing.T) {
		limiter := NewLimiter(&stubBackend{allowed: true, count: 3}, &Config{Enabled: true})

		rl, err := limiter.CheckLimit(context.Background(), "k", 10, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 7, rl.Remaining)
	})

	t.Run("remaining never goes negative", func(t *testing.T) {
		limiter := NewLimiter(&stubBackend{allowed: false, count: 50}, &Config{Enabled: true})

		rl, err := limiter.CheckLimit(context.Background(), "k", 10, time.Minute)
		require.NoError(t, err)
		assert.Zero(t, rl.Remaining)
	})

	t.Run("backend errors are wrapped", func(t *testing.T) {
		limiter := NewLimiter(&stubBackend{err: fmt.Errorf("down")}, &Config{Enabled: true})

		_, err := limiter.CheckLimit(context.Background(), "k", 10, time.Minute)
		assert.Error(t, err)
	})
}

func TestHTTPMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	doRequest := func(limiter *Limiter) *httptest.ResponseRecorder {
		handler := limiter.HTTPMiddleware(IPBasedKey)(okHandler)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/rules", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allowed request passes with headers", func(t *testing.T) {
		limiter := NewLimiter(&stubBackend{allowed: true, count: 1},
			&Config{DefaultLimit: 10, DefaultWindow: time.Minute, Enabled: true})

		rec := doRequest(limiter)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("exhausted budget returns 429 with retry-after", func(t *testing.T) {
		limiter := NewLimiter(&stubBackend{allowed: false, count: 10},
			&Config{DefaultLimit: 10, DefaultWindow: time.Minute, Enabled: true})

		rec := doRequest(limiter)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("backend failure fails open", func(t *testing.T) {
		limiter := NewLimiter(&stubBackend{err: fmt.Errorf("down")},
			&Config{DefaultLimit: 10, DefaultWindow: time.Minute, Enabled: true})

		rec := doRequest(limiter)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disabled limiter passes everything", func(t *testing.T) {
		backend := &stubBackend{}
		limiter := NewLimiter(backend, &Config{Enabled: false})

		rec := doRequest(limiter)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, backend.calls)
	})
}

func TestLocalBackend(t *testing.T) {
	backend := NewLocalBackend()
	ctx := context.Background()

	limit := 3
	window := time.Hour

	for i := 0; i < limit; i++ {
		allowed, _, err := backend.Allow(ctx, "k", limit, window)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d within the burst should pass", i+1)
	}

	allowed, count, err := backend.Allow(ctx, "k", limit, window)
	require.NoError(t, err)
	assert.False(t, allowed, "burst exhausted")
	assert.Equal(t, limit, count)

	// Other keys have their own bucket.
	allowed, _, err = backend.Allow(ctx, "other", limit, window)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestKeyFuncs(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/assign", nil)
	req.RemoteAddr = "192.168.1.5:9999"

	assert.Equal(t, "ip:192.168.1.5:9999", IPBasedKey(req))

	req.Header.Set("X-Real-IP", "1.2.3.4")
	assert.Equal(t, "ip:1.2.3.4", IPBasedKey(req))

	req.Header.Set("X-Forwarded-For", "5.6.7.8")
	assert.Equal(t, "ip:5.6.7.8", IPBasedKey(req), "forwarded-for wins over real-ip")

	assert.Equal(t, "endpoint:POST:/api/assign", EndpointBasedKey(req))
}
