package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sharekeep/internal/config"
	"sharekeep/internal/database"
	"sharekeep/internal/ratelimit"
	"sharekeep/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	logger := zerolog.New(io.Discard)
	cfg := &config.RateLimitConfig{Enabled: true, RPS: 1000, Burst: 1000, Requests: 3, Window: 60}
	limiter := NewRateLimiter(cfg, ratelimit.NewMemoryLimiterStore(), &logger)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.allow(ctx, "client-a"), "request %d", i)
	}
	assert.False(t, limiter.allow(ctx, "client-a"))

	// Another client has its own window
	assert.True(t, limiter.allow(ctx, "client-b"))
}

func TestRateLimiterTokenBucket(t *testing.T) {
	logger := zerolog.New(io.Discard)
	cfg := &config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 2, Requests: 1000, Window: 60}
	limiter := NewRateLimiter(cfg, nil, &logger)

	ctx := context.Background()
	assert.True(t, limiter.allow(ctx, "burst"))
	assert.True(t, limiter.allow(ctx, "burst"))
	assert.False(t, limiter.allow(ctx, "burst"))
}

func TestRateLimitMiddlewareResponds429(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	services := Services{
		Users:    service.NewUserService(db, &logger),
		Items:    service.NewItemService(db, nil, &logger),
		Requests: service.NewRequestService(db, &logger),
		Bookings: service.NewBookingService(db, nil, &logger),
	}

	cfg := &config.Config{}
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1000, Burst: 1000, Requests: 2, Window: 60}

	limiter := NewRateLimiter(&cfg.RateLimit, ratelimit.NewMemoryLimiterStore(), &logger)
	srv := NewHTTPServer(cfg, services, limiter, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := &http.Client{Timeout: 5 * time.Second}
	get := func() int {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set(headerSharerID, "1")
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusTooManyRequests, get())
}
