package ratelimit

import (
	"context"
	"io"
	"testing"
	"time"

	"sharekeep/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterStore(t *testing.T) {
	store := NewMemoryLimiterStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := store.Allow(ctx, "key", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, err := store.Allow(ctx, "key", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Independent keys
	allowed, err = store.Allow(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryLimiterStoreWindowReset(t *testing.T) {
	store := NewMemoryLimiterStore()
	ctx := context.Background()

	allowed, err := store.Allow(ctx, "key", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = store.Allow(ctx, "key", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, err = store.Allow(ctx, "key", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiterStore(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, Ping(ctx, client))

	store := NewRedisLimiterStore(client)

	for i := 0; i < 2; i++ {
		allowed, err := store.Allow(ctx, "client", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := store.Allow(ctx, "client", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Window expiry frees the key
	mr.FastForward(2 * time.Minute)
	allowed, err = store.Allow(ctx, "client", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiterStoreNilClient(t *testing.T) {
	store := NewRedisLimiterStore(nil)
	_, err := store.Allow(context.Background(), "x", 1, time.Minute)
	assert.Error(t, err)
}

func TestFailoverLimiterStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.New(io.Discard)
	store := NewFailoverLimiterStore(NewRedisLimiterStore(client), NewMemoryLimiterStore(), &logger)

	ctx := context.Background()

	allowed, err := store.Allow(ctx, "client", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Kill the primary: requests keep flowing via the fallback
	mr.Close()

	for i := 0; i < 3; i++ {
		allowed, err = store.Allow(ctx, "client", 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	// Fallback still enforces the limit
	memOnly := NewFailoverLimiterStore(NewRedisLimiterStore(nil), NewMemoryLimiterStore(), &logger)
	for i := 0; i < 2; i++ {
		allowed, err = memOnly.Allow(ctx, "tight", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err = memOnly.Allow(ctx, "tight", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
