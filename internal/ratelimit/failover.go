package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"sharekeep/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverLimiterStore prefers the primary store and flips to the fallback
// on the first error. The primary is probed again after a minute.
type FailoverLimiterStore struct {
	primary  domain.LimiterStore
	fallback domain.LimiterStore
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverLimiterStore(primary, fallback domain.LimiterStore, logger *zerolog.Logger) *FailoverLimiterStore {
	return &FailoverLimiterStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverLimiterStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !f.isDown.Load() {
		allowed, err := f.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		f.logger.Error().Err(err).Msg("primary limiter store failed, falling back to memory")
		f.isDown.Store(true)
		f.setLastCheck(time.Now())
	}

	if f.isDown.Load() && time.Since(f.getLastCheck()) > time.Minute {
		allowed, err := f.primary.Allow(ctx, key, limit, window)
		if err == nil {
			f.isDown.Store(false)
			return allowed, nil
		}
		f.setLastCheck(time.Now())
	}

	return f.fallback.Allow(ctx, key, limit, window)
}

func (f *FailoverLimiterStore) setLastCheck(t time.Time) {
	f.mu.Lock()
	f.lastCheck = t
	f.mu.Unlock()
}

func (f *FailoverLimiterStore) getLastCheck() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCheck
}
