package api

import (
	"context"
	"sync"
	"time"

	"sharekeep/internal/config"
	"sharekeep/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiter combines an in-process token bucket per client with an
// optional shared windowed counter (Redis with in-memory failover). The
// shared store failing open keeps the API serving when Redis is away.
type RateLimiter struct {
	limiters sync.Map
	cfg      *config.RateLimitConfig
	store    domain.LimiterStore
	logger   *zerolog.Logger
}

func NewRateLimiter(cfg *config.RateLimitConfig, store domain.LimiterStore, logger *zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

func (l *RateLimiter) allow(ctx context.Context, key string) bool {
	if !l.getLimiter(key).Allow() {
		return false
	}

	if l.store != nil {
		window := time.Duration(l.cfg.Window) * time.Second
		allowed, err := l.store.Allow(ctx, key, l.cfg.Requests, window)
		if err != nil {
			if l.logger != nil {
				l.logger.Error().Err(err).Msg("limiter store error, failing open")
			}
			return true
		}
		return allowed
	}

	return true
}

func (l *RateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}
