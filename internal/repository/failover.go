package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const defaultRecoveryInterval = time.Minute

// FailoverRateLimiter uses the primary limiter until it errors, then serves
// from the fallback and retries the primary once per recovery interval.
type FailoverRateLimiter struct {
	primary   domain.RateLimiter
	fallback  domain.RateLimiter
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	recovery  time.Duration
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		recovery: defaultRecoveryInterval,
	}
}

func (r *FailoverRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.isDown.Load() && time.Since(time.Unix(0, r.lastCheck.Load())) > r.recovery {
		allowed, err := r.primary.Allow(ctx, key, limit, window)
		if err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("primary rate limiter recovered")
			return allowed, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	if !r.isDown.Load() {
		allowed, err := r.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("primary rate limiter failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.Allow(ctx, key, limit, window)
}

// Degraded reports whether requests are currently served by the fallback.
func (r *FailoverRateLimiter) Degraded() bool { return r.isDown.Load() }
