package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimiter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()
	require.NoError(t, Ping(context.Background(), client))

	limiter := NewRedisRateLimiter(client, "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "hit %d", i+1)
	}

	allowed, err := limiter.Allow(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "user:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.True(t, s.Exists("rate_limit:user:1"))
	s.FastForward(time.Minute + time.Second)
	allowed, err = limiter.Allow(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_RepairsKeyWithoutTTL(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	// A counter left behind without an expiry must not lock the user out.
	require.NoError(t, s.Set("gateway:user:7", "50"))
	limiter := NewRedisRateLimiter(client, "gateway")

	allowed, err := limiter.Allow(context.Background(), "user:7", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	ttl := s.TTL("gateway:user:7")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %s", ttl)

	s.FastForward(time.Minute + time.Second)
	allowed, err = limiter.Allow(context.Background(), "user:7", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_NilClient(t *testing.T) {
	_, err := NewRedisRateLimiter(nil, "x").Allow(context.Background(), "k", 1, time.Second)
	assert.Error(t, err)
	assert.NoError(t, Close(nil))
}

func TestMemoryRateLimiter(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := limiter.Allow(ctx, "k", 2, time.Minute)
	assert.False(t, allowed)

	now = now.Add(time.Minute)
	allowed, _ = limiter.Allow(ctx, "k", 2, time.Minute)
	assert.True(t, allowed)

	now = now.Add(2 * time.Minute)
	limiter.Sweep()
	assert.Empty(t, limiter.entries)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverRateLimiter(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("PrimaryHealthy", func(t *testing.T) {
		primary, fallback := new(mockLimiter), new(mockLimiter)
		limiter := NewFailoverRateLimiter(primary, fallback, &logger)

		primary.On("Allow", ctx, "k", 5, time.Minute).Return(true, nil).Once()
		allowed, err := limiter.Allow(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, limiter.Degraded())

		primary.AssertExpectations(t)
		fallback.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FailsOverAndRecovers", func(t *testing.T) {
		primary, fallback := new(mockLimiter), new(mockLimiter)
		limiter := NewFailoverRateLimiter(primary, fallback, &logger)

		primary.On("Allow", ctx, "k", 5, time.Minute).Return(false, errors.New("redis down")).Once()
		fallback.On("Allow", ctx, "k", 5, time.Minute).Return(true, nil).Twice()

		allowed, err := limiter.Allow(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, limiter.Degraded())

		// Still inside the recovery interval: primary is not retried.
		allowed, err = limiter.Allow(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		limiter.recovery = 0
		limiter.lastCheck.Store(time.Now().Add(-time.Second).UnixNano())
		primary.On("Allow", ctx, "k", 5, time.Minute).Return(false, nil).Once()

		allowed, err = limiter.Allow(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.False(t, limiter.Degraded())

		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
