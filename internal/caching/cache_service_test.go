package caching

import (
	"context"
	"errors"
	"testing"
	"time"

	"homelyquad/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseRedisAddr(t *testing.T) {
	assert.Equal(t, "cache:6379", ParseRedisAddr("redis://cache:6379"))
	assert.Equal(t, "cache:6380", ParseRedisAddr("rediss://cache:6380"))
	assert.Equal(t, "localhost:6379", ParseRedisAddr("localhost:6379"))
}

func TestMemoryCache_UnitOwnershipExpires(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService().(*memoryCacheService)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	miss, err := cache.GetUnitOwnership(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.SetUnitOwnership(ctx, &models.UnitOwnership{UnitID: 10, LandlordID: 200}, time.Minute))
	hit, err := cache.GetUnitOwnership(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, int64(200), hit.LandlordID)

	now = now.Add(2 * time.Minute)
	expired, err := cache.GetUnitOwnership(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestMemoryCache_RateLimitWindow(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService().(*memoryCacheService)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		limited, err := cache.IsRateLimited(ctx, "create:100", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, limited)
	}
	limited, _ := cache.IsRateLimited(ctx, "create:100", 3, time.Minute)
	assert.True(t, limited)

	now = now.Add(time.Minute)
	limited, _ = cache.IsRateLimited(ctx, "create:100", 3, time.Minute)
	assert.False(t, limited)
}

func TestMemoryCache_SweepsExpiredRateLimitKeys(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService().(*memoryCacheService)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		_, err := cache.IsRateLimited(ctx, "create:"+ip, 5, time.Minute)
		require.NoError(t, err)
	}
	require.NoError(t, cache.SetUnitOwnership(ctx, &models.UnitOwnership{UnitID: 10, LandlordID: 200}, time.Hour))
	assert.Len(t, cache.entries, 4)

	now = now.Add(2 * time.Minute)
	_, err := cache.IsRateLimited(ctx, "create:10.0.0.4", 5, time.Minute)
	require.NoError(t, err)

	assert.Len(t, cache.entries, 2)
	assert.Contains(t, cache.entries, unitOwnershipKey(10))
	assert.Contains(t, cache.entries, rateLimitKey("create:10.0.0.4"))
}

// MockRedis stubs the commands the rate limiter issues. Any other call panics.
type MockRedis struct {
	redis.Cmdable
	mock.Mock
}

func (m *MockRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	args := m.Called(ctx, key)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(args.Int(0)))
	cmd.SetErr(args.Error(1))
	return cmd
}

func (m *MockRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, expiration)
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(args.Error(0) == nil)
	cmd.SetErr(args.Error(0))
	return cmd
}

func (m *MockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetErr(args.Error(0))
	return cmd
}

func TestRedisRateLimit_SetsWindowOnFirstHit(t *testing.T) {
	ctx := context.Background()
	client := &MockRedis{}
	client.On("Incr", ctx, "homelyquad:ratelimit:create:7").Return(1, nil).Once()
	client.On("Expire", ctx, "homelyquad:ratelimit:create:7", time.Minute).Return(nil).Once()
	client.On("Incr", ctx, "homelyquad:ratelimit:create:7").Return(2, nil).Once()

	cache := NewRedisCacheService(client)
	limited, err := cache.IsRateLimited(ctx, "create:7", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)

	limited, err = cache.IsRateLimited(ctx, "create:7", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)
	client.AssertExpectations(t)
}

func TestRedisRateLimit_ExpireFailureDropsCounter(t *testing.T) {
	ctx := context.Background()
	client := &MockRedis{}
	client.On("Incr", ctx, "homelyquad:ratelimit:create:7").Return(1, nil).Once()
	client.On("Expire", ctx, "homelyquad:ratelimit:create:7", time.Minute).Return(errors.New("connection reset")).Once()
	client.On("Del", ctx, []string{"homelyquad:ratelimit:create:7"}).Return(nil).Once()

	limited, err := NewRedisCacheService(client).IsRateLimited(ctx, "create:7", 5, time.Minute)
	assert.ErrorContains(t, err, "connection reset")
	assert.False(t, limited)
	client.AssertExpectations(t)
}
