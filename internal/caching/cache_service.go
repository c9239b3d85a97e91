package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"homelyquad/internal/logger"
	"homelyquad/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Unit ownership caching
	GetUnitOwnership(ctx context.Context, unitID int64) (*models.UnitOwnership, error)
	SetUnitOwnership(ctx context.Context, ownership *models.UnitOwnership, ttl time.Duration) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Ping(ctx context.Context) error
}

const keyPrefix = "homelyquad:"

func unitOwnershipKey(unitID int64) string {
	return fmt.Sprintf("%sunit_ownership:%d", keyPrefix, unitID)
}

func rateLimitKey(key string) string {
	return keyPrefix + "ratelimit:" + key
}

// ParseRedisAddr strips a redis:// or rediss:// scheme so the value can be used as host:port
func ParseRedisAddr(addr string) string {
	for _, scheme := range []string{"redis://", "rediss://"} {
		if strings.HasPrefix(addr, scheme) {
			return strings.TrimPrefix(addr, scheme)
		}
	}
	return addr
}

// NewRedisClient builds a client and logs, without failing, when the first ping does not answer.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsedAddr := ParseRedisAddr(addr)
	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", "addr", parsedAddr, "error", pingErr)
	} else {
		logger.Debug("redis connection established", "addr", parsedAddr)
	}
	return client
}

type redisCacheService struct {
	client redis.Cmdable
}

func NewRedisCacheService(client redis.Cmdable) CacheService {
	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetUnitOwnership(ctx context.Context, unitID int64) (*models.UnitOwnership, error) {
	data, err := r.client.Get(ctx, unitOwnershipKey(unitID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var ownership models.UnitOwnership
	if err := json.Unmarshal(data, &ownership); err != nil {
		return nil, err
	}
	return &ownership, nil
}

func (r *redisCacheService) SetUnitOwnership(ctx context.Context, ownership *models.UnitOwnership, ttl time.Duration) error {
	data, err := json.Marshal(ownership)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, unitOwnershipKey(ownership.UnitID), data, ttl).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := rateLimitKey(key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request. A counter without a TTL would never reset.
	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			if delErr := r.client.Del(ctx, cacheKey).Err(); delErr != nil {
				err = errors.Join(err, delErr)
			}
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
