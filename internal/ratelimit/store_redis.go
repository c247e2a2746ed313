package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts requests in redis so the limit holds across instances.
// Each window gets its own key (the window start is part of the key), which
// keeps the INCR/EXPIRE pair free of reset races.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an established redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Allow counts the request against the key's current window.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	bucket := time.Now().Truncate(window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket.UnixMilli())

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("count request in window: %w", err)
	}

	count := int(incr.Val())
	resetAt := bucket.Add(window)
	if count > limit {
		return Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Limit: limit, Remaining: limit - count, ResetAt: resetAt}, nil
}
