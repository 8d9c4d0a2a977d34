package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps counters in Redis so every replica shares one budget.
type RedisLimiter struct {
	redis redis.UniversalClient
}

// NewRedis creates a RedisLimiter backed by the given client.
func NewRedis(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{redis: client}
}

// Allow implements Limiter. INCR and EXPIRE NX go out in one MULTI, so a
// counter never outlives its window even if it predates one.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (time.Duration, error) {
	if limit <= 0 {
		return 0, nil
	}

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if incr.Val() > int64(limit) {
		ttl := pttl.Val()
		if ttl <= 0 {
			ttl = window
		}
		return ttl, ErrRateLimited
	}

	return 0, nil
}
