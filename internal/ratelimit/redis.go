package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carewave/hospital-concierge/pkg/logging"
)

// RedisLimiter is a fixed-window limiter whose counters live in Redis, so the
// limit holds across server instances. Redis errors fail open: tracking must
// not go down because the limiter store did.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *logging.Logger
}

// NewRedisLimiter creates a shared fixed-window limiter.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, logger *logging.Logger) *RedisLimiter {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit",
		logger: logger.Component("ratelimit"),
	}
}

// Allow increments the key's window counter and reports whether it is within
// the limit. The window TTL is set when the counter is created.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("limiter unavailable, failing open", "error", err)
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.Warn("limiter expire failed", "error", err)
		}
	}
	return count <= int64(l.limit)
}
