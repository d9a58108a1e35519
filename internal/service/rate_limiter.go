package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter counts attempts per key in fixed windows stored in redis, so the
// limit holds across every replica sharing the same redis.
type RateLimiter struct {
	client redis.Cmdable
}

func NewRateLimiter(client redis.Cmdable) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckLimit records one attempt for key and reports whether it is within limit.
// resetAt is when the current window ends.
func (rl *RateLimiter) CheckLimit(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
) (allowed bool, resetAt time.Time) {
	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("rate limit check failed, denying request for safety")
		return false, time.Now().Add(window)
	}

	if count == 1 {
		if err := rl.client.Expire(ctx, key, window).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to set rate limit window")
		}
	}

	ttl, err := rl.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		// A key without expiry would block forever; start a new window.
		rl.client.Expire(ctx, key, window)
		ttl = window
	}

	return count <= int64(limit), time.Now().Add(ttl)
}
