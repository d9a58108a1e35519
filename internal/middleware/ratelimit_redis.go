package middleware

import (
	"context"
	"time"

	"github.com/quizadmin/quiz-admin-server/internal/redis"
	"github.com/quizadmin/quiz-admin-server/internal/service"
)

// RedisAttemptLimiter shares login attempt counters between replicas through redis.
type RedisAttemptLimiter struct {
	limiter     *service.RateLimiter
	maxAttempts int
	window      time.Duration
}

func NewRedisAttemptLimiter(limiter *service.RateLimiter, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{
		limiter:     limiter,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (bool, time.Time) {
	return l.limiter.CheckLimit(ctx, redis.LoginAttemptsKey(key), l.maxAttempts, l.window)
}
