package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/quizadmin/quiz-admin-server/internal/audit"
	apperrors "github.com/quizadmin/quiz-admin-server/internal/errors"
)

const loginCleanupPeriod = 5 * time.Minute

// AttemptLimiter records one attempt for key and reports whether it is allowed,
// along with the time the current window ends.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Time)
}

type LoginRateLimiter struct {
	limiter AttemptLimiter
}

func NewLoginRateLimiter(limiter AttemptLimiter) *LoginRateLimiter {
	return &LoginRateLimiter{limiter: limiter}
}

func (l *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := audit.ClientIP(r)

		allowed, resetAt := l.limiter.Allow(r.Context(), ip)
		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, apperrors.ErrCodeRateLimitExceeded,
				"Too many login attempts. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type loginAttempt struct {
	count       int
	windowStart time.Time
}

// MemoryAttemptLimiter keeps attempt counters in process memory. Counters are
// not shared between replicas.
type MemoryAttemptLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	attempts    map[string]*loginAttempt
	lastCleanup time.Time
	now         func() time.Time
}

func NewMemoryAttemptLimiter(maxAttempts int, window time.Duration) *MemoryAttemptLimiter {
	return &MemoryAttemptLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		attempts:    make(map[string]*loginAttempt),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (l *MemoryAttemptLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < loginCleanupPeriod {
		return
	}
	l.lastCleanup = now

	for key, attempt := range l.attempts {
		if now.Sub(attempt.windowStart) > l.window {
			delete(l.attempts, key)
		}
	}
}

func (l *MemoryAttemptLimiter) Allow(_ context.Context, key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	attempt, exists := l.attempts[key]
	if !exists || now.Sub(attempt.windowStart) > l.window {
		l.attempts[key] = &loginAttempt{count: 1, windowStart: now}
		return true, now.Add(l.window)
	}

	resetAt := attempt.windowStart.Add(l.window)
	if attempt.count >= l.maxAttempts {
		return false, resetAt
	}

	attempt.count++
	return true, resetAt
}
