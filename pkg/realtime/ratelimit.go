package realtime

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter gates bid placement per user. A nil RateLimiter on the
// gateway degrades to allow-all.
type RateLimiter interface {
	// Allow reports whether the user may proceed now; when it may not,
	// the returned duration is the retry-after hint.
	Allow(userID string) (bool, time.Duration)
}

// UserRateLimiter is a token-bucket limiter keyed per user.
type UserRateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewUserRateLimiter allows eventsPerSecond sustained with the given
// burst per user.
func NewUserRateLimiter(eventsPerSecond float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limit:   rate.Limit(eventsPerSecond),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

var _ RateLimiter = (*UserRateLimiter)(nil)

func (l *UserRateLimiter) Allow(userID string) (bool, time.Duration) {
	l.mu.Lock()
	bucket, ok := l.buckets[userID]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[userID] = bucket
	}
	l.mu.Unlock()

	reservation := bucket.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}
