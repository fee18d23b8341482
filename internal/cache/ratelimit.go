package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimiter is a fixed-window counter keyed by identifier and window number.
type RateLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRateLimiter(client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow counts one hit. On redis errors it fails open: the result allows the request and err is set.
func (l *RateLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (RateLimitResult, error) {
	now := l.now()
	windowNo := now.UnixNano() / int64(window)
	reset := time.Unix(0, (windowNo+1)*int64(window))
	key := fmt.Sprintf("rate-limit:%s:%d", identifier, windowNo)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return RateLimitResult{Allowed: true, Limit: limit, Remaining: limit, Reset: reset}, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return RateLimitResult{Allowed: true, Limit: limit, Remaining: limit, Reset: reset}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}
