package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableClient points at a closed port so any command that reaches the network fails fast.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisCache_RejectsInvalidKeysBeforeNetwork(t *testing.T) {
	c := NewRedisCacheWithClient(unreachableClient())
	ctx := context.Background()

	var dest []string
	_, err := c.Get(ctx, "", &dest)
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, c.Set(ctx, "", "v", time.Minute), ErrInvalidKey)
	assert.ErrorIs(t, c.Delete(ctx, ""), ErrInvalidKey)
	assert.ErrorIs(t, c.InvalidatePattern(ctx, ""), ErrInvalidKey)
	_, err = c.Exists(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestRedisCache_RejectsInvalidTTL(t *testing.T) {
	c := NewRedisCacheWithClient(unreachableClient())
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), ErrInvalidTTL)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", -time.Second), ErrInvalidTTL)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", MaxTTL+time.Second), ErrInvalidTTL)
}

func TestRedisCache_ConnectionErrorsSurface(t *testing.T) {
	c := NewRedisCacheWithClient(unreachableClient())

	var dest []string
	found, err := c.Get(context.Background(), "destinations:featured", &dest)
	assert.False(t, found)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidKey))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	l := NewRateLimiter(unreachableClient())
	l.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	res, err := l.Allow(context.Background(), "1.2.3.4", 10, time.Minute)
	require.Error(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 10, res.Remaining)
	assert.Equal(t, time.Unix(1_700_000_040, 0), res.Reset)
}
