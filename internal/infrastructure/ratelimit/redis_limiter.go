// Package ratelimit bounds repeated operations with fixed windows kept in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/lendauth/domain"
)

// ErrLimiterUnavailable wraps Redis failures so callers can fail open
var ErrLimiterUnavailable = errors.New("attempt limiter unavailable")

// FixedWindow implements domain.AttemptLimiter. The first attempt in a
// window starts its expiry; the counter is never extended.
type FixedWindow struct {
	redis       redis.Cmdable
	prefix      string
	maxAttempts int
	window      time.Duration
}

// NewFixedWindow creates a limiter allowing maxAttempts per window for each key.
// maxAttempts <= 0 disables limiting.
func NewFixedWindow(client redis.Cmdable, prefix string, maxAttempts int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		redis:       client,
		prefix:      prefix,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

var _ domain.AttemptLimiter = (*FixedWindow)(nil)

// Allow counts an attempt and reports whether it is within the window budget
func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}

	k := l.key(key)
	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return true, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return true, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	return count <= int64(l.maxAttempts), nil
}

// Reset clears the counter for key
func (l *FixedWindow) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return nil
}

func (l *FixedWindow) key(key string) string {
	return l.prefix + ":" + key
}
