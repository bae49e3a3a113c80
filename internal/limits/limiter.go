// Package limits provides the Redis-backed per-client request throttle used
// in front of the public API. The per-key daily quota lives in the quota
// package; this throttle only smooths bursts per source address.
package limits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

// RateLimiter counts requests in fixed one-minute windows. A nil limiter or
// nil client allows everything, so the throttle fails open when Redis is not
// configured.
type RateLimiter struct {
	client *redis.Client
	rpm    int
}

func NewRateLimiter(client *redis.Client, requestsPerMinute int) *RateLimiter {
	return &RateLimiter{client: client, rpm: requestsPerMinute}
}

// Allow consumes one slot in the caller's current minute window.
func (l *RateLimiter) Allow(ctx context.Context, callerID string) error {
	if l == nil || l.client == nil || l.rpm <= 0 {
		return nil
	}
	return l.countCheck(ctx, fmt.Sprintf("rpm:%s", callerID), time.Minute, l.rpm)
}

func (l *RateLimiter) countCheck(ctx context.Context, key string, ttl time.Duration, limit int) error {
	now := time.Now().UTC().Unix() / int64(ttl.Seconds())
	redisKey := fmt.Sprintf("%s:%d", key, now)

	cnt, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}
	if cnt == 1 {
		l.client.Expire(ctx, redisKey, ttl)
	}
	if int(cnt) > limit {
		return ErrLimitExceeded
	}
	return nil
}
