package limits

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, rpm int) (*RateLimiter, func()) {
	t.Helper()
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	limiter := NewRateLimiter(client, rpm)
	cleanup := func() {
		client.Close()
		server.Close()
	}
	return limiter, cleanup
}

func TestRateLimiterAllowEnforcesRPM(t *testing.T) {
	limiter, cleanup := newTestLimiter(t, 2)
	defer cleanup()

	ctx := context.Background()
	caller := "203.0.113.7"

	if err := limiter.Allow(ctx, caller); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}
	if err := limiter.Allow(ctx, caller); err != nil {
		t.Fatalf("second request should pass: %v", err)
	}
	if err := limiter.Allow(ctx, caller); err != ErrLimitExceeded {
		t.Fatalf("expected rpm limit error, got %v", err)
	}
}

func TestRateLimiterIsolatesCallers(t *testing.T) {
	limiter, cleanup := newTestLimiter(t, 1)
	defer cleanup()

	ctx := context.Background()
	if err := limiter.Allow(ctx, "198.51.100.1"); err != nil {
		t.Fatalf("first caller should pass: %v", err)
	}
	if err := limiter.Allow(ctx, "198.51.100.2"); err != nil {
		t.Fatalf("second caller has its own window: %v", err)
	}
	if err := limiter.Allow(ctx, "198.51.100.1"); err != ErrLimitExceeded {
		t.Fatalf("expected limit error for first caller, got %v", err)
	}
}

func TestRateLimiterFailsOpenWithoutRedis(t *testing.T) {
	var limiter *RateLimiter
	if err := limiter.Allow(context.Background(), "anyone"); err != nil {
		t.Fatalf("nil limiter must allow, got %v", err)
	}

	limiter = NewRateLimiter(nil, 10)
	if err := limiter.Allow(context.Background(), "anyone"); err != nil {
		t.Fatalf("limiter without client must allow, got %v", err)
	}
}
