// Package cache holds small Redis-backed helpers shared across handlers.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDeduper remembers recently handled event identifiers so retried
// webhook deliveries are acknowledged without reprocessing.
type EventDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventDeduper(client *redis.Client, ttl time.Duration) *EventDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EventDeduper{client: client, ttl: ttl}
}

// MarkOnce records the event id and reports whether this delivery is the
// first one. Without Redis every delivery counts as first, which is safe
// because the handlers are idempotent at the database level too.
func (d *EventDeduper) MarkOnce(ctx context.Context, eventID string) bool {
	if d == nil || d.client == nil || eventID == "" {
		return true
	}
	ok, err := d.client.SetNX(ctx, d.prefixed(eventID), 1, d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

func (d *EventDeduper) prefixed(eventID string) string {
	return "event:" + eventID
}
