package requestctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const fiberLocalsKey = "requestctx"

// Key is the typed context key used for storing the RequestContext.
var Key contextKey = "ticket-triage/requestctx"

// Context captures caller identity and quota standing resolved from the API
// key during authentication.
type Context struct {
	APIKeyID      uuid.UUID
	APIKeyPrefix  string
	CustomerID    string
	DailyLimit    int32
	RequestsToday int32
	LastReset     time.Time
}

// WithContext embeds the request context into the parent context.
func WithContext(parent context.Context, rc *Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, Key, rc)
}

// FromContext retrieves the request context if present.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(Key).(*Context)
	return rc, ok
}

// FiberLocalsKey returns the key used in fiber.Locals for request context storage.
func FiberLocalsKey() string {
	return fiberLocalsKey
}
