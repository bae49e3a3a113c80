package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/solutionai/ticket-triage/backend/internal/store"
	"github.com/solutionai/ticket-triage/backend/internal/timeutil"
)

var (
	// ErrUnknownKey means the key does not exist or has been revoked.
	ErrUnknownKey = errors.New("quota: unknown api key")
	// ErrQuotaExceeded means the key's daily allowance is exhausted.
	ErrQuotaExceeded = errors.New("quota: daily limit exceeded")
)

// CounterStore is the persistence contract for the per-key daily counters.
// ConsumeDaily must apply reset, limit check, and increment atomically per
// key: two concurrent calls for the same key may never both be admitted past
// the limit. A day earlier than the stored reset day must not rewind the
// counter.
type CounterStore interface {
	ConsumeDaily(ctx context.Context, keyID uuid.UUID, day time.Time) (store.QuotaOutcome, error)
}

// Ledger admits requests against per-key daily quotas. The clock is injected
// so rollover behavior is testable without waiting for midnight.
type Ledger struct {
	counters CounterStore
	loc      *time.Location
	now      func() time.Time
}

// Options configures the ledger. Zero values fall back to UTC and the wall
// clock.
type Options struct {
	Location *time.Location
	Now      func() time.Time
}

func NewLedger(counters CounterStore, opts Options) *Ledger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		counters: counters,
		loc:      timeutil.EnsureLocation(opts.Location),
		now:      now,
	}
}

// Admit consumes one unit of the key's quota for the current day. A nil
// return means the request was admitted and the unit is spent; denied calls
// leave the counter untouched apart from any day rollover reset.
func (l *Ledger) Admit(ctx context.Context, keyID uuid.UUID) error {
	day := timeutil.TruncateToDay(l.now(), l.loc)
	outcome, err := l.counters.ConsumeDaily(ctx, keyID, day)
	if err != nil {
		return err
	}
	switch outcome {
	case store.QuotaAdmitted:
		return nil
	case store.QuotaDenied:
		return ErrQuotaExceeded
	default:
		return ErrUnknownKey
	}
}
