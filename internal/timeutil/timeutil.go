package timeutil

import (
	"time"
)

// EnsureLocation returns UTC when loc is nil.
func EnsureLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// TruncateToDay normalizes the timestamp to midnight in the provided zone.
// The quota ledger keys its daily counters off this value.
func TruncateToDay(t time.Time, loc *time.Location) time.Time {
	loc = EnsureLocation(loc)
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return TruncateToDay(a, loc).Equal(TruncateToDay(b, loc))
}

// RetentionCutoff returns midnight of the day `days` before now in loc.
// Records created before the cutoff are eligible for cleanup.
func RetentionCutoff(now time.Time, days int, loc *time.Location) time.Time {
	return TruncateToDay(now, loc).AddDate(0, 0, -days)
}
