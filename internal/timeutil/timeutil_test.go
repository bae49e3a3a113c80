package timeutil

import (
	"testing"
	"time"
)

func TestTruncateToDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 07:00 UTC is still the previous day in Los Angeles.
	ts := time.Date(2024, time.November, 7, 7, 0, 0, 0, time.UTC)
	got := TruncateToDay(ts, loc)
	want := time.Date(2024, time.November, 6, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("unexpected day %v, want %v", got, want)
	}
}

func TestTruncateToDayNilLocation(t *testing.T) {
	ts := time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC)
	got := TruncateToDay(ts, nil)
	if !got.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day %v", got)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 5, 10, 0, 1, 0, 0, time.UTC)
	b := time.Date(2024, 5, 10, 23, 58, 0, 0, time.UTC)
	if !SameDay(a, b, time.UTC) {
		t.Fatalf("expected same day")
	}
	if SameDay(a, b.Add(3*time.Minute), time.UTC) {
		t.Fatalf("expected different days across midnight")
	}
}

func TestRetentionCutoff(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	got := RetentionCutoff(now, 90, time.UTC)
	want := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected cutoff %v, want %v", got, want)
	}
}
