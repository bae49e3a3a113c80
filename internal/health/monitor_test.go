package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name  string
	err   error
	calls atomic.Int64
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) HealthCheck(context.Context) error {
	s.calls.Add(1)
	return s.err
}

func TestSweepRecordsEachChecker(t *testing.T) {
	healthy := &stubChecker{name: "openai"}
	broken := &stubChecker{name: "anthropic", err: errors.New("upstream 503")}

	m := NewMonitor([]Checker{healthy, broken}, time.Minute, time.Second)
	m.sweep(context.Background())

	snapshot := m.Snapshot()
	require.Len(t, snapshot, 2)

	require.True(t, snapshot["openai"].Healthy)
	require.Empty(t, snapshot["openai"].Error)
	require.False(t, snapshot["anthropic"].Healthy)
	require.Contains(t, snapshot["anthropic"].Error, "503")
	require.False(t, snapshot["openai"].CheckedAt.IsZero())
}

func TestSweepOverwritesPreviousState(t *testing.T) {
	flappy := &stubChecker{name: "openai", err: errors.New("timeout")}
	m := NewMonitor([]Checker{flappy}, time.Minute, time.Second)

	m.sweep(context.Background())
	require.False(t, m.Snapshot()["openai"].Healthy)

	flappy.err = nil
	m.sweep(context.Background())
	require.True(t, m.Snapshot()["openai"].Healthy)
	require.Equal(t, int64(2), flappy.calls.Load())
}

func TestSnapshotOnNilMonitor(t *testing.T) {
	var m *Monitor
	require.Nil(t, m.Snapshot())
	m.Start(context.Background())
}

func TestStartWithoutCheckersIsNoop(t *testing.T) {
	m := NewMonitor(nil, time.Minute, time.Second)
	m.Start(context.Background())
	require.Empty(t, m.Snapshot())
}
