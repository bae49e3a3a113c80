// Package health tracks classification provider availability in the
// background so readiness reporting does not call out to the LLM APIs on
// every request.
package health

import (
	"context"
	"sync"
	"time"
)

// Checker is a provider that can report its own availability.
type Checker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// Status is the last observed state of one provider.
type Status struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Monitor periodically probes each checker and caches the result.
type Monitor struct {
	checkers  []Checker
	interval  time.Duration
	timeout   time.Duration
	startOnce sync.Once

	mu     sync.RWMutex
	states map[string]Status
}

func NewMonitor(checkers []Checker, interval, timeout time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 || timeout > interval {
		timeout = 5 * time.Second
	}
	return &Monitor{
		checkers: checkers,
		interval: interval,
		timeout:  timeout,
		states:   make(map[string]Status),
	}
}

// Start begins the monitoring loop until ctx is canceled.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil || len(m.checkers) == 0 {
		return
	}
	m.startOnce.Do(func() {
		go m.run(ctx)
	})
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	var wg sync.WaitGroup
	for _, checker := range m.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			timeoutCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			status := Status{Healthy: true, CheckedAt: time.Now().UTC()}
			if err := c.HealthCheck(timeoutCtx); err != nil {
				status.Healthy = false
				status.Error = err.Error()
			}

			m.mu.Lock()
			m.states[c.Name()] = status
			m.mu.Unlock()
		}(checker)
	}
	wg.Wait()
}

// Snapshot returns a copy of the latest provider states. Providers not yet
// probed are absent.
func (m *Monitor) Snapshot() map[string]Status {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Status, len(m.states))
	for name, status := range m.states {
		out[name] = status
	}
	return out
}
