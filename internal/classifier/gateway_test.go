package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubProvider struct {
	name     string
	response string
	err      error
	calls    int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(_ context.Context, _ string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

// stalledProvider never answers; it blocks until the per-attempt context
// expires.
type stalledProvider struct {
	name  string
	calls int
}

func (p *stalledProvider) Name() string { return p.name }

func (p *stalledProvider) Complete(ctx context.Context, _ string) (string, error) {
	p.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func newGateway(providers ...Provider) *Gateway {
	return NewGateway(Options{
		Providers:      providers,
		AttemptTimeout: time.Second,
	})
}

func TestClassifyPrimarySuccess(t *testing.T) {
	primary := &stubProvider{name: "openai", response: `{"label":"billing_issue","confidence":0.95,"summary":"duplicate charge"}`}
	secondary := &stubProvider{name: "anthropic", response: `{"label":"other","confidence":0.1,"summary":"unused"}`}
	gw := newGateway(primary, secondary)

	res := gw.Classify(context.Background(), "I was charged twice this month for my premium subscription. Please refund the duplicate payment.")
	if res.Label != LabelBillingIssue || res.Confidence != 0.95 || res.Summary != "duplicate charge" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Provider != "openai" {
		t.Fatalf("expected primary provider, got %q", res.Provider)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary should not be called when primary succeeds")
	}
}

func TestClassifyFailsOverToSecondary(t *testing.T) {
	primary := &stubProvider{name: "openai", err: errors.New("upstream 500")}
	secondary := &stubProvider{name: "anthropic", response: `{"label":"bug","confidence":0.8,"summary":"crash on save"}`}
	gw := newGateway(primary, secondary)

	res := gw.Classify(context.Background(), "app crashes when saving")
	if res.Provider != "anthropic" || res.Label != LabelBug {
		t.Fatalf("unexpected result %+v", res)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected one call each, got %d/%d", primary.calls, secondary.calls)
	}
}

func TestClassifyMalformedJSONTriggersFailover(t *testing.T) {
	primary := &stubProvider{name: "openai", response: `{"label":"bug","summary":"no confidence"}`}
	secondary := &stubProvider{name: "anthropic", response: `{"label":"bug","confidence":0.6,"summary":"ok"}`}
	gw := newGateway(primary, secondary)

	res := gw.Classify(context.Background(), "something broke")
	if res.Provider != "anthropic" {
		t.Fatalf("expected failover on malformed JSON, got provider %q", res.Provider)
	}
}

func TestClassifyBothProvidersFail(t *testing.T) {
	primary := &stubProvider{name: "openai", err: errors.New("timeout")}
	secondary := &stubProvider{name: "anthropic", err: errors.New("quota")}
	gw := newGateway(primary, secondary)

	res := gw.Classify(context.Background(), "anything at all")
	if res.Provider != ProviderFallback {
		t.Fatalf("expected fallback provider, got %q", res.Provider)
	}
	if res.Label != LabelOther || res.Confidence != 0 {
		t.Fatalf("fallback must be other/0.0, got %+v", res)
	}
	if res.Summary != fallbackSummary {
		t.Fatalf("unexpected fallback summary %q", res.Summary)
	}
}

func TestClassifyLastProviderParseFailure(t *testing.T) {
	primary := &stubProvider{name: "openai", err: errors.New("down")}
	secondary := &stubProvider{name: "anthropic", response: "sorry, I cannot help with that"}
	gw := newGateway(primary, secondary)

	res := gw.Classify(context.Background(), "text")
	if res.Provider != ProviderFallback || res.Label != LabelOther || res.Confidence != 0 {
		t.Fatalf("unexpected fallback %+v", res)
	}
	if !strings.Contains(res.Summary, "parsing failed") {
		t.Fatalf("summary should describe the parse error, got %q", res.Summary)
	}
}

func TestClassifyAttemptTimeoutBoundsStalledProviders(t *testing.T) {
	primary := &stalledProvider{name: "openai"}
	secondary := &stalledProvider{name: "anthropic"}
	gw := NewGateway(Options{
		Providers:      []Provider{primary, secondary},
		AttemptTimeout: 50 * time.Millisecond,
	})

	start := time.Now()
	res := gw.Classify(context.Background(), "text")
	elapsed := time.Since(start)

	if res.Provider != ProviderFallback || res.Label != LabelOther || res.Confidence != 0 {
		t.Fatalf("expected fallback after timeouts, got %+v", res)
	}
	if res.Summary != fallbackSummary {
		t.Fatalf("unexpected fallback summary %q", res.Summary)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected one attempt per provider, got %d/%d", primary.calls, secondary.calls)
	}
	// Two 50ms attempts must not take anywhere near the 10s default.
	if elapsed > 2*time.Second {
		t.Fatalf("classification took %v, attempt timeout not enforced", elapsed)
	}
}

func TestClassifyNoProviders(t *testing.T) {
	gw := newGateway()
	res := gw.Classify(context.Background(), "text")
	if res.Provider != ProviderFallback {
		t.Fatalf("expected fallback with no providers, got %+v", res)
	}
}

func TestClassifyRecordsLatency(t *testing.T) {
	primary := &stubProvider{name: "openai", response: `{"label":"other","confidence":0.2,"summary":"x"}`}
	gw := newGateway(primary)

	res := gw.Classify(context.Background(), "text")
	if res.Latency < 0 {
		t.Fatalf("latency must be non-negative, got %v", res.Latency)
	}
}
