// Package classifier turns free-form ticket text into a taxonomy label using
// LLM providers with ordered failover and a deterministic fallback.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Provider is a single LLM backend able to complete the classification prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Observer receives the outcome of each classification for metrics.
type Observer interface {
	RecordClassification(provider, label string, latency time.Duration)
}

// Options configures the gateway explicitly. Providers are attempted in
// order; AttemptTimeout bounds each individual provider call.
type Options struct {
	Providers      []Provider
	AttemptTimeout time.Duration
	Logger         *slog.Logger
	Observer       Observer
}

// Gateway classifies ticket text. Classify never fails: when every provider
// attempt is exhausted it returns the fixed fallback result.
type Gateway struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
	observer  Observer
}

func NewGateway(opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.AttemptTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		providers: opts.Providers,
		timeout:   timeout,
		logger:    logger,
		observer:  opts.Observer,
	}
}

// Classify runs the providers in order and returns the first well-formed
// result. Provider errors and unparseable responses both count as that
// provider's failure. Latency covers the whole call including failed
// attempts.
func (g *Gateway) Classify(ctx context.Context, text string) Result {
	start := time.Now()
	prompt := BuildPrompt(text)

	var lastParseErr error
	for _, p := range g.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		raw, err := p.Complete(attemptCtx, prompt)
		cancel()
		if err != nil {
			g.logger.Warn("classification provider failed",
				slog.String("provider", p.Name()),
				slog.String("error", truncateError(err)))
			lastParseErr = nil
			continue
		}

		result, parseErr := parseResponse(raw)
		if parseErr != nil {
			g.logger.Warn("classification response rejected",
				slog.String("provider", p.Name()),
				slog.String("error", truncateError(parseErr)))
			lastParseErr = parseErr
			continue
		}

		result.Provider = p.Name()
		result.Latency = time.Since(start)
		g.record(result)
		return result
	}

	summary := fallbackSummary
	if lastParseErr != nil {
		summary = fmt.Sprintf("AI response parsing failed: %v", lastParseErr)
	}
	result := Result{
		Label:      LabelOther,
		Confidence: 0,
		Summary:    summary,
		Provider:   ProviderFallback,
		Latency:    time.Since(start),
	}
	g.record(result)
	return result
}

func (g *Gateway) record(result Result) {
	if g.observer == nil {
		return
	}
	g.observer.RecordClassification(result.Provider, result.Label, result.Latency)
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return msg
}
