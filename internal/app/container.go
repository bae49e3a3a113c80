// Package app wires the service dependencies into a single container the
// HTTP layer and background workers draw from.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/solutionai/ticket-triage/backend/internal/adapters/anthropic"
	"github.com/solutionai/ticket-triage/backend/internal/adapters/openai"
	"github.com/solutionai/ticket-triage/backend/internal/auth"
	"github.com/solutionai/ticket-triage/backend/internal/cache"
	"github.com/solutionai/ticket-triage/backend/internal/classifier"
	"github.com/solutionai/ticket-triage/backend/internal/config"
	"github.com/solutionai/ticket-triage/backend/internal/health"
	"github.com/solutionai/ticket-triage/backend/internal/limits"
	"github.com/solutionai/ticket-triage/backend/internal/observability"
	"github.com/solutionai/ticket-triage/backend/internal/quota"
	"github.com/solutionai/ticket-triage/backend/internal/store"
	"github.com/solutionai/ticket-triage/backend/internal/tickets"
)

// Container aggregates runtime dependencies for handlers and workers.
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	DBPool        *pgxpool.Pool
	Redis         *redis.Client
	Store         *store.Store
	Verifier      *auth.Verifier
	Ledger        *quota.Ledger
	Classifier    *classifier.Gateway
	Tickets       *tickets.Service
	Throttle      *limits.RateLimiter
	EventDedupe   *cache.EventDeduper
	HealthMon     *health.Monitor
	Observability *observability.Provider

	reportingLoc *time.Location
}

// NewContainer builds a dependency container from the provided primitives.
// The redis client may be nil; the throttle then fails open.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("db pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	locName := strings.TrimSpace(cfg.Reporting.Timezone)
	if locName == "" {
		locName = "UTC"
	}
	reportingLoc, err := time.LoadLocation(locName)
	if err != nil {
		return nil, fmt.Errorf("load reporting timezone: %w", err)
	}

	obsProvider, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	st := store.New(pool)
	verifier := auth.NewVerifier(st)
	ledger := quota.NewLedger(st, quota.Options{Location: reportingLoc})

	providers, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		logger.Warn("no classification providers configured, every ticket will receive the fallback result")
	}

	var observer classifier.Observer
	if obsProvider != nil {
		observer = obsProvider
	}
	gateway := classifier.NewGateway(classifier.Options{
		Providers:      providers,
		AttemptTimeout: cfg.Classifier.AttemptTimeout,
		Logger:         logger,
		Observer:       observer,
	})

	ticketSvc := tickets.NewService(tickets.Options{
		Verifier:   verifier,
		Ledger:     ledger,
		Classifier: gateway,
		Store:      st,
		Bounds: tickets.Bounds{
			MinChars: cfg.Tickets.MinTextChars,
			MaxChars: cfg.Tickets.MaxTextChars,
		},
		Logger: logger,
	})

	var throttle *limits.RateLimiter
	if cfg.Limits.Enabled {
		throttle = limits.NewRateLimiter(redisClient, cfg.Limits.RequestsPerMinute)
	}

	var checkers []health.Checker
	for _, p := range providers {
		if checker, ok := p.(health.Checker); ok {
			checkers = append(checkers, checker)
		}
	}
	monitor := health.NewMonitor(checkers, 0, 0)
	monitor.Start(ctx)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		DBPool:        pool,
		Redis:         redisClient,
		Store:         st,
		Verifier:      verifier,
		Ledger:        ledger,
		Classifier:    gateway,
		Tickets:       ticketSvc,
		Throttle:      throttle,
		EventDedupe:   cache.NewEventDeduper(redisClient, 24*time.Hour),
		HealthMon:     monitor,
		Observability: obsProvider,
		reportingLoc:  reportingLoc,
	}, nil
}

// buildProviders assembles the ordered failover chain: OpenAI first,
// Anthropic second. A provider with no API key is simply absent.
func buildProviders(cfg *config.Config) ([]classifier.Provider, error) {
	var providers []classifier.Provider

	if strings.TrimSpace(cfg.Providers.OpenAIKey) != "" {
		adapter, err := openai.New(openai.Options{
			APIKey:      cfg.Providers.OpenAIKey,
			Model:       cfg.Providers.OpenAIModel,
			BaseURL:     cfg.Providers.OpenAIBaseURL,
			MaxTokens:   cfg.Classifier.MaxTokens,
			Temperature: cfg.Classifier.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai provider: %w", err)
		}
		providers = append(providers, adapter)
	}

	if strings.TrimSpace(cfg.Providers.AnthropicKey) != "" {
		adapter, err := anthropic.New(anthropic.Options{
			APIKey:      cfg.Providers.AnthropicKey,
			Model:       cfg.Providers.AnthropicModel,
			BaseURL:     cfg.Providers.AnthropicURL,
			MaxTokens:   cfg.Classifier.MaxTokens,
			Temperature: cfg.Classifier.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("init anthropic provider: %w", err)
		}
		providers = append(providers, adapter)
	}

	return providers, nil
}

// ReportingLoc returns the configured reporting timezone (defaults to UTC).
func (c *Container) ReportingLoc() *time.Location {
	if c != nil && c.reportingLoc != nil {
		return c.reportingLoc
	}
	return time.UTC
}

// Shutdown flushes observability exporters. Pool and redis closes are owned
// by the caller that opened them.
func (c *Container) Shutdown(ctx context.Context) error {
	if c == nil || c.Observability == nil {
		return nil
	}
	return c.Observability.Shutdown(ctx)
}
