// Package tickets orchestrates the triage pipeline: authenticate the key,
// consume quota, classify, persist.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/solutionai/ticket-triage/backend/internal/auth"
	"github.com/solutionai/ticket-triage/backend/internal/classifier"
	"github.com/solutionai/ticket-triage/backend/internal/quota"
	"github.com/solutionai/ticket-triage/backend/internal/store"
)

var (
	// ErrInvalidKey is surfaced when the presented API key cannot be used.
	ErrInvalidKey = errors.New("tickets: invalid api key")
	// ErrRateLimitExceeded is surfaced when the key's daily quota is spent.
	ErrRateLimitExceeded = errors.New("tickets: rate limit exceeded")
	// ErrTextTooShort and ErrTextTooLong report input bound violations.
	ErrTextTooShort = errors.New("tickets: ticket text too short")
	ErrTextTooLong  = errors.New("tickets: ticket text too long")
	// ErrPersist means classification succeeded but the record was not
	// durably stored. The ticket is lost; the caller must be told.
	ErrPersist = errors.New("tickets: failed to persist ticket")
)

// Sources recorded on stored tickets.
const (
	SourceAPI     = "api"
	SourceWebhook = "webhook"
)

// Verifier authenticates raw API key tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (store.APIKey, error)
}

// Admitter consumes one unit of a key's daily quota.
type Admitter interface {
	Admit(ctx context.Context, keyID uuid.UUID) error
}

// Classifier produces a classification result. It must not fail.
type Classifier interface {
	Classify(ctx context.Context, text string) classifier.Result
}

// TicketStore is the persistence surface the service needs.
type TicketStore interface {
	InsertTicket(ctx context.Context, params store.InsertTicketParams) (store.Ticket, error)
	RecentTickets(ctx context.Context, keyID uuid.UUID, limit int32) ([]store.Ticket, error)
	ListTickets(ctx context.Context, limit, offset int32) ([]store.Ticket, error)
	StatsForKey(ctx context.Context, keyID uuid.UUID) (store.TicketStats, error)
	GlobalStats(ctx context.Context) (store.TicketStats, error)
	DeleteTicketsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteWebhookLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Bounds are the accepted ticket text limits in characters.
type Bounds struct {
	MinChars int
	MaxChars int
}

// Options wires the service dependencies explicitly.
type Options struct {
	Verifier   Verifier
	Ledger     Admitter
	Classifier Classifier
	Store      TicketStore
	Bounds     Bounds
	Logger     *slog.Logger
}

// Service implements the triage pipeline.
type Service struct {
	verifier   Verifier
	ledger     Admitter
	classifier Classifier
	store      TicketStore
	bounds     Bounds
	logger     *slog.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bounds := opts.Bounds
	if bounds.MinChars <= 0 {
		bounds.MinChars = 10
	}
	if bounds.MaxChars <= bounds.MinChars {
		bounds.MaxChars = 10000
	}
	return &Service{
		verifier:   opts.Verifier,
		ledger:     opts.Ledger,
		classifier: opts.Classifier,
		store:      opts.Store,
		bounds:     bounds,
		logger:     logger,
	}
}

// ProcessRequest is one triage submission.
type ProcessRequest struct {
	Text   string
	Token  string
	Source string
}

// Process validates the input, admits the key against its quota, classifies
// the text, and persists the result. Quota is consumed at admission and is
// not refunded if a later step fails. Denied admissions never reach the
// classifier or the store.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (store.Ticket, error) {
	if err := s.validateText(req.Text); err != nil {
		return store.Ticket{}, err
	}

	key, err := s.verifier.Verify(ctx, req.Token)
	if err != nil {
		return store.Ticket{}, mapAuthErr(err)
	}

	if err := s.ledger.Admit(ctx, key.ID); err != nil {
		return store.Ticket{}, mapAdmitErr(err)
	}

	result := s.classifier.Classify(ctx, req.Text)

	source := req.Source
	if source == "" {
		source = SourceAPI
	}
	ticket, err := s.store.InsertTicket(ctx, store.InsertTicketParams{
		APIKeyID:     key.ID,
		TicketText:   req.Text,
		Label:        result.Label,
		Confidence:   result.Confidence,
		Summary:      result.Summary,
		Provider:     result.Provider,
		Source:       source,
		ProcessingMS: result.Latency.Milliseconds(),
	})
	if err != nil {
		s.logger.Error("ticket persistence failed",
			slog.String("api_key_id", key.ID.String()),
			slog.String("error", err.Error()))
		return store.Ticket{}, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return ticket, nil
}

func (s *Service) validateText(text string) error {
	n := utf8.RuneCountInString(text)
	if n < s.bounds.MinChars {
		return ErrTextTooShort
	}
	if n > s.bounds.MaxChars {
		return ErrTextTooLong
	}
	return nil
}

// Recent returns the newest tickets for the key.
func (s *Service) Recent(ctx context.Context, keyID uuid.UUID, limit int32) ([]store.Ticket, error) {
	return s.store.RecentTickets(ctx, keyID, limit)
}

// StatsFor aggregates classification results scoped to the key.
func (s *Service) StatsFor(ctx context.Context, keyID uuid.UUID) (store.TicketStats, error) {
	return s.store.StatsForKey(ctx, keyID)
}

// GlobalStats aggregates across all keys.
func (s *Service) GlobalStats(ctx context.Context) (store.TicketStats, error) {
	return s.store.GlobalStats(ctx)
}

// ListAll returns tickets across keys, newest first.
func (s *Service) ListAll(ctx context.Context, limit, offset int32) ([]store.Ticket, error) {
	return s.store.ListTickets(ctx, limit, offset)
}

// DeleteOlderThan removes tickets created before the cutoff.
func (s *Service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.store.DeleteTicketsBefore(ctx, cutoff)
}

// PruneWebhookLogs removes webhook delivery records created before the
// cutoff. Deliveries are logged on every inbound webhook, so the table needs
// the same retention treatment as tickets.
func (s *Service) PruneWebhookLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.store.DeleteWebhookLogsBefore(ctx, cutoff)
}

func mapAuthErr(err error) error {
	// Lookup infrastructure failures surface as-is; rejected credentials
	// collapse into the one outward invalid-key error.
	if errors.Is(err, auth.ErrInvalidAPIKey) {
		return ErrInvalidKey
	}
	return err
}

func mapAdmitErr(err error) error {
	switch {
	case errors.Is(err, quota.ErrUnknownKey):
		return ErrInvalidKey
	case errors.Is(err, quota.ErrQuotaExceeded):
		return ErrRateLimitExceeded
	default:
		return err
	}
}
