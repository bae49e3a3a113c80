package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Ticket mirrors a row of the tickets table.
type Ticket struct {
	ID           uuid.UUID
	APIKeyID     uuid.UUID
	TicketText   string
	Label        string
	Confidence   float64
	Summary      string
	Provider     string
	Source       string
	ProcessingMS int64
	CreatedAt    time.Time
}

// InsertTicketParams carries a classified ticket ready for persistence.
type InsertTicketParams struct {
	APIKeyID     uuid.UUID
	TicketText   string
	Label        string
	Confidence   float64
	Summary      string
	Provider     string
	Source       string
	ProcessingMS int64
}

const ticketColumns = `id, api_key_id, ticket_text, label, confidence, summary,
	provider, source, processing_ms, created_at`

func scanTicket(row pgx.Row) (Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.APIKeyID, &t.TicketText, &t.Label, &t.Confidence,
		&t.Summary, &t.Provider, &t.Source, &t.ProcessingMS, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, ErrNotFound
	}
	if err != nil {
		return Ticket{}, fmt.Errorf("scan ticket: %w", err)
	}
	return t, nil
}

// InsertTicket persists a classified ticket and returns the stored row.
func (s *Store) InsertTicket(ctx context.Context, params InsertTicketParams) (Ticket, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tickets (api_key_id, ticket_text, label, confidence, summary, provider, source, processing_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+ticketColumns,
		params.APIKeyID, params.TicketText, params.Label, params.Confidence,
		params.Summary, params.Provider, params.Source, params.ProcessingMS)
	return scanTicket(row)
}

// RecentTickets returns the newest tickets for a key.
func (s *Store) RecentTickets(ctx context.Context, keyID uuid.UUID, limit int32) ([]Ticket, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE api_key_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, keyID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

// ListTickets returns tickets across all keys, newest first.
func (s *Store) ListTickets(ctx context.Context, limit, offset int32) ([]Ticket, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]Ticket, error) {
	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// TicketStats aggregates classification results for one key, or for all
// keys when keyID is nil.
type TicketStats struct {
	Total             int64
	AvgConfidence     float64
	AvgProcessingMS   float64
	LabelDistribution map[string]int64
}

// StatsForKey computes aggregate stats scoped to a single key.
func (s *Store) StatsForKey(ctx context.Context, keyID uuid.UUID) (TicketStats, error) {
	return s.stats(ctx, &keyID)
}

// GlobalStats computes aggregate stats across every key.
func (s *Store) GlobalStats(ctx context.Context) (TicketStats, error) {
	return s.stats(ctx, nil)
}

func (s *Store) stats(ctx context.Context, keyID *uuid.UUID) (TicketStats, error) {
	stats := TicketStats{LabelDistribution: map[string]int64{}}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(confidence), 0),
		       COALESCE(AVG(processing_ms), 0)
		FROM tickets
		WHERE $1::uuid IS NULL OR api_key_id = $1`, keyID).
		Scan(&stats.Total, &stats.AvgConfidence, &stats.AvgProcessingMS)
	if err != nil {
		return TicketStats{}, fmt.Errorf("ticket stats: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT label, COUNT(*)
		FROM tickets
		WHERE $1::uuid IS NULL OR api_key_id = $1
		GROUP BY label`, keyID)
	if err != nil {
		return TicketStats{}, fmt.Errorf("label distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return TicketStats{}, fmt.Errorf("scan label distribution: %w", err)
		}
		stats.LabelDistribution[label] = count
	}
	return stats, rows.Err()
}

// DeleteTicketsBefore removes tickets created before the cutoff and reports
// how many rows were deleted.
func (s *Store) DeleteTicketsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tickets WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old tickets: %w", err)
	}
	return tag.RowsAffected(), nil
}
