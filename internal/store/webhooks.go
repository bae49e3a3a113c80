package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WebhookLog records one inbound webhook delivery and how it was handled.
type WebhookLog struct {
	ID        uuid.UUID
	Provider  string
	EventType string
	Status    string
	Detail    string
	CreatedAt time.Time
}

// InsertWebhookLog appends a webhook delivery record.
func (s *Store) InsertWebhookLog(ctx context.Context, provider, eventType, status, detail string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO webhook_logs (provider, event_type, status, detail)
		VALUES ($1, $2, $3, $4)`,
		provider, eventType, status, detail)
	if err != nil {
		return fmt.Errorf("insert webhook log: %w", err)
	}
	return nil
}

// ListWebhookLogs returns recent webhook deliveries, newest first.
func (s *Store) ListWebhookLogs(ctx context.Context, limit, offset int32) ([]WebhookLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, provider, event_type, status, detail, created_at
		FROM webhook_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []WebhookLog
	for rows.Next() {
		var l WebhookLog
		if err := rows.Scan(&l.ID, &l.Provider, &l.EventType, &l.Status, &l.Detail, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteWebhookLogsBefore removes delivery records created before the cutoff
// and reports how many rows were deleted.
func (s *Store) DeleteWebhookLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM webhook_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old webhook logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
