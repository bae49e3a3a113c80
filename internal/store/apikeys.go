package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// APIKey mirrors a row of the api_keys table.
type APIKey struct {
	ID            uuid.UUID
	KeyPrefix     string
	SecretHash    string
	CustomerID    string
	Name          string
	DailyLimit    int32
	RequestsToday int32
	LastReset     time.Time
	Active        bool
	CreatedAt     time.Time
	RevokedAt     *time.Time
}

// CreateAPIKeyParams carries the fields needed to provision a key.
type CreateAPIKeyParams struct {
	KeyPrefix  string
	SecretHash string
	CustomerID string
	Name       string
	DailyLimit int32
}

const apiKeyColumns = `id, key_prefix, secret_hash, customer_id, name, daily_limit,
	requests_today, last_reset, active, created_at, revoked_at`

func scanAPIKey(row pgx.Row) (APIKey, error) {
	var k APIKey
	err := row.Scan(&k.ID, &k.KeyPrefix, &k.SecretHash, &k.CustomerID, &k.Name,
		&k.DailyLimit, &k.RequestsToday, &k.LastReset, &k.Active, &k.CreatedAt, &k.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrNotFound
	}
	if err != nil {
		return APIKey{}, fmt.Errorf("scan api key: %w", err)
	}
	return k, nil
}

// CreateAPIKey inserts a new key row and returns it.
func (s *Store) CreateAPIKey(ctx context.Context, params CreateAPIKeyParams) (APIKey, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO api_keys (key_prefix, secret_hash, customer_id, name, daily_limit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+apiKeyColumns,
		params.KeyPrefix, params.SecretHash, params.CustomerID, params.Name, params.DailyLimit)
	return scanAPIKey(row)
}

// GetAPIKeyByPrefix looks a key up by its public prefix.
func (s *Store) GetAPIKeyByPrefix(ctx context.Context, prefix string) (APIKey, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE key_prefix = $1`, prefix)
	return scanAPIKey(row)
}

// GetAPIKeyByID fetches a single key row.
func (s *Store) GetAPIKeyByID(ctx context.Context, id uuid.UUID) (APIKey, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE id = $1`, id)
	return scanAPIKey(row)
}

// GetAPIKeyByCustomer returns the most recent active key for a customer.
func (s *Store) GetAPIKeyByCustomer(ctx context.Context, customerID string) (APIKey, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE customer_id = $1 AND active AND revoked_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`, customerID)
	return scanAPIKey(row)
}

// ListAPIKeys returns keys ordered by creation time, newest first.
func (s *Store) ListAPIKeys(ctx context.Context, limit, offset int32) ([]APIKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RevokeAPIKey deactivates a key. Revoked keys fail authentication and quota admission.
func (s *Store) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE api_keys
		SET active = FALSE, revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeDaily performs the ledger's reset-check-increment as a single
// conditional UPDATE so concurrent admissions cannot exceed the limit.
// A day earlier than the stored last_reset never rewinds the counter.
func (s *Store) ConsumeDaily(ctx context.Context, id uuid.UUID, day time.Time) (QuotaOutcome, error) {
	var requestsToday, dailyLimit int32
	err := s.pool.QueryRow(ctx, `
		UPDATE api_keys
		SET requests_today = CASE WHEN last_reset < $2 THEN 1 ELSE requests_today + 1 END,
		    last_reset     = CASE WHEN last_reset < $2 THEN $2::date ELSE last_reset END
		WHERE id = $1
		  AND active
		  AND revoked_at IS NULL
		  AND (last_reset < $2 OR requests_today < daily_limit)
		RETURNING requests_today, daily_limit`,
		id, day).Scan(&requestsToday, &dailyLimit)
	if err == nil {
		return QuotaAdmitted, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return QuotaUnknown, fmt.Errorf("consume daily quota: %w", err)
	}

	// No row updated: either the key does not exist (or is revoked) or the
	// counter is exhausted for the day. Distinguish with a follow-up read.
	key, lookupErr := s.GetAPIKeyByID(ctx, id)
	if errors.Is(lookupErr, ErrNotFound) {
		return QuotaUnknown, nil
	}
	if lookupErr != nil {
		return QuotaUnknown, lookupErr
	}
	if !key.Active || key.RevokedAt != nil {
		return QuotaUnknown, nil
	}
	return QuotaDenied, nil
}

// QuotaOutcome reports the result of a daily quota consumption attempt.
type QuotaOutcome int

const (
	QuotaUnknown QuotaOutcome = iota
	QuotaAdmitted
	QuotaDenied
)
