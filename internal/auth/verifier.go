package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/solutionai/ticket-triage/backend/internal/store"
)

// ErrInvalidAPIKey covers malformed tokens, unknown prefixes, revoked keys,
// and secret mismatches. Callers never learn which case applied.
var ErrInvalidAPIKey = errors.New("auth: invalid api key")

// KeyStore is the lookup surface the verifier needs.
type KeyStore interface {
	GetAPIKeyByPrefix(ctx context.Context, prefix string) (store.APIKey, error)
}

// Verifier authenticates presented API key tokens against stored hashes.
type Verifier struct {
	keys KeyStore
}

func NewVerifier(keys KeyStore) *Verifier {
	return &Verifier{keys: keys}
}

// Verify resolves the token to its key record. The secret is checked against
// the stored argon2id hash; inactive and revoked keys are rejected.
func (v *Verifier) Verify(ctx context.Context, token string) (store.APIKey, error) {
	prefix, secret, err := SplitToken(token)
	if err != nil {
		return store.APIKey{}, ErrInvalidAPIKey
	}

	record, err := v.keys.GetAPIKeyByPrefix(ctx, prefix)
	if errors.Is(err, store.ErrNotFound) {
		return store.APIKey{}, ErrInvalidAPIKey
	}
	if err != nil {
		return store.APIKey{}, fmt.Errorf("api key lookup: %w", err)
	}

	if !record.Active || record.RevokedAt != nil || record.SecretHash == "" {
		return store.APIKey{}, ErrInvalidAPIKey
	}

	match, err := VerifySecret(secret, record.SecretHash)
	if err != nil {
		return store.APIKey{}, fmt.Errorf("api key verification: %w", err)
	}
	if !match {
		return store.APIKey{}, ErrInvalidAPIKey
	}
	return record, nil
}
