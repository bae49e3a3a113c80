package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/solutionai/ticket-triage/backend/internal/store"
)

func TestGenerateAPIKeyRoundTrip(t *testing.T) {
	prefix, secret, token, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(prefix) != apiKeyPrefixLength || len(secret) != apiKeySecretLength {
		t.Fatalf("unexpected lengths prefix=%d secret=%d", len(prefix), len(secret))
	}

	gotPrefix, gotSecret, err := SplitToken(token)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if gotPrefix != prefix || gotSecret != secret {
		t.Fatalf("round trip mismatch")
	}
}

func TestSplitTokenRejectsMalformed(t *testing.T) {
	cases := []string{"", "abc.def", "tk-", "tk-prefixonly", "tk-.secret", "tk-prefix.", "sk-prefix.secret"}
	for _, token := range cases {
		if _, _, err := SplitToken(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}

func TestHashAndVerifySecret(t *testing.T) {
	encoded, err := HashSecret("s3cret-value")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	match, err := VerifySecret("s3cret-value", encoded)
	if err != nil || !match {
		t.Fatalf("expected match, got match=%v err=%v", match, err)
	}

	match, err = VerifySecret("wrong", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if match {
		t.Fatalf("wrong secret must not match")
	}
}

type stubKeyStore struct {
	key store.APIKey
	err error
}

func (s *stubKeyStore) GetAPIKeyByPrefix(_ context.Context, prefix string) (store.APIKey, error) {
	if s.err != nil {
		return store.APIKey{}, s.err
	}
	if prefix != s.key.KeyPrefix {
		return store.APIKey{}, store.ErrNotFound
	}
	return s.key, nil
}

func TestVerify(t *testing.T) {
	prefix, secret, token, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	hash, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	keys := &stubKeyStore{key: store.APIKey{KeyPrefix: prefix, SecretHash: hash, Active: true}}
	verifier := NewVerifier(keys)

	record, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if record.KeyPrefix != prefix {
		t.Fatalf("unexpected record %+v", record)
	}

	if _, err := verifier.Verify(context.Background(), "bogus"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey for malformed token, got %v", err)
	}
	if _, err := verifier.Verify(context.Background(), "tk-unknownpref.notasecret"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey for unknown prefix, got %v", err)
	}

	keys.key.Active = false
	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey for inactive key, got %v", err)
	}
}
