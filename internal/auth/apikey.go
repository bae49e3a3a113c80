package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	apiKeyPrefixLength = 10
	apiKeySecretLength = 48
	apiKeyTokenPrefix  = "tk-"
	alphabet           = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateAPIKey returns the random prefix, secret, and encoded token for a
// new API key. Only the prefix and a hash of the secret are stored; the full
// token is shown to the customer once.
func GenerateAPIKey() (string, string, string, error) {
	prefix, err := randomString(apiKeyPrefixLength)
	if err != nil {
		return "", "", "", err
	}
	secret, err := randomString(apiKeySecretLength)
	if err != nil {
		return "", "", "", err
	}
	token := fmt.Sprintf("%s%s.%s", apiKeyTokenPrefix, prefix, secret)
	return prefix, secret, token, nil
}

// SplitToken breaks a presented token into its prefix and secret parts.
func SplitToken(token string) (string, string, error) {
	if token == "" {
		return "", "", errors.New("api key required")
	}

	withoutPrefix := strings.TrimPrefix(token, apiKeyTokenPrefix)
	if withoutPrefix == token {
		return "", "", fmt.Errorf("api key must start with %s", apiKeyTokenPrefix)
	}

	parts := strings.SplitN(withoutPrefix, ".", 2)
	if len(parts) != 2 {
		return "", "", errors.New("api key format invalid")
	}

	prefix := parts[0]
	secret := strings.TrimSpace(parts[1])
	if prefix == "" || secret == "" {
		return "", "", errors.New("api key format invalid")
	}

	return prefix, secret, nil
}

func randomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
