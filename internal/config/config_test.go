package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TRIAGE_DATABASE_URL", "postgres://localhost:5432/triage")
	t.Setenv("TRIAGE_ADMIN_API_KEY", "op-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.ListenAddr)
	require.Equal(t, 100, cfg.Quota.DefaultDailyLimit)
	require.False(t, cfg.Limits.Enabled)
	require.Equal(t, 10, cfg.Limits.RequestsPerMinute)
	require.Equal(t, "gpt-4o-mini", cfg.Providers.OpenAIModel)
	require.Equal(t, "claude-3-5-haiku-latest", cfg.Providers.AnthropicModel)
	require.Equal(t, 10*time.Second, cfg.Classifier.AttemptTimeout)
	require.Equal(t, 200, cfg.Classifier.MaxTokens)
	require.InDelta(t, 0.1, cfg.Classifier.Temperature, 1e-9)
	require.Equal(t, 10, cfg.Tickets.MinTextChars)
	require.Equal(t, 10000, cfg.Tickets.MaxTextChars)
	require.Equal(t, 90, cfg.Retention.TicketDays)
	require.Equal(t, "UTC", cfg.Reporting.Timezone)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("TRIAGE_DATABASE_URL", "")
	t.Setenv("TRIAGE_ADMIN_API_KEY", "")

	_, err := Load(Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "TRIAGE_DATABASE_URL")
	require.Contains(t, err.Error(), "TRIAGE_ADMIN_API_KEY")
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRIAGE_SERVER_LISTEN_ADDR", ":9090")
	t.Setenv("TRIAGE_CLASSIFIER_ATTEMPT_TIMEOUT", "3s")
	t.Setenv("TRIAGE_REPORTING_TIMEZONE", "America/Los_Angeles")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.ListenAddr)
	require.Equal(t, 3*time.Second, cfg.Classifier.AttemptTimeout)
	require.Equal(t, "America/Los_Angeles", cfg.Reporting.Timezone)
}

func TestValidateBounds(t *testing.T) {
	setRequiredEnv(t)

	base, err := Load(Options{})
	require.NoError(t, err)

	broken := *base
	broken.Tickets.MaxTextChars = broken.Tickets.MinTextChars
	require.Error(t, broken.Validate())

	broken = *base
	broken.Quota.DefaultDailyLimit = 0
	require.Error(t, broken.Validate())

	broken = *base
	broken.Reporting.Timezone = "Not/AZone"
	require.Error(t, broken.Validate())

	broken = *base
	broken.Limits.Enabled = true
	broken.Redis.URL = ""
	require.Error(t, broken.Validate())
}
