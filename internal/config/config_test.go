package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
websocket_url: "wss://example.invalid/ws"
default_imbalance_threshold: "5"
default_absorption_threshold: "1"
default_delta_threshold: "1000"
default_lookback_period_ms: 60000
analysis_duration_limit_ms: 10000
analysis_duration_per_cycle_ms: 5000
trade_storage_limit: 500
strong_signal_confidence: "0.9"
reversal_signal_confidence: "0.6"
exhaustion_signal_confidence: "0.5"
market_condition_adaptation: false
max_concurrent_websocket_connections: 10

# credentials must NOT be honored even if present here
api_key: "should-not-be-used"
secret_key: "should-not-be-used"
passphrase: "should-not-be-used"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_CredentialsComeOnlyFromEnv(t *testing.T) {
	path := writeConfig(t, validYAML)

	t.Setenv(envAPIKey, "env-api-key")
	t.Setenv(envSecretKey, "env-secret-key")
	t.Setenv(envPassphrase, "env-passphrase")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-api-key", cfg.APIKey)
	assert.Equal(t, "env-secret-key", cfg.SecretKey)
	assert.Equal(t, "env-passphrase", cfg.Passphrase)
}

func TestLoad_CredentialsEmptyWhenEnvUnset(t *testing.T) {
	path := writeConfig(t, validYAML)

	t.Setenv(envAPIKey, "")
	t.Setenv(envSecretKey, "")
	t.Setenv(envPassphrase, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.SecretKey)
	assert.Empty(t, cfg.Passphrase)
}

func TestLoad_MissingRequiredFieldFails(t *testing.T) {
	path := writeConfig(t, `websocket_url: "wss://example.invalid/ws"`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsOutOfRangeConfidence(t *testing.T) {
	bad := validYAML + "\nstrong_signal_confidence: \"1.5\"\n"
	path := writeConfig(t, bad)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_DefaultsMaxConnectionsWhenOmitted(t *testing.T) {
	without := `
websocket_url: "wss://example.invalid/ws"
default_imbalance_threshold: "5"
default_absorption_threshold: "1"
default_delta_threshold: "1000"
default_lookback_period_ms: 60000
analysis_duration_limit_ms: 10000
analysis_duration_per_cycle_ms: 5000
trade_storage_limit: 500
strong_signal_confidence: "0.9"
reversal_signal_confidence: "0.6"
exhaustion_signal_confidence: "0.5"
market_condition_adaptation: false
`
	path := writeConfig(t, without)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxConcurrentWebsocketConnections, cfg.MaxConcurrentWebsocketConnections)
}
