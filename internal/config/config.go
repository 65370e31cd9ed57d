// Package config loads the pipeline's configuration via Viper, validates
// every required field, and enforces that credentials are sourced only
// from the environment — never from the config file — mirroring the
// original's from_toml_file, which loads [ofi]/[strategy] from TOML and
// only then overrides api_key/secret_key/passphrase from
// BITGET_API_KEY/BITGET_SECRET_KEY/BITGET_PASSPHRASE.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/ofisentinel/sentinel/internal/errs"
)

// Config is the fully validated configuration for one pipeline instance.
type Config struct {
	WebsocketURL string

	DefaultImbalanceThreshold  decimal.Decimal
	DefaultAbsorptionThreshold decimal.Decimal
	DefaultDeltaThreshold      decimal.Decimal
	DefaultLookbackPeriodMS    int64

	AnalysisDurationLimitMS    int64
	AnalysisDurationPerCycleMS int64

	TradeStorageLimit int

	StrongSignalConfidence     decimal.Decimal
	ReversalSignalConfidence   decimal.Decimal
	ExhaustionSignalConfidence decimal.Decimal

	MarketConditionAdaptation bool

	MaxConcurrentWebsocketConnections int

	// APIKey, SecretKey, and Passphrase are populated exclusively from
	// environment variables in Load, never registered as Viper keys, and
	// never read from the config file.
	APIKey     string
	SecretKey  string
	Passphrase string
}

const (
	envAPIKey     = "OFI_API_KEY"
	envSecretKey  = "OFI_SECRET_KEY"
	envPassphrase = "OFI_PASSPHRASE"

	defaultMaxConcurrentWebsocketConnections = 20
	maxLookbackPeriodMS                      = 300000
)

// Load reads configuration from the given file path (any format Viper
// supports — YAML, TOML, JSON) plus environment overrides for credentials,
// and validates every required field.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("max_concurrent_websocket_connections", defaultMaxConcurrentWebsocketConnections)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading config file %q: %v", errs.ErrConfig, path, err)
	}

	cfg := &Config{
		WebsocketURL: v.GetString("websocket_url"),

		AnalysisDurationLimitMS:    v.GetInt64("analysis_duration_limit_ms"),
		AnalysisDurationPerCycleMS: v.GetInt64("analysis_duration_per_cycle_ms"),
		DefaultLookbackPeriodMS:    v.GetInt64("default_lookback_period_ms"),

		TradeStorageLimit: v.GetInt("trade_storage_limit"),

		MarketConditionAdaptation: v.GetBool("market_condition_adaptation"),

		MaxConcurrentWebsocketConnections: v.GetInt("max_concurrent_websocket_connections"),
	}

	var err error
	if cfg.DefaultImbalanceThreshold, err = decimalField(v, "default_imbalance_threshold"); err != nil {
		return nil, err
	}
	if cfg.DefaultAbsorptionThreshold, err = decimalField(v, "default_absorption_threshold"); err != nil {
		return nil, err
	}
	if cfg.DefaultDeltaThreshold, err = decimalField(v, "default_delta_threshold"); err != nil {
		return nil, err
	}
	if cfg.StrongSignalConfidence, err = decimalField(v, "strong_signal_confidence"); err != nil {
		return nil, err
	}
	if cfg.ReversalSignalConfidence, err = decimalField(v, "reversal_signal_confidence"); err != nil {
		return nil, err
	}
	if cfg.ExhaustionSignalConfidence, err = decimalField(v, "exhaustion_signal_confidence"); err != nil {
		return nil, err
	}

	cfg.APIKey = os.Getenv(envAPIKey)
	cfg.SecretKey = os.Getenv(envSecretKey)
	cfg.Passphrase = os.Getenv(envPassphrase)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decimalField(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := v.GetString(key)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: missing required field %q", errs.ErrConfig, key)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: field %q is not numeric: %v", errs.ErrConfig, key, err)
	}
	return d, nil
}

func (c *Config) validate() error {
	if c.WebsocketURL == "" {
		return fmt.Errorf("%w: websocket_url is required", errs.ErrConfig)
	}
	if !c.DefaultImbalanceThreshold.IsPositive() {
		return fmt.Errorf("%w: default_imbalance_threshold must be > 0", errs.ErrConfig)
	}
	if c.DefaultAbsorptionThreshold.IsNegative() {
		return fmt.Errorf("%w: default_absorption_threshold must be >= 0", errs.ErrConfig)
	}
	if !c.DefaultDeltaThreshold.IsPositive() {
		return fmt.Errorf("%w: default_delta_threshold must be > 0", errs.ErrConfig)
	}
	if c.DefaultLookbackPeriodMS <= 0 || c.DefaultLookbackPeriodMS > maxLookbackPeriodMS {
		return fmt.Errorf("%w: default_lookback_period_ms must be in (0, %d]", errs.ErrConfig, maxLookbackPeriodMS)
	}
	if c.AnalysisDurationLimitMS <= 0 {
		return fmt.Errorf("%w: analysis_duration_limit_ms must be > 0", errs.ErrConfig)
	}
	if c.AnalysisDurationPerCycleMS <= 0 || c.AnalysisDurationPerCycleMS > c.AnalysisDurationLimitMS {
		return fmt.Errorf("%w: analysis_duration_per_cycle_ms must be in (0, analysis_duration_limit_ms]", errs.ErrConfig)
	}
	if c.TradeStorageLimit <= 0 {
		return fmt.Errorf("%w: trade_storage_limit must be > 0", errs.ErrConfig)
	}
	for _, f := range []struct {
		name string
		val  decimal.Decimal
	}{
		{"strong_signal_confidence", c.StrongSignalConfidence},
		{"reversal_signal_confidence", c.ReversalSignalConfidence},
		{"exhaustion_signal_confidence", c.ExhaustionSignalConfidence},
	} {
		if !f.val.IsPositive() || f.val.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s must be in (0,1]", errs.ErrConfig, f.name)
		}
	}
	if c.MaxConcurrentWebsocketConnections <= 0 {
		return fmt.Errorf("%w: max_concurrent_websocket_connections must be > 0", errs.ErrConfig)
	}
	return nil
}

// MarketConditionMultiplier returns the pinned multiplier. Even when
// market_condition_adaptation is true, no adaptive logic is implemented
// yet, so this stays a constant extension point rather than an invented
// adjustment.
func (c *Config) MarketConditionMultiplier() decimal.Decimal {
	return decimal.NewFromInt(1)
}
