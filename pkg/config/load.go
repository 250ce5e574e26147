package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QUOTA_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention QUOTA_SECTION_FIELD (e.g., QUOTA_SERVER_LISTEN_ADDRESS); billing
// price ids are also read from STRIPE_STARTER_PRICE_ID, STRIPE_PRO_PRICE_ID and
// STRIPE_AGENCY_PRICE_ID.
//
// Before overrides are applied, .env.local and .env next to the configuration
// file are loaded into the environment. Variables already set are kept.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Load .env files
// 4. Apply environment variable overrides
// 5. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := LoadDotEnv(filepath.Dir(path)); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads .env.local and then .env from dir. Missing files are
// skipped; a file that exists but cannot be parsed is an error.
func LoadDotEnv(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format QUOTA_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envBool("SERVER_THROTTLE_ENABLED", &cfg.Server.Throttle.Enabled)
	envFloat("SERVER_THROTTLE_REQUESTS_PER_SECOND", &cfg.Server.Throttle.RequestsPerSecond)
	envInt("SERVER_THROTTLE_BURST", &cfg.Server.Throttle.Burst)

	// Auth overrides
	envBool("AUTH_ALLOW_ANONYMOUS", &cfg.Auth.AllowAnonymous)
	envString("AUTH_JWT_SECRET", &cfg.Auth.JWT.Secret)
	envString("AUTH_JWT_ISSUER", &cfg.Auth.JWT.Issuer)

	// Limiter overrides
	envDuration("LIMITER_DEFAULT_INTERVAL", &cfg.Limiter.Default.Interval)
	envInt("LIMITER_DEFAULT_LIMIT", &cfg.Limiter.Default.Limit)
	envInt("LIMITER_SHARDS", &cfg.Limiter.Shards)
	envInt("LIMITER_MAX_BUCKETS", &cfg.Limiter.MaxBuckets)
	envString("LIMITER_SWEEP_SCHEDULE", &cfg.Limiter.SweepSchedule)

	// Usage overrides
	envString("USAGE_PERIOD", &cfg.Usage.Period)
	envString("USAGE_BACKEND", &cfg.Usage.Backend)
	envString("USAGE_CLEANUP_SCHEDULE", &cfg.Usage.CleanupSchedule)
	envString("USAGE_SQLITE_PATH", &cfg.Usage.SQLite.Path)
	envString("USAGE_SQLITE_DRIVER", &cfg.Usage.SQLite.Driver)
	envString("USAGE_REDIS_ADDR", &cfg.Usage.Redis.Addr)
	envString("USAGE_REDIS_PASSWORD", &cfg.Usage.Redis.Password)
	envInt("USAGE_REDIS_DB", &cfg.Usage.Redis.DB)
	envString("USAGE_REDIS_KEY_PREFIX", &cfg.Usage.Redis.KeyPrefix)

	// Billing overrides, including the unprefixed names the billing
	// provider's tooling exports.
	rawString("STRIPE_STARTER_PRICE_ID", &cfg.Billing.StarterPriceID)
	rawString("STRIPE_PRO_PRICE_ID", &cfg.Billing.ProPriceID)
	rawString("STRIPE_AGENCY_PRICE_ID", &cfg.Billing.AgencyPriceID)
	envString("BILLING_STARTER_PRICE_ID", &cfg.Billing.StarterPriceID)
	envString("BILLING_PRO_PRICE_ID", &cfg.Billing.ProPriceID)
	envString("BILLING_AGENCY_PRICE_ID", &cfg.Billing.AgencyPriceID)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBoolPtr("TELEMETRY_LOGGING_REDACT_PII", &cfg.Telemetry.Logging.RedactPII)
	envBoolPtr("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func rawString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

func envString(name string, dst *string) {
	rawString(EnvPrefix+name, dst)
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envBoolPtr(name string, dst **bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = &b
		}
	}
}
