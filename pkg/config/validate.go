package config

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"

	"postplanner-hq/quota/pkg/limits/storage"
	"postplanner-hq/quota/pkg/limits/tier"
	"postplanner-hq/quota/pkg/limits/usage"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateLimiter(&cfg.Limiter)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must not be negative"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must not be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must not be negative"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "max header bytes must not be negative"})
	}

	if cfg.Throttle.Enabled {
		if cfg.Throttle.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{Field: "server.throttle.requests_per_second", Message: "must be positive when throttling is enabled"})
		}
		if cfg.Throttle.Burst <= 0 {
			errs = append(errs, FieldError{Field: "server.throttle.burst", Message: "must be positive when throttling is enabled"})
		}
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{Field: "server.tls.cert_file", Message: "cert file is required when TLS is enabled"})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{Field: "server.tls.key_file", Message: "key file is required when TLS is enabled"})
		}
		if cfg.TLS.MinVersion != "1.2" && cfg.TLS.MinVersion != "1.3" {
			errs = append(errs, FieldError{
				Field:   "server.tls.min_version",
				Message: fmt.Sprintf("unsupported TLS version %q (must be 1.2 or 1.3)", cfg.TLS.MinVersion),
			})
		}
		if cfg.TLS.ReloadInterval <= 0 {
			errs = append(errs, FieldError{Field: "server.tls.reload_interval", Message: "reload interval must be positive"})
		}
	}

	return errs
}

func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	for i, src := range cfg.Sources {
		field := fmt.Sprintf("auth.sources[%d]", i)
		if src.Type != "header" && src.Type != "query" {
			errs = append(errs, FieldError{Field: field + ".type", Message: fmt.Sprintf("invalid source type %q (must be header or query)", src.Type)})
		}
		if src.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "source name is required"})
		}
	}

	seen := make(map[string]bool, len(cfg.Keys))
	for i, k := range cfg.Keys {
		field := fmt.Sprintf("auth.keys[%d]", i)
		if k.Key == "" {
			errs = append(errs, FieldError{Field: field + ".key", Message: "key is required"})
		} else if seen[k.Key] {
			errs = append(errs, FieldError{Field: field + ".key", Message: "duplicate key"})
		}
		seen[k.Key] = true

		if k.UserID == "" {
			errs = append(errs, FieldError{Field: field + ".user_id", Message: "user id is required"})
		}
		if _, err := tier.ParseTier(k.Tier); err != nil {
			errs = append(errs, FieldError{Field: field + ".tier", Message: err.Error()})
		}
	}

	if cfg.JWT.Secret != "" && len(cfg.JWT.Secret) < 32 {
		errs = append(errs, FieldError{Field: "auth.jwt.secret", Message: "secret must be at least 32 bytes"})
	}
	if cfg.JWT.Secret != "" && cfg.JWT.TierClaim == "" {
		errs = append(errs, FieldError{Field: "auth.jwt.tier_claim", Message: "tier claim is required when jwt is enabled"})
	}

	return errs
}

func validateLimiter(cfg *LimiterConfig) []FieldError {
	var errs []FieldError

	errs = append(errs, validatePolicy("limiter.default", cfg.Default)...)

	names := make([]string, 0, len(cfg.Categories))
	for name := range cfg.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, FieldError{Field: "limiter.categories", Message: "category name must not be empty"})
			continue
		}
		errs = append(errs, validatePolicy("limiter.categories."+name, cfg.Categories[name])...)
	}

	if cfg.Shards <= 0 {
		errs = append(errs, FieldError{Field: "limiter.shards", Message: "shards must be positive"})
	}
	if cfg.MaxBuckets < 0 {
		errs = append(errs, FieldError{Field: "limiter.max_buckets", Message: "max buckets must not be negative"})
	}
	errs = append(errs, validateSchedule("limiter.sweep_schedule", cfg.SweepSchedule)...)

	return errs
}

func validatePolicy(field string, p PolicyConfig) []FieldError {
	var errs []FieldError
	if p.Interval <= 0 {
		errs = append(errs, FieldError{Field: field + ".interval", Message: "interval must be positive"})
	}
	if p.Limit <= 0 {
		errs = append(errs, FieldError{Field: field + ".limit", Message: "limit must be positive"})
	}
	return errs
}

func validateSchedule(field, spec string) []FieldError {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return []FieldError{{Field: field, Message: fmt.Sprintf("invalid cron schedule %q: %v", spec, err)}}
	}
	return nil
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	if _, err := usage.ParsePeriod(cfg.Period); err != nil {
		errs = append(errs, FieldError{Field: "usage.period", Message: err.Error()})
	}

	switch cfg.Backend {
	case "memory":
		if cfg.Memory.MaxEntries < 0 {
			errs = append(errs, FieldError{Field: "usage.memory.max_entries", Message: "max entries must not be negative"})
		}
		if cfg.Memory.CleanupInterval < 0 {
			errs = append(errs, FieldError{Field: "usage.memory.cleanup_interval", Message: "cleanup interval must not be negative"})
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "usage.sqlite.path", Message: "path is required for the sqlite backend"})
		}
		if cfg.SQLite.Driver != storage.DriverModernc && cfg.SQLite.Driver != storage.DriverMattn {
			errs = append(errs, FieldError{
				Field:   "usage.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q (must be %s or %s)", cfg.SQLite.Driver, storage.DriverModernc, storage.DriverMattn),
			})
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{Field: "usage.redis.addr", Message: "address is required for the redis backend"})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{Field: "usage.redis.db", Message: "db must not be negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("invalid backend %q (must be memory, sqlite, or redis)", cfg.Backend),
		})
	}

	errs = append(errs, validateSchedule("usage.cleanup_schedule", cfg.CleanupSchedule)...)

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	for field, path := range map[string]string{
		"telemetry.metrics.path":          cfg.Metrics.Path,
		"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
		"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
	} {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("path %q must start with /", path)})
		}
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "check timeout must not be negative"})
	}

	return errs
}
