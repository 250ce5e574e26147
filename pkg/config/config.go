package config

import "time"

// Config is the root configuration structure for the quota service.
// It contains the HTTP server, authentication, rate limiter, usage
// tracking, billing and telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and the ingress throttle.
	Server ServerConfig `yaml:"server"`

	// Auth contains caller identification settings: API keys, JWT
	// verification, and anonymous access.
	Auth AuthConfig `yaml:"auth"`

	// Limiter contains the per-category request rate policies.
	Limiter LimiterConfig `yaml:"limiter"`

	// Usage contains usage tracking configuration including the counter
	// period and storage backend.
	Usage UsageConfig `yaml:"usage"`

	// Billing maps billing price ids to tiers.
	Billing BillingConfig `yaml:"billing"`

	// Telemetry contains logging, metrics and health endpoint configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// Throttle caps the total request rate the server accepts, before any
	// per-user limit is consulted.
	Throttle ThrottleConfig `yaml:"throttle"`

	// TLS configures HTTPS. The server speaks plain HTTP when disabled.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains server certificate settings.
type TLSConfig struct {
	// Enabled turns on HTTPS.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the certificate files are checked for
	// changes.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// ThrottleConfig contains the global ingress throttle settings.
type ThrottleConfig struct {
	// Enabled turns the throttle on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained request rate.
	// Default: 100
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of requests allowed above the sustained rate.
	// Default: 200
	Burst int `yaml:"burst"`
}

// AuthConfig contains caller identification settings.
type AuthConfig struct {
	// AllowAnonymous lets requests without credentials through as the
	// "anonymous" user on the free tier. When false they get 401.
	// Default: false
	AllowAnonymous bool `yaml:"allow_anonymous"`

	// Sources defines where API keys are read from.
	// Default: X-API-Key header
	Sources []APIKeySource `yaml:"sources"`

	// Keys is the list of valid API keys.
	Keys []APIKeyConfig `yaml:"keys"`

	// JWT configures bearer token verification.
	JWT JWTConfig `yaml:"jwt"`
}

// APIKeySource defines where to extract API keys from in HTTP requests.
type APIKeySource struct {
	// Type is the source type.
	// Options: "header", "query"
	Type string `yaml:"type"`

	// Name is the header name or query parameter name.
	Name string `yaml:"name"`

	// Scheme is the authentication scheme for header-based extraction,
	// e.g. "Bearer". Leave empty for raw value extraction.
	Scheme string `yaml:"scheme,omitempty"`
}

// APIKeyConfig contains configuration for a single API key.
type APIKeyConfig struct {
	// Key is the API key value.
	Key string `yaml:"key"`

	// UserID is the user the key belongs to.
	UserID string `yaml:"user_id"`

	// Tier is the user's subscription tier.
	// Options: "free", "starter", "pro", "agency"
	Tier string `yaml:"tier"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled,omitempty"`
}

// JWTConfig contains HS256 bearer token settings.
type JWTConfig struct {
	// Secret is the HMAC signing secret. Empty disables JWT authentication.
	Secret string `yaml:"secret"`

	// Issuer, when set, must match the token's iss claim.
	Issuer string `yaml:"issuer,omitempty"`

	// TierClaim is the claim holding the tier.
	// Default: "tier"
	TierClaim string `yaml:"tier_claim"`
}

// PolicyConfig is a fixed-window rate policy.
type PolicyConfig struct {
	// Interval is the window length.
	Interval time.Duration `yaml:"interval"`

	// Limit is the number of requests admitted per window.
	Limit int `yaml:"limit"`
}

// LimiterConfig contains rate limiter configuration.
type LimiterConfig struct {
	// Default fills unset fields of every category policy.
	// Default: 60s / 10
	Default PolicyConfig `yaml:"default"`

	// Categories maps endpoint categories to their policies.
	// Default: the built-in source categories
	Categories map[string]PolicyConfig `yaml:"categories"`

	// Shards is the number of lock shards per category.
	// Default: 64
	Shards int `yaml:"shards"`

	// MaxBuckets bounds the buckets held per category. 0 is unbounded.
	// Default: 0
	MaxBuckets int `yaml:"max_buckets"`

	// SweepSchedule is a cron expression for dropping expired buckets.
	// Empty disables the sweep.
	// Default: ""
	SweepSchedule string `yaml:"sweep_schedule"`
}

// UsageConfig contains usage tracking configuration.
type UsageConfig struct {
	// Period scopes counters in time.
	// Options: "monthly", "lifetime"
	// Default: "monthly"
	Period string `yaml:"period"`

	// Backend selects the counter store.
	// Options: "memory", "sqlite", "redis"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Memory contains in-memory store settings.
	Memory MemoryStoreConfig `yaml:"memory"`

	// SQLite contains SQLite store settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Redis contains Redis store settings.
	Redis RedisConfig `yaml:"redis"`

	// CleanupSchedule is a cron expression for deleting counters from past
	// periods. Empty disables the job.
	// Default: ""
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

// MemoryStoreConfig contains in-memory counter store configuration.
type MemoryStoreConfig struct {
	// MaxEntries bounds the number of counters. 0 is unbounded.
	// Default: 0
	MaxEntries int `yaml:"max_entries"`

	// CleanupInterval is how often expired counters are removed. 0 disables.
	// Default: 0
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// SQLiteConfig contains SQLite counter store configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long a write waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the WAL is checkpointed. 0 disables.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// RedisConfig contains Redis counter store configuration.
type RedisConfig struct {
	// Addr is the Redis server address.
	// Example: "localhost:6379"
	Addr string `yaml:"addr"`

	// Password is the Redis password.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	// Default: 0
	DB int `yaml:"db"`

	// KeyPrefix namespaces all keys.
	// Default: "quota"
	KeyPrefix string `yaml:"key_prefix"`

	// DialTimeout bounds connection setup.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// BillingConfig contains billing price ids for the paid tiers.
type BillingConfig struct {
	StarterPriceID string `yaml:"starter_price_id"`
	ProPriceID     string `yaml:"pro_price_id"`
	AgencyPriceID  string `yaml:"agency_price_id"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII masks API keys, bearer tokens and emails in log output.
	// Default: true
	RedactPII *bool `yaml:"redact_pii"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// RedactEnabled reports whether log redaction is on.
func (c LoggingConfig) RedactEnabled() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// IsEnabled reports whether the metrics endpoint is served.
func (c MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
