package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress     = "127.0.0.1:8080"
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMaxHeaderBytes    = 1048576 // 1MB
	DefaultThrottleRPS       = 100.0
	DefaultThrottleBurst     = 200
	DefaultTLSMinVersion     = "1.3"
	DefaultTLSReloadInterval = 5 * time.Minute
	DefaultAPIKeyHeader      = "X-API-Key"
	DefaultJWTTierClaim      = "tier"
	DefaultLimiterShards     = 64
	DefaultPolicyInterval    = 60 * time.Second
	DefaultPolicyLimit       = 10
	DefaultGenerateWeekLimit = 5

	// Usage defaults
	DefaultUsagePeriod              = "monthly"
	DefaultUsageBackend             = "memory"
	DefaultSQLitePath               = "data/usage.db"
	DefaultSQLiteDriver             = "sqlite"
	DefaultSQLiteBusyTimeout        = 5 * time.Second
	DefaultSQLiteCheckpointInterval = 5 * time.Minute
	DefaultRedisKeyPrefix           = "quota"
	DefaultRedisDialTimeout         = 5 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultCategories returns the built-in endpoint categories and their
// policies. Zero fields take the limiter default.
func DefaultCategories() map[string]PolicyConfig {
	return map[string]PolicyConfig{
		"generate":              {},
		"generate-week":         {Limit: DefaultGenerateWeekLimit},
		"generate-tags":         {},
		"trending":              {},
		"variation":             {},
		"image-recommendations": {},
		"parse-url":             {},
	}
}

// ApplyDefaults fills zero-valued fields of cfg with their defaults.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.Throttle.RequestsPerSecond == 0 {
		cfg.Server.Throttle.RequestsPerSecond = DefaultThrottleRPS
	}
	if cfg.Server.Throttle.Burst == 0 {
		cfg.Server.Throttle.Burst = DefaultThrottleBurst
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReloadInterval
	}

	// Auth defaults
	if len(cfg.Auth.Sources) == 0 {
		cfg.Auth.Sources = []APIKeySource{{Type: "header", Name: DefaultAPIKeyHeader}}
	}
	if cfg.Auth.JWT.TierClaim == "" {
		cfg.Auth.JWT.TierClaim = DefaultJWTTierClaim
	}

	applyLimiterDefaults(cfg)
	applyUsageDefaults(cfg)

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}

// applyLimiterDefaults fills the default policy and then every category
// field still unset from it.
func applyLimiterDefaults(cfg *Config) {
	if cfg.Limiter.Default.Interval == 0 {
		cfg.Limiter.Default.Interval = DefaultPolicyInterval
	}
	if cfg.Limiter.Default.Limit == 0 {
		cfg.Limiter.Default.Limit = DefaultPolicyLimit
	}
	if cfg.Limiter.Shards == 0 {
		cfg.Limiter.Shards = DefaultLimiterShards
	}
	if cfg.Limiter.Categories == nil {
		cfg.Limiter.Categories = DefaultCategories()
	}

	for name, p := range cfg.Limiter.Categories {
		if p.Interval == 0 {
			p.Interval = cfg.Limiter.Default.Interval
		}
		if p.Limit == 0 {
			p.Limit = cfg.Limiter.Default.Limit
		}
		cfg.Limiter.Categories[name] = p
	}
}

func applyUsageDefaults(cfg *Config) {
	if cfg.Usage.Period == "" {
		cfg.Usage.Period = DefaultUsagePeriod
	}
	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}

	if cfg.Usage.SQLite.Path == "" {
		cfg.Usage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Usage.SQLite.Driver == "" {
		cfg.Usage.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Usage.SQLite.BusyTimeout == 0 {
		cfg.Usage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Usage.SQLite.CheckpointInterval == 0 {
		cfg.Usage.SQLite.CheckpointInterval = DefaultSQLiteCheckpointInterval
	}

	if cfg.Usage.Redis.KeyPrefix == "" {
		cfg.Usage.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Usage.Redis.DialTimeout == 0 {
		cfg.Usage.Redis.DialTimeout = DefaultRedisDialTimeout
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
