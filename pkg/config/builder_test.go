package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a builder whose configuration is valid as is.
func NewTestConfig() *ConfigBuilder {
	var cfg Config
	ApplyDefaults(&cfg)
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithCategory sets a limiter category policy.
func (b *ConfigBuilder) WithCategory(name string, interval time.Duration, limit int) *ConfigBuilder {
	b.cfg.Limiter.Categories[name] = PolicyConfig{Interval: interval, Limit: limit}
	return b
}

// WithAPIKey adds an API key.
func (b *ConfigBuilder) WithAPIKey(key, userID, tier string) *ConfigBuilder {
	b.cfg.Auth.Keys = append(b.cfg.Auth.Keys, APIKeyConfig{Key: key, UserID: userID, Tier: tier})
	return b
}

// WithBackend sets the usage storage backend.
func (b *ConfigBuilder) WithBackend(backend string) *ConfigBuilder {
	b.cfg.Usage.Backend = backend
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}
