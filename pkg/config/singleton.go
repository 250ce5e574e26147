package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the configuration the process is running with.
	globalConfig *Config

	// configMutex protects access to globalConfig.
	configMutex sync.RWMutex
)

// GetConfig returns the running configuration, or nil before SetConfig.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the running configuration.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig loads the configuration from path and passes it to apply.
// The running configuration is replaced only if loading, validation and
// apply all succeed. A nil apply accepts the loaded configuration as is.
func ReloadConfig(path string, apply func(*Config) error) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	if apply != nil {
		if err := apply(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply configuration: %w", err)
		}
	}

	SetConfig(cfg)
	return cfg, nil
}
