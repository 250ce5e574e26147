package config

import (
	"errors"
	"os"
	"testing"
)

func resetGlobal() {
	SetConfig(nil)
}

func TestGetConfig_BeforeSet(t *testing.T) {
	resetGlobal()

	if cfg := GetConfig(); cfg != nil {
		t.Errorf("expected nil config before SetConfig, got %+v", cfg)
	}
}

func TestSetConfig(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	cfg := NewTestConfig().WithListenAddress("10.0.0.1:80").Build()
	SetConfig(cfg)

	if GetConfig() != cfg {
		t.Error("expected GetConfig to return the config passed to SetConfig")
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, validConfigYAML)
	before, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	SetConfig(before)

	if err := os.WriteFile(path, []byte("limiter:\n  default:\n    limit: 99\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var applied *Config
	cfg, err := ReloadConfig(path, func(c *Config) error {
		applied = c
		return nil
	})
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if cfg.Limiter.Default.Limit != 99 {
		t.Errorf("expected reloaded limit 99, got %d", cfg.Limiter.Default.Limit)
	}
	if applied != cfg {
		t.Error("expected apply to receive the reloaded config")
	}
	if GetConfig() != cfg {
		t.Error("expected running config to be replaced on reload")
	}
}

func TestReloadConfig_NilApply(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	cfg, err := ReloadConfig(writeConfig(t, validConfigYAML), nil)
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if GetConfig() != cfg {
		t.Error("expected running config to be replaced on reload")
	}
}

func TestReloadConfig_ValidationFailure(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	before := NewTestConfig().Build()
	SetConfig(before)

	path := writeConfig(t, "usage:\n  backend: floppy\n")
	applyCalled := false
	if _, err := ReloadConfig(path, func(*Config) error {
		applyCalled = true
		return nil
	}); err == nil {
		t.Fatal("expected reload to fail validation")
	}
	if applyCalled {
		t.Error("expected apply not to run for an invalid config")
	}
	if GetConfig() != before {
		t.Error("expected existing config to remain after failed reload")
	}
}

func TestReloadConfig_ApplyRejected(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	before := NewTestConfig().Build()
	SetConfig(before)

	errRejected := errors.New("rejected")
	_, err := ReloadConfig(writeConfig(t, validConfigYAML), func(*Config) error {
		return errRejected
	})
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected apply error, got %v", err)
	}
	if GetConfig() != before {
		t.Error("expected existing config to remain after a rejected apply")
	}
}
