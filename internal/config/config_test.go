// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			cfg := Global()
			if cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() properly initializes
// the config on first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	ResetGlobalForTesting()

	cfg := Global()
	if cfg == nil {
		t.Fatal("Global() returned nil")
	}

	if cfg.Version == "" {
		t.Error("Config version should not be empty")
	}
	if cfg.API.BaseURL == "" {
		t.Error("API base URL should not be empty")
	}
}

// TestConfig_SetGlobalOverwrites tests that SetGlobal properly overwrites
// the existing global config.
func TestConfig_SetGlobalOverwrites(t *testing.T) {
	ResetGlobalForTesting()

	_ = Global()

	customCfg := Default()
	customCfg.Version = "custom-version"
	customCfg.API.Model = "custom/model"
	SetGlobal(customCfg)

	result := Global()
	if result.Version != "custom-version" {
		t.Errorf("Expected version 'custom-version', got '%s'", result.Version)
	}
	if result.API.Model != "custom/model" {
		t.Errorf("Expected model 'custom/model', got '%s'", result.API.Model)
	}
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Version == "" {
		t.Error("Default config should have a version")
	}
	if cfg.API.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("Default base URL = %q", cfg.API.BaseURL)
	}
	if !cfg.Typing.Enabled {
		t.Error("Typewriter should be enabled by default")
	}
	if cfg.Typing.BaseDelayMs != 35 || cfg.Typing.ProbeDelayMs != 15 || cfg.Typing.SettleDelayMs != 50 {
		t.Errorf("Default typing delays = %d/%d/%d, want 35/15/50",
			cfg.Typing.BaseDelayMs, cfg.Typing.ProbeDelayMs, cfg.Typing.SettleDelayMs)
	}
	if cfg.Session.IdleTimeoutSecs == 0 {
		t.Error("Default config should have a session idle timeout")
	}

	// Default config must validate clean.
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

// TestConfig_TypewriterConfig tests the typing section to pacing conversion.
func TestConfig_TypewriterConfig(t *testing.T) {
	cfg := Default()
	cfg.Typing.BaseDelayMs = 40
	cfg.Typing.ProbeDelayMs = 10
	cfg.Typing.SettleDelayMs = 60

	tw := cfg.TypewriterConfig()
	if tw.BaseDelay != 40*time.Millisecond {
		t.Errorf("BaseDelay = %v, want 40ms", tw.BaseDelay)
	}
	if tw.ProbeDelay != 10*time.Millisecond {
		t.Errorf("ProbeDelay = %v, want 10ms", tw.ProbeDelay)
	}
	if tw.SettleDelay != 60*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 60ms", tw.SettleDelay)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid base URL scheme",
			mutate:  func(c *Config) { c.API.BaseURL = "ftp://example.com" },
			wantErr: true,
		},
		{
			name:    "timeout too small",
			mutate:  func(c *Config) { c.API.TimeoutSecs = 0 },
			wantErr: true,
		},
		{
			name:    "timeout too large",
			mutate:  func(c *Config) { c.API.TimeoutSecs = 601 },
			wantErr: true,
		},
		{
			name:    "negative max tokens",
			mutate:  func(c *Config) { c.API.MaxTokens = -1 },
			wantErr: true,
		},
		{
			name:    "base delay zero",
			mutate:  func(c *Config) { c.Typing.BaseDelayMs = 0 },
			wantErr: true,
		},
		{
			name:    "base delay too large",
			mutate:  func(c *Config) { c.Typing.BaseDelayMs = 1000 },
			wantErr: true,
		},
		{
			name:    "invalid theme",
			mutate:  func(c *Config) { c.UI.Theme = "solarized" },
			wantErr: true,
		},
		{
			name:    "idle timeout below minimum",
			mutate:  func(c *Config) { c.Session.IdleTimeoutSecs = 30 },
			wantErr: true,
		},
		{
			name:    "warning at or past idle timeout",
			mutate:  func(c *Config) { c.Session.WarningSecs = c.Session.IdleTimeoutSecs },
			wantErr: true,
		},
		{
			name:    "autosave out of range",
			mutate:  func(c *Config) { c.Session.AutosaveSecs = 5 },
			wantErr: true,
		},
		{
			name:    "autosave disabled is valid",
			mutate:  func(c *Config) { c.Session.AutosaveSecs = 0 },
			wantErr: false,
		},
		{
			name:    "idle timeout at minimum",
			mutate:  func(c *Config) { c.Session.IdleTimeoutSecs = 60; c.Session.WarningSecs = 30 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	// Test Get
	val, err := cfg.Get("api.model")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != "anthropic/claude-3.5-sonnet" {
		t.Errorf("Get('api.model') = %v, want default model", val)
	}

	// Test Set with string conversion to int
	if err := cfg.Set("typing.base_delay_ms", "45"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.Typing.BaseDelayMs != 45 {
		t.Errorf("BaseDelayMs = %d, want 45", cfg.Typing.BaseDelayMs)
	}

	// Test Set bool from string
	if err := cfg.Set("typing.enabled", "false"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.Typing.Enabled {
		t.Error("Typing.Enabled should be false after Set")
	}

	// Test Get with invalid key
	if _, err := cfg.Get("invalid.key"); err == nil {
		t.Error("Get() with invalid key should return error")
	}
	if err := cfg.Set("api.nonexistent", "x"); err == nil {
		t.Error("Set() with invalid key should return error")
	}
}

// TestConfig_GetAllKeys verifies every advertised key resolves through Get.
func TestConfig_GetAllKeys(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) failed: %v", key, err)
		}
	}
}

// TestConfig_SaveLoadRoundTrip tests TOML persistence through a temp file.
func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.API.Model = "openai/gpt-4o-mini"
	cfg.API.Key = "sk-or-test"
	cfg.Typing.BaseDelayMs = 42
	cfg.UI.Theme = "light"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	// Saved file must be owner-only.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.API.Model != "openai/gpt-4o-mini" {
		t.Errorf("Model = %q, want saved value", loaded.API.Model)
	}
	if loaded.Typing.BaseDelayMs != 42 {
		t.Errorf("BaseDelayMs = %d, want 42", loaded.Typing.BaseDelayMs)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("Theme = %q, want light", loaded.UI.Theme)
	}
}

// TestConfig_EnvOverrides tests environment variable overrides.
func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CADENCE_API_KEY", "sk-or-env")
	t.Setenv("CADENCE_MODEL", "google/gemini-flash-1.5")
	t.Setenv("CADENCE_BASE_URL", "https://example.test/api/v1")
	t.Setenv("CADENCE_NO_TYPEWRITER", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.Key != "sk-or-env" {
		t.Errorf("Key = %q, want env override", cfg.API.Key)
	}
	if cfg.API.Model != "google/gemini-flash-1.5" {
		t.Errorf("Model = %q, want env override", cfg.API.Model)
	}
	if cfg.API.BaseURL != "https://example.test/api/v1" {
		t.Errorf("BaseURL = %q, want env override", cfg.API.BaseURL)
	}
	if cfg.Typing.Enabled {
		t.Error("CADENCE_NO_TYPEWRITER=1 should disable typing")
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	original.Version = "original"

	clone := original.Clone()
	clone.Version = "cloned"
	clone.API.Model = "changed/model"

	if original.Version != "original" {
		t.Error("Clone should create an independent copy")
	}
	if original.API.Model == "changed/model" {
		t.Error("Clone mutation leaked into original")
	}
}

// TestConfig_Merge tests merging two configs.
func TestConfig_Merge(t *testing.T) {
	base := Default()
	base.Version = "base"

	other := &Config{
		Version: "merged",
		API:     APIConfig{Model: "merged/model"},
	}

	base.Merge(other)

	if base.Version != "merged" {
		t.Errorf("Merge should overwrite Version, got '%s'", base.Version)
	}
	if base.API.Model != "merged/model" {
		t.Errorf("Merge should overwrite API.Model, got '%s'", base.API.Model)
	}
	// Verify non-overwritten values remain
	if base.API.BaseURL != "https://openrouter.ai/api/v1" {
		t.Error("Merge should not overwrite unset fields")
	}
}

// TestConfig_StringRedactsKey verifies the API key never appears in debug output.
func TestConfig_StringRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.API.Key = "sk-or-secret-value"

	out := cfg.String()
	if strings.Contains(out, "sk-or-secret-value") {
		t.Error("String() leaked the API key")
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Error("String() should mark the key as redacted")
	}
	// Redaction must not mutate the real config.
	if cfg.API.Key != "sk-or-secret-value" {
		t.Error("String() mutated the original config")
	}
}
