// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/cadence/internal/typewriter"
	"github.com/jeranaias/cadence/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete cadence configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Chat completion endpoint configuration
	API APIConfig `toml:"api" json:"api"`

	// Typewriter pacing configuration
	Typing TypingConfig `toml:"typing" json:"typing"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Search history configuration
	History HistoryConfig `toml:"history" json:"history"`

	// Session configuration
	Session SessionConfig `toml:"session" json:"session"`
}

// APIConfig contains chat completion endpoint configuration.
type APIConfig struct {
	// BaseURL is the completion endpoint root, e.g. https://openrouter.ai/api/v1
	BaseURL string `toml:"base_url" json:"base_url"`
	// Key is the bearer token for the endpoint
	Key string `toml:"key" json:"key"`
	// Model is the default model ID in provider/slug form
	Model string `toml:"model" json:"model"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxTokens caps the response length (0 = endpoint default)
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
	// SystemPrompt is applied to new conversations when set
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
}

// Timeout returns the per-request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// TypingConfig contains typewriter pacing configuration.
// Delays are in milliseconds so the TOML stays readable.
type TypingConfig struct {
	// Enabled turns the typewriter effect on or off
	Enabled bool `toml:"enabled" json:"enabled"`
	// BaseDelayMs is the default pause between emitted words
	BaseDelayMs int `toml:"base_delay_ms" json:"base_delay_ms"`
	// ProbeDelayMs is the re-check interval while the buffer is empty
	ProbeDelayMs int `toml:"probe_delay_ms" json:"probe_delay_ms"`
	// SettleDelayMs is the wait before a boundary-less tail is emitted whole
	SettleDelayMs int `toml:"settle_delay_ms" json:"settle_delay_ms"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders finalized assistant messages through the markdown renderer
	Markdown bool `toml:"markdown" json:"markdown"`
	// ShowStats displays generation statistics under assistant messages
	ShowStats bool `toml:"show_stats" json:"show_stats"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// HistoryConfig contains full-text history index configuration.
type HistoryConfig struct {
	// Enabled controls whether conversations are indexed for search
	Enabled bool `toml:"enabled" json:"enabled"`
	// Watch re-indexes conversations changed on disk by other processes
	Watch bool `toml:"watch" json:"watch"`
}

// SessionConfig contains session lifecycle configuration.
type SessionConfig struct {
	// IdleTimeoutSecs ends the session after this much inactivity
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs"`
	// WarningSecs shows an expiry warning this long before the timeout
	WarningSecs int `toml:"warning_secs" json:"warning_secs"`
	// AutosaveSecs is the interval between autosaves (0 = disabled)
	AutosaveSecs int `toml:"autosave_secs" json:"autosave_secs"`
}

// IdleTimeout returns the idle timeout as a duration.
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSecs) * time.Second
}

// Warning returns the pre-expiry warning window as a duration.
func (s SessionConfig) Warning() time.Duration {
	return time.Duration(s.WarningSecs) * time.Second
}

// AutosaveInterval returns the autosave interval as a duration.
func (s SessionConfig) AutosaveInterval() time.Duration {
	return time.Duration(s.AutosaveSecs) * time.Second
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		API: APIConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Key:         "",
			Model:       "anthropic/claude-3.5-sonnet",
			TimeoutSecs: 120,
			MaxTokens:   0, // endpoint default
		},

		Typing: TypingConfig{
			Enabled:       true,
			BaseDelayMs:   int(typewriter.DefaultBaseDelay / time.Millisecond),
			ProbeDelayMs:  int(typewriter.DefaultProbeDelay / time.Millisecond),
			SettleDelayMs: int(typewriter.DefaultSettleDelay / time.Millisecond),
		},

		UI: UIConfig{
			Theme:       "dark",
			Markdown:    true,
			ShowStats:   true,
			CompactMode: false,
		},

		History: HistoryConfig{
			Enabled: true,
			Watch:   true,
		},

		Session: SessionConfig{
			IdleTimeoutSecs: 1800, // 30 minutes
			WarningSecs:     120,
			AutosaveSecs:    300,
		},
	}
}

// TypewriterConfig converts the typing section into typewriter pacing options.
func (c *Config) TypewriterConfig() typewriter.Config {
	return typewriter.Config{
		BaseDelay:   time.Duration(c.Typing.BaseDelayMs) * time.Millisecond,
		ProbeDelay:  time.Duration(c.Typing.ProbeDelayMs) * time.Millisecond,
		SettleDelay: time.Duration(c.Typing.SettleDelayMs) * time.Millisecond,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the cadence configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cadence"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err // File doesn't exist or not accessible
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.cadence/config.toml, falling back to
// defaults when the file is missing. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				loadErr = fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return the config (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Log warning but don't fail - permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Config files are written with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer

	// Write header comment
	fmt.Fprintln(&buf, "# cadence configuration file")
	fmt.Fprintln(&buf, "# Generated by cadence - edit with care")
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# Documentation: https://github.com/jeranaias/cadence")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// API Settings Validation
	// ==========================================================================

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "api.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{
				Field:   "api.base_url",
				Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
			})
		}
	}

	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("must be 1-600 seconds, got %d", c.API.TimeoutSecs),
		})
	}

	if c.API.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.max_tokens",
			Message: "cannot be negative",
		})
	}

	// ==========================================================================
	// Typing Settings Validation
	// ==========================================================================

	if c.Typing.BaseDelayMs < 1 || c.Typing.BaseDelayMs > 500 {
		errs = append(errs, ValidationError{
			Field:   "typing.base_delay_ms",
			Message: fmt.Sprintf("must be 1-500 ms, got %d", c.Typing.BaseDelayMs),
		})
	}
	if c.Typing.ProbeDelayMs < 1 || c.Typing.ProbeDelayMs > 200 {
		errs = append(errs, ValidationError{
			Field:   "typing.probe_delay_ms",
			Message: fmt.Sprintf("must be 1-200 ms, got %d", c.Typing.ProbeDelayMs),
		})
	}
	if c.Typing.SettleDelayMs < 1 || c.Typing.SettleDelayMs > 2000 {
		errs = append(errs, ValidationError{
			Field:   "typing.settle_delay_ms",
			Message: fmt.Sprintf("must be 1-2000 ms, got %d", c.Typing.SettleDelayMs),
		})
	}

	// ==========================================================================
	// UI Settings Validation
	// ==========================================================================

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	// ==========================================================================
	// Session Settings Validation
	// ==========================================================================

	if c.Session.IdleTimeoutSecs < 60 || c.Session.IdleTimeoutSecs > 86400 {
		errs = append(errs, ValidationError{
			Field:   "session.idle_timeout_secs",
			Message: fmt.Sprintf("must be 60-86400 seconds, got %d", c.Session.IdleTimeoutSecs),
		})
	}
	if c.Session.WarningSecs < 0 || c.Session.WarningSecs >= c.Session.IdleTimeoutSecs {
		errs = append(errs, ValidationError{
			Field:   "session.warning_secs",
			Message: fmt.Sprintf("must be non-negative and below the idle timeout, got %d", c.Session.WarningSecs),
		})
	}
	if c.Session.AutosaveSecs != 0 && (c.Session.AutosaveSecs < 10 || c.Session.AutosaveSecs > 3600) {
		errs = append(errs, ValidationError{
			Field:   "session.autosave_secs",
			Message: fmt.Sprintf("must be 0 (disabled) or 10-3600 seconds, got %d", c.Session.AutosaveSecs),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.Model == "" {
		c.API.Model = defaults.API.Model
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}

	// Typing defaults
	if c.Typing.BaseDelayMs == 0 {
		c.Typing.BaseDelayMs = defaults.Typing.BaseDelayMs
	}
	if c.Typing.ProbeDelayMs == 0 {
		c.Typing.ProbeDelayMs = defaults.Typing.ProbeDelayMs
	}
	if c.Typing.SettleDelayMs == 0 {
		c.Typing.SettleDelayMs = defaults.Typing.SettleDelayMs
	}

	// UI defaults
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}

	// Session defaults
	if c.Session.IdleTimeoutSecs == 0 {
		c.Session.IdleTimeoutSecs = defaults.Session.IdleTimeoutSecs
	}
	if c.Session.WarningSecs == 0 {
		c.Session.WarningSecs = defaults.Session.WarningSecs
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CADENCE_API_KEY: overrides api.key
//   - CADENCE_MODEL: overrides api.model
//   - CADENCE_BASE_URL: overrides api.base_url
//   - CADENCE_NO_TYPEWRITER: set to "1" or "true" to disable the typing effect
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("CADENCE_API_KEY"); key != "" {
		c.API.Key = key
	}

	if model := os.Getenv("CADENCE_MODEL"); model != "" {
		c.API.Model = model
	}

	if baseURL := os.Getenv("CADENCE_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}

	if noTyping := os.Getenv("CADENCE_NO_TYPEWRITER"); noTyping != "" {
		if noTyping == "1" || strings.ToLower(noTyping) == "true" {
			c.Typing.Enabled = false
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.model").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, return the value
		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "api.model").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, set the value
		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	// Direct assignment for matching types
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	// Type conversion for compatible types
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.key",
		"api.model",
		"api.timeout_secs",
		"api.max_tokens",
		"api.system_prompt",
		"typing.enabled",
		"typing.base_delay_ms",
		"typing.probe_delay_ms",
		"typing.settle_delay_ms",
		"ui.theme",
		"ui.markdown",
		"ui.show_stats",
		"ui.compact_mode",
		"history.enabled",
		"history.watch",
		"session.idle_timeout_secs",
		"session.warning_secs",
		"session.autosave_secs",
	}
}

// Merge merges another config into this one, overwriting only non-zero values.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Version != "" {
		c.Version = other.Version
	}

	// API
	if other.API.BaseURL != "" {
		c.API.BaseURL = other.API.BaseURL
	}
	if other.API.Key != "" {
		c.API.Key = other.API.Key
	}
	if other.API.Model != "" {
		c.API.Model = other.API.Model
	}
	if other.API.TimeoutSecs != 0 {
		c.API.TimeoutSecs = other.API.TimeoutSecs
	}
	if other.API.MaxTokens != 0 {
		c.API.MaxTokens = other.API.MaxTokens
	}
	if other.API.SystemPrompt != "" {
		c.API.SystemPrompt = other.API.SystemPrompt
	}

	// Typing
	if other.Typing.Enabled {
		c.Typing.Enabled = true
	}
	if other.Typing.BaseDelayMs != 0 {
		c.Typing.BaseDelayMs = other.Typing.BaseDelayMs
	}
	if other.Typing.ProbeDelayMs != 0 {
		c.Typing.ProbeDelayMs = other.Typing.ProbeDelayMs
	}
	if other.Typing.SettleDelayMs != 0 {
		c.Typing.SettleDelayMs = other.Typing.SettleDelayMs
	}

	// UI
	if other.UI.Theme != "" {
		c.UI.Theme = other.UI.Theme
	}
	if other.UI.Markdown {
		c.UI.Markdown = true
	}
	if other.UI.ShowStats {
		c.UI.ShowStats = true
	}
	if other.UI.CompactMode {
		c.UI.CompactMode = true
	}

	// History
	if other.History.Enabled {
		c.History.Enabled = true
	}
	if other.History.Watch {
		c.History.Watch = true
	}

	// Session
	if other.Session.IdleTimeoutSecs != 0 {
		c.Session.IdleTimeoutSecs = other.Session.IdleTimeoutSecs
	}
	if other.Session.WarningSecs != 0 {
		c.Session.WarningSecs = other.Session.WarningSecs
	}
	if other.Session.AutosaveSecs != 0 {
		c.Session.AutosaveSecs = other.Session.AutosaveSecs
	}
}

// Clone creates a deep copy of the configuration.
// The config holds only value types, so a struct copy is a full copy.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the API key to prevent accidental exposure in logs,
// error messages, or debug output.
func (c *Config) String() string {
	safe := c.Clone()

	if safe.API.Key != "" {
		safe.API.Key = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
