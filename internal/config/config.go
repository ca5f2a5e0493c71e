// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for gemstudio.
//
// TOML configuration with sensible defaults, environment variable overrides,
// and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.gemstudio/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gemstudio configuration.
type Config struct {
	// Server is the backend connection configuration.
	Server ServerConfig `toml:"server"`

	// Generation holds the default generation parameters.
	Generation GenerationConfig `toml:"generation"`

	// Archive configures the local conversation mirror.
	Archive ArchiveConfig `toml:"archive"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains backend connection configuration.
type ServerConfig struct {
	// BaseURL is the URL of the generation backend
	BaseURL string `toml:"base_url"`
	// RequestTimeoutSecs bounds non-streaming API calls. Streaming
	// requests are never bounded by this value.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
	// UploadTimeoutSecs bounds file uploads
	UploadTimeoutSecs int `toml:"upload_timeout_secs"`
}

// GenerationConfig contains default generation parameters. All of these
// can be changed per-session from the UI.
type GenerationConfig struct {
	// AspectRatio is the default output aspect ratio (e.g. "1:1", "16:9")
	AspectRatio string `toml:"aspect_ratio"`
	// ImageSize is the default output resolution tier (e.g. "1K", "2K")
	ImageSize string `toml:"image_size"`
	// IncludeText asks the model to narrate alongside images
	IncludeText bool `toml:"include_text"`
	// ContextMemory sends recent conversation turns with each request
	ContextMemory bool `toml:"context_memory"`
}

// ArchiveConfig contains local archive configuration. The archive is a
// write-through mirror of backend-confirmed conversations used for offline
// history, search, and export. It is never read back into live state.
type ArchiveConfig struct {
	// Enabled controls whether the mirror is written at all
	Enabled bool `toml:"enabled"`
	// Path is the SQLite database location (empty = ~/.gemstudio/archive.db)
	Path string `toml:"path"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowThinking expands model reasoning panels by default
	ShowThinking bool `toml:"show_thinking"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:            "http://localhost:5000",
			RequestTimeoutSecs: 30,
			UploadTimeoutSecs:  120,
		},

		Generation: GenerationConfig{
			AspectRatio:   "1:1",
			ImageSize:     "1K",
			IncludeText:   false,
			ContextMemory: false,
		},

		Archive: ArchiveConfig{
			Enabled: true,
			Path:    "",
		},

		UI: UIConfig{
			Theme:        "dark",
			ShowThinking: false,
			CompactMode:  false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the gemstudio configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".gemstudio"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ArchivePath resolves the archive database location, honoring an explicit
// override in the config.
func (c *Config) ArchivePath() (string, error) {
	if c.Archive.Path != "" {
		return c.Archive.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when the file is absent. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
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

// SaveTOML saves the configuration to a TOML file with owner-only
// permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# gemstudio configuration file")
	fmt.Fprintln(file, "# Generated by gemstudio - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
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

	if c.Server.BaseURL != "" {
		u, err := url.Parse(c.Server.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Server.BaseURL),
			})
		}
	}

	if c.Server.RequestTimeoutSecs < 1 || c.Server.RequestTimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout_secs",
			Message: fmt.Sprintf("must be 1-600, got %d", c.Server.RequestTimeoutSecs),
		})
	}

	if c.Server.UploadTimeoutSecs < 1 || c.Server.UploadTimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "server.upload_timeout_secs",
			Message: fmt.Sprintf("must be 1-3600, got %d", c.Server.UploadTimeoutSecs),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value
// configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = defaults.Server.RequestTimeoutSecs
	}
	if c.Server.UploadTimeoutSecs == 0 {
		c.Server.UploadTimeoutSecs = defaults.Server.UploadTimeoutSecs
	}

	if c.Generation.AspectRatio == "" {
		c.Generation.AspectRatio = defaults.Generation.AspectRatio
	}
	if c.Generation.ImageSize == "" {
		c.Generation.ImageSize = defaults.Generation.ImageSize
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GEMSTUDIO_SERVER: overrides server.base_url
//   - GEMSTUDIO_ASPECT_RATIO: overrides generation.aspect_ratio
//   - GEMSTUDIO_IMAGE_SIZE: overrides generation.image_size
//   - GEMSTUDIO_CONTEXT: set to "1" or "true" to enable context memory
//   - GEMSTUDIO_NO_ARCHIVE: set to "1" or "true" to disable the local mirror
//   - GEMSTUDIO_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if server := os.Getenv("GEMSTUDIO_SERVER"); server != "" {
		c.Server.BaseURL = server
	}

	if ratio := os.Getenv("GEMSTUDIO_ASPECT_RATIO"); ratio != "" {
		c.Generation.AspectRatio = ratio
	}

	if size := os.Getenv("GEMSTUDIO_IMAGE_SIZE"); size != "" {
		c.Generation.ImageSize = size
	}

	if ctx := os.Getenv("GEMSTUDIO_CONTEXT"); ctx != "" {
		c.Generation.ContextMemory = isTruthy(ctx)
	}

	if noArchive := os.Getenv("GEMSTUDIO_NO_ARCHIVE"); noArchive != "" {
		c.Archive.Enabled = !isTruthy(noArchive)
	}

	if theme := os.Getenv("GEMSTUDIO_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

func isTruthy(s string) bool {
	return s == "1" || strings.EqualFold(s, "true") || strings.EqualFold(s, "yes")
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// configKeys maps dot-notation keys to accessors. Kept explicit rather
// than reflective; the surface is small.
var configKeys = map[string]struct {
	get func(*Config) string
	set func(*Config, string) error
}{
	"server.base_url": {
		get: func(c *Config) string { return c.Server.BaseURL },
		set: func(c *Config, v string) error { c.Server.BaseURL = v; return nil },
	},
	"server.request_timeout_secs": {
		get: func(c *Config) string { return strconv.Itoa(c.Server.RequestTimeoutSecs) },
		set: func(c *Config, v string) error { return setInt(&c.Server.RequestTimeoutSecs, v) },
	},
	"server.upload_timeout_secs": {
		get: func(c *Config) string { return strconv.Itoa(c.Server.UploadTimeoutSecs) },
		set: func(c *Config, v string) error { return setInt(&c.Server.UploadTimeoutSecs, v) },
	},
	"generation.aspect_ratio": {
		get: func(c *Config) string { return c.Generation.AspectRatio },
		set: func(c *Config, v string) error { c.Generation.AspectRatio = v; return nil },
	},
	"generation.image_size": {
		get: func(c *Config) string { return c.Generation.ImageSize },
		set: func(c *Config, v string) error { c.Generation.ImageSize = v; return nil },
	},
	"generation.include_text": {
		get: func(c *Config) string { return strconv.FormatBool(c.Generation.IncludeText) },
		set: func(c *Config, v string) error { c.Generation.IncludeText = isTruthy(v); return nil },
	},
	"generation.context_memory": {
		get: func(c *Config) string { return strconv.FormatBool(c.Generation.ContextMemory) },
		set: func(c *Config, v string) error { c.Generation.ContextMemory = isTruthy(v); return nil },
	},
	"archive.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Archive.Enabled) },
		set: func(c *Config, v string) error { c.Archive.Enabled = isTruthy(v); return nil },
	},
	"archive.path": {
		get: func(c *Config) string { return c.Archive.Path },
		set: func(c *Config, v string) error { c.Archive.Path = v; return nil },
	},
	"ui.theme": {
		get: func(c *Config) string { return c.UI.Theme },
		set: func(c *Config, v string) error { c.UI.Theme = v; return nil },
	},
	"ui.show_thinking": {
		get: func(c *Config) string { return strconv.FormatBool(c.UI.ShowThinking) },
		set: func(c *Config, v string) error { c.UI.ShowThinking = isTruthy(v); return nil },
	},
	"ui.compact_mode": {
		get: func(c *Config) string { return strconv.FormatBool(c.UI.CompactMode) },
		set: func(c *Config, v string) error { c.UI.CompactMode = isTruthy(v); return nil },
	},
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid integer value: %w", err)
	}
	*dst = n
	return nil
}

// Get retrieves a configuration value using dot notation
// (e.g. "generation.aspect_ratio").
func (c *Config) Get(key string) (string, error) {
	entry, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return entry.get(c), nil
}

// Set sets a configuration value using dot notation. The value is
// validated in context of the whole config before being accepted.
func (c *Config) Set(key, value string) error {
	entry, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	trial := *c
	if err := entry.set(&trial, value); err != nil {
		return err
	}
	if err := trial.Validate(); err != nil {
		return err
	}
	*c = trial
	return nil
}

// AllKeys returns all configuration keys in dot notation, sorted for
// stable display.
func AllKeys() []string {
	return []string{
		"server.base_url",
		"server.request_timeout_secs",
		"server.upload_timeout_secs",
		"generation.aspect_ratio",
		"generation.image_size",
		"generation.include_text",
		"generation.context_memory",
		"archive.enabled",
		"archive.path",
		"ui.theme",
		"ui.show_thinking",
		"ui.compact_mode",
	}
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
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			if cfg == nil {
				cfg = Default()
			}
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
