// Package config loads formatrix configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level formatrix configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Cache   CacheConfig   `toml:"cache"`
	Convert ConvertConfig `toml:"convert"`

	// Render holds per-dialect render options, keyed by format name.
	Render map[string]map[string]string `toml:"render"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// CacheConfig configures the persistent conversion cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	// MaxAge is how long entries are kept before pruning, as a Go
	// duration string such as "720h".
	MaxAge string `toml:"max_age"`
}

// ConvertConfig holds conversion defaults.
type ConvertConfig struct {
	// DefaultTarget is the format used when no target is given.
	DefaultTarget string `toml:"default_target"`

	// PreserveRawSource keeps a copy of the input on parsed documents.
	PreserveRawSource bool `toml:"preserve_raw_source"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "", // resolved lazily by CachePath
			MaxAge:  "720h",
		},
		Convert: ConvertConfig{
			DefaultTarget: "markdown",
		},
	}
}

// DefaultPath returns the default config file location,
// ~/.config/formatrix/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "formatrix", "config.toml"), nil
}

// Load reads configuration from the given path. A missing file yields
// the defaults; a malformed file is an error. An empty path uses
// DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the given path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks field values that have a closed set of choices.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	if c.Cache.MaxAge != "" {
		if _, err := time.ParseDuration(c.Cache.MaxAge); err != nil {
			return fmt.Errorf("invalid cache max_age %q: %w", c.Cache.MaxAge, err)
		}
	}
	return nil
}

// CachePath returns the configured cache location, falling back to
// ~/.cache/formatrix/cache.db.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "formatrix", "cache.db"), nil
}

// CacheMaxAge returns the configured prune age, or 30 days if unset.
func (c *Config) CacheMaxAge() time.Duration {
	if c.Cache.MaxAge == "" {
		return 30 * 24 * time.Hour
	}
	d, err := time.ParseDuration(c.Cache.MaxAge)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}

// RenderOptions returns the configured render options for a format,
// or nil when none are set.
func (c *Config) RenderOptions(format string) map[string]string {
	if c.Render == nil {
		return nil
	}
	return c.Render[format]
}
