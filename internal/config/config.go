// Package config loads composer settings from defaults, an optional YAML
// file and COMPOSER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// COMPOSER_STORE_BACKEND.
const EnvPrefix = "COMPOSER"

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Compose ComposeConfig `mapstructure:"compose"`
	Canvas  CanvasConfig  `mapstructure:"canvas"`
}

// StoreConfig selects where the working document is persisted.
type StoreConfig struct {
	Backend   string `mapstructure:"backend"` // badger, redis or none
	Path      string `mapstructure:"path"`
	Key       string `mapstructure:"key"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ComposeConfig controls artifact generation.
type ComposeConfig struct {
	Version     string `mapstructure:"version"`
	CatalogFile string `mapstructure:"catalog_file"`
	Terraform   bool   `mapstructure:"terraform"`
}

// CanvasConfig holds hit-test sizes in canvas units.
type CanvasConfig struct {
	NodeRadius    float64 `mapstructure:"node_radius"`
	LinkTolerance float64 `mapstructure:"link_tolerance"`
}

// =============================================================================
// Config Loading
// =============================================================================

// DefaultStorePath is where the badger store lives unless configured.
func DefaultStorePath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".composer", "state")
	}
	return filepath.Join(base, "composer", "state")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", "badger")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.key", "network-diagram-state-v1")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")
	v.SetDefault("compose.version", "3.8")
	v.SetDefault("compose.catalog_file", "")
	v.SetDefault("compose.terraform", false)
	v.SetDefault("canvas.node_radius", 24)
	v.SetDefault("canvas.link_tolerance", 10)
}

// Load reads configuration. An empty path uses defaults and the environment
// only; a path that does not exist is ignored, a file that fails to parse is
// an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			if !errors.Is(err, os.ErrNotExist) {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("failed to read config file: %w", err)
				}
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "badger", "redis", "none":
	default:
		return fmt.Errorf("store.backend must be badger, redis or none, got %q", c.Store.Backend)
	}
	if c.Store.Key == "" {
		return errors.New("store.key must not be empty")
	}
	if c.Canvas.NodeRadius <= 0 || c.Canvas.LinkTolerance <= 0 {
		return errors.New("canvas sizes must be positive")
	}
	return nil
}
