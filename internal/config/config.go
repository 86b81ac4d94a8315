// Package config loads server configuration from a TOML file with
// environment variable overrides.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/philfreshman/diffpack/pkg/errors"
)

// Environment variables override file values.
const (
	EnvAddr            = "DIFFPACK_ADDR"
	EnvCacheTTL        = "DIFFPACK_CACHE_TTL"
	EnvDefaultRegistry = "DIFFPACK_DEFAULT_REGISTRY"
)

// Config is the full server configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Cache    Cache    `toml:"cache"`
	Registry Registry `toml:"registry"`
	Diff     Diff     `toml:"diff"`
}

// Server holds HTTP listener settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Cache holds upstream response cache settings.
type Cache struct {
	TTL duration `toml:"ttl"`
}

// Registry holds registry selection settings.
type Registry struct {
	// Default is the registry used when a request carries no
	// selection signal. One of "npm", "crates", "zig".
	Default string `toml:"default"`
}

// Diff holds diff tree settings.
type Diff struct {
	// SimilarityThreshold controls rename detection, in [0, 1].
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// duration wraps time.Duration for TOML string decoding ("15m").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:   Server{Addr: ":8080"},
		Cache:    Cache{TTL: duration{15 * time.Minute}},
		Registry: Registry{Default: "npm"},
		Diff:     Diff{SimilarityThreshold: 0.5},
	}
}

// Load reads configuration from an optional TOML file, applies
// environment overrides, and validates the result. An empty path skips
// the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "load config file %s", path)
		}
	}

	if addr := os.Getenv(EnvAddr); addr != "" {
		cfg.Server.Addr = addr
	}
	if ttl := os.Getenv(EnvCacheTTL); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", EnvCacheTTL)
		}
		cfg.Cache.TTL = duration{parsed}
	}
	if def := os.Getenv(EnvDefaultRegistry); def != "" {
		cfg.Registry.Default = def
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Registry.Default {
	case "npm", "crates", "zig":
	default:
		return errors.New(errors.ErrCodeInvalidRegistry, "unknown default registry: %s", c.Registry.Default)
	}
	if c.Diff.SimilarityThreshold < 0 || c.Diff.SimilarityThreshold > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "similarity threshold must be in [0, 1], got %v", c.Diff.SimilarityThreshold)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache ttl cannot be negative")
	}
	return nil
}

// CacheTTL returns the configured cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return c.Cache.TTL.Duration
}
