// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultAddr    = ":8080"
	DefaultDriver  = "sqlite"
	DefaultDSN     = "todos.db"
	DefaultFeedURL = "https://jsonplaceholder.typicode.com/todos"
)

const minSecretLength = 32

// Config holds the full server configuration. Values are layered:
// defaults, then an optional TOML file, then environment variables.
type Config struct {
	Addr      string `toml:"addr"`
	Driver    string `toml:"db_driver"`
	DSN       string `toml:"database_url"`
	JWTSecret string `toml:"jwt_secret"`
	FeedURL   string `toml:"feed_url"`
	Seed      bool   `toml:"seed"`
}

// Load builds the configuration. path may be empty (no file).
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:    DefaultAddr,
		Driver:  DefaultDriver,
		DSN:     DefaultDSN,
		FeedURL: DefaultFeedURL,
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}

	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Driver = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DSN = v
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}

	if v := os.Getenv("FEED_URL"); v != "" {
		cfg.FeedURL = v
	}

	if v := os.Getenv("SEED"); v != "" {
		if seed, err := strconv.ParseBool(v); err == nil {
			cfg.Seed = seed
		}
	}
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("jwt_secret is missing or shorter than %d characters", minSecretLength)
	}

	if c.Driver != "sqlite" && c.Driver != "postgres" {
		return fmt.Errorf("unknown db_driver %q (want sqlite or postgres)", c.Driver)
	}

	return nil
}
