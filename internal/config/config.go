// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds runtime settings for the server and the admin CLI.
type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	StaticPath string `env:"STATIC_PATH"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	Backend       string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DBPath        string `env:"DB_PATH" envDefault:"./data/storefront.db"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_KEY_PREFIX" envDefault:"storefront:"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"storefront-dev-secret"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// SimulatedLatency delays register, login and submit responses.
	SimulatedLatency time.Duration `env:"SIMULATED_LATENCY" envDefault:"0s"`
}

// Load parses Config from the process environment.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses Config from environ when non-nil, otherwise from the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the env tags cannot express.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q: must be sqlite, redis or memory", c.Backend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.SimulatedLatency < 0 {
		return fmt.Errorf("SIMULATED_LATENCY must not be negative, got %s", c.SimulatedLatency)
	}
	return nil
}
