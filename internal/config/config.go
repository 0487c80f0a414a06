// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/nailbiter/internal/domain/excitement"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many event ids the ranking run remembers.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRankingLimit caps GET /v1/rankings/{date}?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	ESPNBaseURL   string `koanf:"espn_base_url"`
	ESPNSport     string `koanf:"espn_sport"`
	ESPNTimeoutMS int    `koanf:"espn_timeout_ms"`

	// RefreshIntervalS schedules a ranking run for yesterday's games.
	// Zero disables the scheduler.
	RefreshIntervalS int `koanf:"refresh_interval_s"`

	// StoreBackend is memory, sqlite or redis.
	StoreBackend  string `koanf:"store_backend"`
	SQLitePath    string `koanf:"sqlite_path"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisTTLH     int    `koanf:"redis_ttl_h"`

	// CORSOrigins lists allowed browser origins, comma separated from env.
	// Empty allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	Weights    excitement.Weights    `koanf:"weights"`
	Norms      excitement.Norms      `koanf:"norms"`
	Thresholds excitement.Thresholds `koanf:"thresholds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	p := excitement.DefaultPolicy()
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        1024,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       50_000,
		MaxRankingLimit:  100,
		ESPNBaseURL:      "https://site.api.espn.com/apis/site/v2/sports",
		ESPNSport:        "basketball/nba",
		ESPNTimeoutMS:    10_000,
		RefreshIntervalS: 0,
		StoreBackend:     "memory",
		SQLitePath:       "nailbiter.db",
		RedisAddr:        "localhost:6379",
		RedisTTLH:        24 * 14,
		Weights:          p.Weights,
		Norms:            p.Norms,
		Thresholds:       p.Thresholds,
	}
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.MaxRankingLimit <= 0:
		return fmt.Errorf("%w: max_ranking_limit must be positive, got %d", ErrInvalidConfig, c.MaxRankingLimit)
	case c.ESPNTimeoutMS <= 0:
		return fmt.Errorf("%w: espn_timeout_ms must be positive, got %d", ErrInvalidConfig, c.ESPNTimeoutMS)
	case c.RefreshIntervalS < 0:
		return fmt.Errorf("%w: refresh_interval_s must not be negative", ErrInvalidConfig)
	case c.RedisTTLH < 0:
		return fmt.Errorf("%w: redis_ttl_h must not be negative", ErrInvalidConfig)
	}

	switch strings.ToLower(c.StoreBackend) {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite backend", ErrInvalidConfig)
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}

	// The scorer silently keeps defaults for bad policy values; surface them here instead.
	if err := c.validatePolicy(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePolicy() error {
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Policy returns the scoring policy described by the config.
func (c *Config) Policy() excitement.Policy {
	p := excitement.DefaultPolicy()
	p.Weights = c.Weights
	p.Norms = c.Norms
	p.Thresholds = c.Thresholds
	return p
}

func (c *Config) ESPNTimeout() time.Duration {
	return time.Duration(c.ESPNTimeoutMS) * time.Millisecond
}

// RefreshInterval is zero when scheduled refreshes are off.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalS) * time.Second
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.RedisTTLH) * time.Hour
}
