// Package config provides configuration loading using koanf.
// Precedence: environment variables over compiled defaults.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/mpedrosa/launchclock/internal/domain"
)

// Config holds all service configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	// Logging configuration
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Service configuration
	Server    ServerConfig    `koanf:"server"`
	Countdown CountdownConfig `koanf:"countdown"`

	// Infrastructure configurations
	Redis RedisConfig `koanf:"redis"`

	// OpenTelemetry configuration
	OTEL OTELConfig `koanf:"otel"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	HTTPPort int `koanf:"http_port"`
}

// CountdownConfig holds the launch countdown configuration.
//
// The target instant comes from one of two sources: an explicit RFC 3339
// deadline, or a yearly recurring launch date (month/day at midnight UTC,
// rolled into next year once passed). An explicit deadline wins.
type CountdownConfig struct {
	Deadline     string        `koanf:"deadline"` // RFC 3339; empty uses the recurrence
	LaunchMonth  int           `koanf:"launch_month"`
	LaunchDay    int           `koanf:"launch_day"`
	TickInterval time.Duration `koanf:"tick_interval"`
	Headline     string        `koanf:"headline"` // shown once the countdown expires
}

// ResolveDeadline computes the countdown target from the configured source.
// Unparseable or out-of-range values yield domain.ErrInvalidDeadline.
func (c CountdownConfig) ResolveDeadline(clock domain.Clock) (time.Time, error) {
	if c.Deadline != "" {
		return domain.ParseDeadline(c.Deadline)
	}
	return domain.NextLaunch(time.Month(c.LaunchMonth), c.LaunchDay, clock)
}

// RedisConfig holds Redis configuration for the viewer-presence tracker.
// An empty Addr disables presence tracking.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Timeout  time.Duration `koanf:"timeout"`
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint    string `koanf:"endpoint"` // Empty disables OTLP export
	ServiceName string `koanf:"service_name"`
}

// defaults returns a Config with compiled default values.
func defaults() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		LogFormat:   "json",

		Server: ServerConfig{
			HTTPPort: 8080,
		},
		Countdown: CountdownConfig{
			LaunchMonth:  int(time.September),
			LaunchDay:    30,
			TickInterval: domain.TickInterval,
			Headline:     "We are live!",
		},

		Redis: RedisConfig{
			Addr:    "localhost:6379",
			DB:      0,
			Timeout: domain.RedisTimeout,
		},
	}
}

// Load loads configuration following the precedence:
// 1. Environment variables (highest)
// 2. Compiled defaults (lowest)
//
// Required keys missing or invalid cause startup failure; optional keys
// fall back to defaults.
func Load(ctx context.Context) (*Config, error) {
	k := koanf.New(".")

	// Start with compiled defaults
	cfg := defaults()

	// Load environment variables
	// Prefix: none (we use full names like SERVER_HTTP_PORT)
	err := k.Load(env.Provider("", ".", envToKey), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validate required fields
	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configSections are the nested config groups an env var may address.
var configSections = []string{"server_", "countdown_", "redis_", "otel_"}

// envToKey maps an environment variable name to a koanf key. Only the
// section prefix becomes a path separator, so SERVER_HTTP_PORT addresses
// server.http_port and LOG_LEVEL stays the top-level log_level.
func envToKey(s string) string {
	s = strings.ToLower(s)
	for _, section := range configSections {
		if rest, ok := strings.CutPrefix(s, section); ok {
			return strings.TrimSuffix(section, "_") + "." + rest
		}
	}
	return s
}

// validateRequired checks that required configuration is present and
// well-formed. The countdown target must resolve in every environment:
// a timer must never be scheduled against an unparseable deadline.
func validateRequired(cfg *Config) error {
	if _, err := cfg.Countdown.ResolveDeadline(domain.RealClock{}); err != nil {
		return fmt.Errorf("countdown target: %w", err)
	}
	if cfg.Countdown.TickInterval <= 0 {
		return fmt.Errorf("%w: countdown.tick_interval must be positive", domain.ErrInvalidInput)
	}

	if cfg.IsProd() {
		if cfg.Countdown.Headline == "" {
			return fmt.Errorf("%w: countdown.headline", domain.ErrConfigRequired)
		}
	}

	return nil
}

// IsLocal returns true if running in local development environment.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
