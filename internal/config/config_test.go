package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpedrosa/launchclock/internal/config"
	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/internal/domain/domaintest"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)

	// Countdown defaults
	assert.Empty(t, cfg.Countdown.Deadline)
	assert.Equal(t, int(time.September), cfg.Countdown.LaunchMonth)
	assert.Equal(t, 30, cfg.Countdown.LaunchDay)
	assert.Equal(t, domain.TickInterval, cfg.Countdown.TickInterval)
	assert.Equal(t, "We are live!", cfg.Countdown.Headline)

	// Infrastructure defaults
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, domain.RedisTimeout, cfg.Redis.Timeout)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COUNTDOWN_DEADLINE", "2030-01-01T00:00:00Z")
	t.Setenv("SERVER_HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "2030-01-01T00:00:00Z", cfg.Countdown.Deadline)
	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidDeadline(t *testing.T) {
	t.Setenv("COUNTDOWN_DEADLINE", "next tuesday")

	_, err := config.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidDeadline)
}

func TestLoadRejectsInvalidLaunchDay(t *testing.T) {
	t.Setenv("COUNTDOWN_LAUNCH_DAY", "32")

	_, err := config.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidDeadline)
}

func TestResolveDeadline(t *testing.T) {
	clock := domaintest.NewFakeClock(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))

	t.Run("explicit deadline wins over recurrence", func(t *testing.T) {
		cc := config.CountdownConfig{
			Deadline:    "2025-12-24T18:00:00Z",
			LaunchMonth: int(time.September),
			LaunchDay:   30,
		}

		got, err := cc.ResolveDeadline(clock)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC), got)
	})

	t.Run("recurrence rolls past dates into next year", func(t *testing.T) {
		cc := config.CountdownConfig{
			LaunchMonth: int(time.September),
			LaunchDay:   30,
		}

		got, err := cc.ResolveDeadline(clock)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), got)
	})
}

func TestIsLocal(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"local returns true", "local", true},
		{"prod returns false", "prod", false},
		{"dev returns false", "dev", false},
		{"empty returns false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: tt.env}

			assert.Equal(t, tt.want, cfg.IsLocal())
		})
	}
}

func TestIsProd(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"prod returns true", "prod", true},
		{"local returns false", "local", false},
		{"dev returns false", "dev", false},
		{"empty returns false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: tt.env}

			assert.Equal(t, tt.want, cfg.IsProd())
		})
	}
}
