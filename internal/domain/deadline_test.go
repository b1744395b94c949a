package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/internal/domain/domaintest"
)

func TestParseDeadline(t *testing.T) {
	t.Run("parses RFC 3339 and normalizes to UTC", func(t *testing.T) {
		got, err := domain.ParseDeadline("2025-09-30T02:00:00+02:00")

		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), got)
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("empty deadline is invalid", func(t *testing.T) {
		_, err := domain.ParseDeadline("")

		assert.ErrorIs(t, err, domain.ErrInvalidDeadline)
	})

	t.Run("unparseable deadline is invalid", func(t *testing.T) {
		tests := []string{
			"tomorrow",
			"2025-13-01T00:00:00Z",
			"2025-09-30",
			"1695945600",
		}
		for _, s := range tests {
			_, err := domain.ParseDeadline(s)
			assert.ErrorIs(t, err, domain.ErrInvalidDeadline, "input %q", s)
		}
	})
}

func TestNextLaunch(t *testing.T) {
	t.Run("target later this year stays in current year", func(t *testing.T) {
		clock := domaintest.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

		got, err := domain.NextLaunch(time.September, 30, clock)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("target already past rolls to next year", func(t *testing.T) {
		clock := domaintest.NewFakeClock(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))

		got, err := domain.NextLaunch(time.September, 30, clock)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("launch day itself rolls to next year", func(t *testing.T) {
		// Midnight of the launch day is not in the future once reached.
		clock := domaintest.NewFakeClock(time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC))

		got, err := domain.NextLaunch(time.September, 30, clock)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("one second before midnight stays in current year", func(t *testing.T) {
		clock := domaintest.NewFakeClock(time.Date(2025, 9, 29, 23, 59, 59, 0, time.UTC))

		got, err := domain.NextLaunch(time.September, 30, clock)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("result is always in the future", func(t *testing.T) {
		clock := domaintest.NewFakeClock(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))

		got, err := domain.NextLaunch(time.January, 1, clock)

		require.NoError(t, err)
		assert.True(t, got.After(clock.Now()))
	})

	t.Run("invalid month is rejected", func(t *testing.T) {
		clock := domaintest.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

		_, err := domain.NextLaunch(time.Month(13), 1, clock)

		assert.ErrorIs(t, err, domain.ErrInvalidDeadline)
	})

	t.Run("invalid day is rejected", func(t *testing.T) {
		clock := domaintest.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

		tests := []struct {
			month time.Month
			day   int
		}{
			{time.September, 31},
			{time.February, 30},
			{time.January, 0},
			{time.January, -1},
		}
		for _, tt := range tests {
			_, err := domain.NextLaunch(tt.month, tt.day, clock)
			assert.ErrorIs(t, err, domain.ErrInvalidDeadline, "%s %d", tt.month, tt.day)
		}
	})
}
