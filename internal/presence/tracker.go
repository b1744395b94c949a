// Package presence tracks how many viewers currently have the launch page
// open, backed by a Redis sorted set of viewer heartbeats. The count is
// cosmetic ("12,431 people waiting"), so unlike a rate limiter this adapter
// fails open: Redis errors degrade to a zero count instead of blocking the
// page.
package presence

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/internal/observability"
	redisclient "github.com/mpedrosa/launchclock/internal/redis"
)

var tracer = observability.Tracer("presence")

const viewersKey = "launchclock:viewers"

// heartbeatScript atomically records a viewer heartbeat, prunes entries
// older than the presence window, refreshes the key TTL, and returns the
// live count. A single round trip keeps the tick path cheap.
const heartbeatScript = `
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[3])
redis.call('EXPIRE', KEYS[1], ARGV[4])
return redis.call('ZCARD', KEYS[1])
`

// Tracker implements viewer-presence operations backed by Redis.
type Tracker struct {
	cmd   redisclient.Cmdable
	clock domain.Clock
}

// NewTracker creates a Tracker that uses cmd for Redis operations and clock
// for window arithmetic.
func NewTracker(cmd redisclient.Cmdable, clock domain.Clock) *Tracker {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Tracker{cmd: cmd, clock: clock}
}

// Heartbeat records activity for viewerID and returns the number of viewers
// seen within the presence window.
func (t *Tracker) Heartbeat(ctx context.Context, viewerID string) (int64, error) {
	if viewerID == "" {
		return 0, fmt.Errorf("presence heartbeat: %w: empty viewer ID", domain.ErrInvalidInput)
	}

	ctx, span := tracer.Start(ctx, "redis.presence.heartbeat")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "EVAL"),
	)

	now := domain.NowUTCMillis(t.clock)
	cutoff := now - domain.PresenceWindow.Milliseconds()
	ttl := int64(domain.PresenceKeyTTL.Seconds())

	count, err := t.cmd.Eval(ctx, heartbeatScript,
		[]string{viewersKey},
		now, viewerID, cutoff, ttl,
	).Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		// Classify Redis failures as retryable unavailability so callers
		// can keep the page up and try again next window.
		return 0, fmt.Errorf("presence heartbeat %q: %w: %v", viewerID, domain.ErrUnavailable, err)
	}

	return count, nil
}

// Count returns the number of viewers seen within the presence window
// without recording a heartbeat.
func (t *Tracker) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "redis.presence.count")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "ZCOUNT"),
	)

	cutoff := domain.NowUTCMillis(t.clock) - domain.PresenceWindow.Milliseconds()

	// Exclusive bound: the heartbeat script prunes scores <= cutoff.
	count, err := t.cmd.ZCount(ctx, viewersKey, "("+strconv.FormatInt(cutoff, 10), "+inf").Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("presence count: %w: %v", domain.ErrUnavailable, err)
	}

	return count, nil
}
