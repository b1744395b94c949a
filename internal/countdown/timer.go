// Package countdown implements the launch countdown engine: a cancellable
// repeating timer that recomputes the remaining time until a fixed deadline
// on every tick and fires a one-shot expiry transition when the deadline is
// reached.
package countdown

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/internal/observability"
)

var (
	ticksTotal  metric.Int64Counter
	expiryTotal metric.Int64Counter
)

func init() {
	m := observability.Meter("countdown")

	ticksTotal, _ = m.Int64Counter("countdown_ticks_total",
		metric.WithDescription("Total countdown ticks published"))
	expiryTotal, _ = m.Int64Counter("countdown_expiry_total",
		metric.WithDescription("Total countdown expiry transitions"))
}

// TickerFunc produces a tick channel for the given interval and a stop
// function releasing it. Injectable so tests can drive ticks manually.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func defaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Config holds the parameters for a countdown timer.
type Config struct {
	// Deadline is the absolute instant counted down to. Required; the zero
	// value fails construction with domain.ErrInvalidDeadline.
	Deadline time.Time

	// OnTick receives the recomputed remaining duration on every tick,
	// including the terminal one. Required.
	OnTick func(domain.Remaining)

	// OnExpire fires exactly once, after the terminal tick. Optional.
	OnExpire func()

	// Interval is the tick cadence. Defaults to domain.TickInterval.
	Interval time.Duration

	// Clock supplies "now" readings. Defaults to domain.RealClock.
	Clock domain.Clock

	// Ticker supplies the tick channel. Defaults to time.NewTicker.
	Ticker TickerFunc

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handle controls a running countdown timer. It is the only shared mutable
// resource of the timer and is owned by whoever started it.
type Handle struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Stop cancels the timer. Idempotent: the second and later calls are no-ops.
// It blocks until the tick goroutine has exited, so after Stop returns no
// further OnTick or OnExpire invocation is delivered.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}

// Done returns a channel closed once the timer has stopped ticking, whether
// by expiry, cancellation, or context cancellation.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start validates cfg and begins ticking against the wall clock at the
// configured cadence. Validation failures are reported synchronously before
// any ticking begins; no partial timer state is created. The returned Handle
// cancels the timer.
//
// Ticks are delivered serially from a single goroutine in non-decreasing
// time order. The first tick that observes an expired remaining duration is
// delivered to OnTick, then OnExpire fires exactly once and ticking stops
// permanently.
func Start(ctx context.Context, cfg Config) (*Handle, error) {
	if cfg.Deadline.IsZero() {
		return nil, fmt.Errorf("start countdown: %w: zero deadline", domain.ErrInvalidDeadline)
	}
	if cfg.OnTick == nil {
		return nil, fmt.Errorf("start countdown: %w: OnTick is required", domain.ErrInvalidInput)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = domain.TickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = domain.RealClock{}
	}
	if cfg.Ticker == nil {
		cfg.Ticker = defaultTicker
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	tickC, stopTicker := cfg.Ticker(cfg.Interval)

	go run(ctx, cfg, h, tickC, stopTicker)

	return h, nil
}

func run(ctx context.Context, cfg Config, h *Handle, tickC <-chan time.Time, stopTicker func()) {
	defer close(h.done)
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			cfg.Logger.Debug("countdown cancelled by context")
			return
		case <-h.stop:
			cfg.Logger.Debug("countdown stopped")
			return
		case <-tickC:
			// Cancellation wins over a simultaneously ready tick.
			select {
			case <-h.stop:
				cfg.Logger.Debug("countdown stopped")
				return
			case <-ctx.Done():
				cfg.Logger.Debug("countdown cancelled by context")
				return
			default:
			}

			rem := domain.Until(cfg.Deadline, cfg.Clock.Now())
			cfg.OnTick(rem)
			ticksTotal.Add(ctx, 1)

			if rem.Expired() {
				cfg.Logger.Info("countdown expired",
					slog.Int64("total_ms", rem.TotalMillis),
					slog.Time("deadline", cfg.Deadline),
				)
				expiryTotal.Add(ctx, 1)
				if cfg.OnExpire != nil {
					cfg.OnExpire()
				}
				return
			}
		}
	}
}
