package domain

import "time"

// Compiled defaults. Cadence and buffer limits can be overridden via
// configuration; millisecond unit sizes are fixed by the wire contract.
const (
	// Countdown cadence. The timer recomputes remaining time once per
	// TickInterval; the final recomputation at or past the deadline is the
	// terminal one.
	TickInterval = 1 * time.Second

	// Milliseconds per display unit. Remaining-time decomposition uses
	// these divisors with floor semantics.
	MillisPerSecond int64 = 1000
	MillisPerMinute int64 = 60 * MillisPerSecond
	MillisPerHour   int64 = 60 * MillisPerMinute
	MillisPerDay    int64 = 24 * MillisPerHour

	// Stream limits. Ticks buffered per subscriber before the hub drops the
	// subscriber as a slow consumer.
	SubscriberBufferSize = 16
	MaxSubscribersPerHub = 10000

	// Viewer presence (Redis). Each connected viewer heartbeats once per
	// window; the counter key expires one window after the last write.
	PresenceWindow = 30 * time.Second
	PresenceKeyTTL = 2 * PresenceWindow

	// Timeout contracts
	RedisTimeout = 2 * time.Second

	// Graceful shutdown
	ShutdownDrainDelay      = 2 * time.Second
	ShutdownHTTPTimeout     = 10 * time.Second
	ShutdownOTELTimeout     = 5 * time.Second
	GracefulShutdownTimeout = 30 * time.Second
)

// Phase identifies which panel of the launch page is visible.
type Phase string

const (
	PhaseCountdown Phase = "countdown"
	PhaseLaunched  Phase = "launched"
)
