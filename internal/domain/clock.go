package domain

import "time"

// Clock provides the current time. Implementations may be real (production)
// or deterministic (testing). The domain defines the interface; callers
// inject the implementation, so "now" is never ambient global state.
type Clock interface {
	// Now returns the current time. The returned time includes both wall clock
	// and monotonic readings when using RealClock.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
// It is a zero-allocation implementation (empty struct).
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// NowUTCMillis returns the current wall clock as UTC milliseconds since epoch.
func NowUTCMillis(c Clock) int64 {
	return c.Now().UTC().UnixMilli()
}

// Ensure RealClock implements Clock at compile time.
var _ Clock = RealClock{}
