package server

import (
	"sync"
	"time"

	"github.com/mpedrosa/launchclock/internal/domain"
)

// launchState is the published view of the countdown: the last observed
// remaining duration and which panel of the launch page is visible. The
// timer goroutine writes it; HTTP handlers read it.
type launchState struct {
	mu        sync.RWMutex
	deadline  time.Time
	headline  string
	phase     domain.Phase
	remaining domain.Remaining
}

func newLaunchState(deadline time.Time, headline string, initial domain.Remaining) *launchState {
	s := &launchState{
		deadline:  deadline,
		headline:  headline,
		phase:     domain.PhaseCountdown,
		remaining: initial,
	}
	if initial.Expired() {
		s.phase = domain.PhaseLaunched
	}
	return s
}

// observe records the remaining duration from a tick.
func (s *launchState) observe(rem domain.Remaining) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = rem
}

// launch flips the visible content to the launched panel. One-way: the
// countdown phase is never restored.
func (s *launchState) launch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = domain.PhaseLaunched
}

// snapshot returns a consistent read of the current state.
func (s *launchState) snapshot() (domain.Phase, time.Time, string, domain.Remaining) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase, s.deadline, s.headline, s.remaining
}
