// Package display models the presentation sink the countdown writes into:
// four addressable slots holding formatted strings. The actual rendering
// (a web page's DOM) lives outside this process; implementations here
// range from a test double to the stream payload sent to browsers.
package display

import (
	"fmt"
	"strconv"

	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/pkg/protocol"
)

// Slot identifies one of the four display slots.
type Slot string

const (
	SlotDays    Slot = "days"
	SlotHours   Slot = "hours"
	SlotMinutes Slot = "minutes"
	SlotSeconds Slot = "seconds"
)

// Surface is an external sink with four addressable slots. The countdown
// only requires "set slot text"; everything else about presentation is the
// surface's concern.
type Surface interface {
	SetSlot(slot Slot, text string)
}

// FormatDays renders the days slot: unpadded decimal.
func FormatDays(days int) string {
	return strconv.Itoa(days)
}

// FormatUnit renders a clock-unit slot (hours, minutes, seconds):
// zero-padded to two digits.
func FormatUnit(v int) string {
	return fmt.Sprintf("%02d", v)
}

// Render writes a remaining duration into all four slots of the surface.
func Render(s Surface, rem domain.Remaining) {
	s.SetSlot(SlotDays, FormatDays(rem.Days))
	s.SetSlot(SlotHours, FormatUnit(rem.Hours))
	s.SetSlot(SlotMinutes, FormatUnit(rem.Minutes))
	s.SetSlot(SlotSeconds, FormatUnit(rem.Seconds))
}

// TickPayload converts a remaining duration into the wire payload sent to
// browser surfaces, using the same formatting rules as Render.
func TickPayload(rem domain.Remaining) protocol.Tick {
	return protocol.Tick{
		Days:        FormatDays(rem.Days),
		Hours:       FormatUnit(rem.Hours),
		Minutes:     FormatUnit(rem.Minutes),
		Seconds:     FormatUnit(rem.Seconds),
		TotalMillis: rem.TotalMillis,
	}
}
