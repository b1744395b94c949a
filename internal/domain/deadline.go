package domain

import (
	"fmt"
	"time"
)

// ParseDeadline parses an absolute deadline in RFC 3339 form. An empty or
// unparseable value yields ErrInvalidDeadline; callers must not start a
// timer against it.
func ParseDeadline(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty deadline", ErrInvalidDeadline)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDeadline, s)
	}
	return t.UTC(), nil
}

// NextLaunch returns midnight UTC of the given month/day in the clock's
// current year, rolled forward one year if that instant is not in the
// future. This keeps a yearly recurring launch target always ahead of
// "now" at startup.
func NextLaunch(month time.Month, day int, c Clock) (time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("%w: month %d", ErrInvalidDeadline, month)
	}
	if day < 1 || day > daysInMonth(month) {
		return time.Time{}, fmt.Errorf("%w: day %d of %s", ErrInvalidDeadline, day, month)
	}

	now := c.Now().UTC()
	target := time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if !target.After(now) {
		target = target.AddDate(1, 0, 0)
	}
	return target, nil
}

// daysInMonth returns the maximum day number valid for month in any year.
// February allows 29; a Feb 29 target in a non-leap year normalizes to
// March 1 of that year via time.Date.
func daysInMonth(m time.Month) int {
	switch m {
	case time.February:
		return 29
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
