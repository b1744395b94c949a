package domain

import "time"

// Remaining is the decomposed time left until a deadline, recomputed on each
// tick. TotalMillis carries the true signed difference; the unit fields are
// always non-negative and clamp to zero once the deadline has passed, since
// any negative total is expiry-equivalent for display.
type Remaining struct {
	TotalMillis int64
	Days        int
	Hours       int
	Minutes     int
	Seconds     int
}

// Expired reports whether the remaining time has reached the terminal state.
func (r Remaining) Expired() bool {
	return r.TotalMillis <= 0
}

// Until computes the remaining duration from now to deadline. Pure function:
// no side effects, total over all inputs including now past deadline.
//
// Decomposition uses floor division on the positive total:
// days = total / 86_400_000, then hours/minutes/seconds from the remainders.
// Reconstituting the total from the four fields is lossless for totals that
// are whole seconds.
func Until(deadline, now time.Time) Remaining {
	total := deadline.Sub(now).Milliseconds()
	r := Remaining{TotalMillis: total}
	if total <= 0 {
		return r
	}

	r.Days = int(total / MillisPerDay)
	r.Hours = int(total % MillisPerDay / MillisPerHour)
	r.Minutes = int(total % MillisPerHour / MillisPerMinute)
	r.Seconds = int(total % MillisPerMinute / MillisPerSecond)
	return r
}
