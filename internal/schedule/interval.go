// Package schedule implements the reservation scheduling core:
// half-open interval math, conflict detection against a room's
// confirmed set, per-role booking policy validation, and the
// reservation lifecycle state machine (submit and decide).
package schedule

import "time"

// Interval is a half-open time window [Start, End).  All instants are
// UTC.  The half-open convention means back-to-back bookings
// (one ending exactly when the next starts) never overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is well formed: Start strictly
// before End.  Empty and inverted windows are invalid.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether two half-open intervals share at least one
// instant: s1 < e2 && s2 < e1.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration returns the length of the interval.  Negative for invalid
// windows; callers are expected to check Valid first.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}
