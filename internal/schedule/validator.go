package schedule

import (
	"fmt"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ValidateWindow checks a candidate booking window against the
// requester's role rule.  It is a pure function of the rule snapshot,
// the window and the supplied clock instant; occupancy is the
// conflict detector's concern and is never inspected here.  A nil
// rule means no rule is configured for the role and fails closed with
// MissingRule.  Returns nil when the window passes every check.
func ValidateWindow(rule *model.BookingRule, start, end, now time.Time) *PolicyError {
	win := Interval{Start: start, End: end}
	if !win.Valid() {
		return &PolicyError{
			Kind:   InvalidWindow,
			Detail: "end must be after start",
		}
	}
	if rule == nil {
		return &PolicyError{
			Kind:   MissingRule,
			Detail: "no booking rule configured for role",
		}
	}
	if win.Duration() > rule.MaxDuration() {
		return &PolicyError{
			Kind:   DurationExceeded,
			Detail: fmt.Sprintf("session longer than %dh allowed for %s", rule.MaxDurationHours, rule.RoleType),
		}
	}
	if start.Sub(now) > rule.MaxAdvance() {
		return &PolicyError{
			Kind:   TooFarInAdvance,
			Detail: fmt.Sprintf("start is beyond the %d-day horizon for %s", rule.MaxAdvanceDays, rule.RoleType),
		}
	}
	return nil
}
