package schedule

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the lifecycle engine.  Handlers compare
// with errors.Is and translate them into HTTP responses.
var (
	// ErrNotFound is returned when the reservation being decided does
	// not exist.  The caller holds a stale identifier.
	ErrNotFound = errors.New("reservation not found")

	// ErrRoomNotFound is returned by submit when the requested room
	// does not exist or is inactive.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRestrictedRoom is returned by submit when a restricted room
	// is requested by a role without clearance.  Restricted rooms are
	// bookable by STAFF and ADMIN only.
	ErrRestrictedRoom = errors.New("room is restricted")

	// ErrAlreadyDecided is returned when a decision targets a
	// reservation that is no longer pending.  Retries are rejected
	// rather than silently accepted so callers can detect duplicate
	// submissions.
	ErrAlreadyDecided = errors.New("reservation already decided")

	// ErrConflict is returned when confirming a reservation would
	// overlap an existing confirmed reservation for the same room.
	// The reservation stays pending; the decision may be retried once
	// the conflicting reservation is itself resolved.
	ErrConflict = errors.New("scheduling conflict")
)

// ViolationKind identifies which booking policy a submission broke.
type ViolationKind string

const (
	// InvalidWindow: the requested end does not come after the start.
	InvalidWindow ViolationKind = "invalid_window"
	// MissingRule: no booking rule is configured for the requester's
	// role.  Validation fails closed, never open.
	MissingRule ViolationKind = "missing_rule"
	// DurationExceeded: the window is longer than the role's maximum
	// session duration.
	DurationExceeded ViolationKind = "duration_exceeded"
	// TooFarInAdvance: the window starts beyond the role's
	// advance-booking horizon.
	TooFarInAdvance ViolationKind = "too_far_in_advance"
)

// PolicyError reports a booking-rule violation detected before any
// conflict check.  Policy errors are user-correctable and returned
// synchronously to the submitter; no record is created.
type PolicyError struct {
	Kind   ViolationKind
	Detail string
}

func (e *PolicyError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("policy violation: %s", e.Kind)
	}
	return fmt.Sprintf("policy violation: %s (%s)", e.Kind, e.Detail)
}

// AsPolicyError unwraps err into a *PolicyError when it is one.
func AsPolicyError(err error) (*PolicyError, bool) {
	var pe *PolicyError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
