package model

import "time"

// BookingRule captures the per-role booking policy stored in the
// `booking_rules` table.  Exactly one rule exists per role; it is
// read-only at request-validation time and mutated only through the
// administrative settings endpoint.  When a role has no rule the
// validator fails closed rather than letting the request through.
//
// Fields:
//  ID               – primary key identifier.
//  RoleType         – role the rule applies to (one rule per role).
//  MaxDurationHours – longest session a requester with this role may book.
//  MaxAdvanceDays   – how far ahead of now a session may start.
//  UpdatedAt        – timestamp of last administrative change.
type BookingRule struct {
	ID               uint64    `json:"id"`                 // booking_rules.id
	RoleType         Role      `json:"role_type"`          // booking_rules.role_type
	MaxDurationHours uint32    `json:"max_duration_hours"` // booking_rules.max_duration_hours
	MaxAdvanceDays   uint32    `json:"max_advance_days"`   // booking_rules.max_advance_days
	UpdatedAt        time.Time `json:"updated_at"`         // booking_rules.updated_at
}

// MaxDuration returns the maximum session length as a time.Duration.
func (r BookingRule) MaxDuration() time.Duration {
	return time.Duration(r.MaxDurationHours) * time.Hour
}

// MaxAdvance returns the advance-booking horizon as a time.Duration.
func (r BookingRule) MaxAdvance() time.Duration {
	return time.Duration(r.MaxAdvanceDays) * 24 * time.Hour
}
