package model

import "time"

// ReservationStatus is the closed set of reservation states.  A
// reservation starts PENDING and is moved exactly once, by an
// administrative decision, to CONFIRMED or REJECTED.  Both decided
// states are terminal.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusRejected  ReservationStatus = "REJECTED"
)

// ParseReservationStatus normalises a raw status string into a
// ReservationStatus.  The boolean reports whether the input named a
// known status.
func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch ReservationStatus(s) {
	case StatusPending:
		return StatusPending, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// Decided reports whether the status is terminal.
func (s ReservationStatus) Decided() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// String returns the status as stored in the database.
func (s ReservationStatus) String() string { return string(s) }

// Reservation records a user's request for a room over a half-open
// time window [StartTime, EndTime).  Invariant: StartTime < EndTime.
// The status is written exactly once by an administrative decision;
// re-deciding an already decided reservation is rejected.  Rows are
// never hard-deleted while audit history references them.
//
// Fields:
//  ID            – primary key identifier.
//  RoomID        – room being requested.
//  UserID        – requester.
//  StartTime     – start instant (inclusive), UTC.
//  EndTime       – end instant (exclusive), UTC.
//  Purpose       – free-text purpose supplied by the requester.
//  Status        – lifecycle state (PENDING, CONFIRMED, REJECTED).
//  DecidedBy     – administrator who decided, null while pending.
//  DecisionNotes – notes supplied with the decision, null while pending.
//  DecidedAt     – when the decision was applied, null while pending.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            uint64            `json:"id"`                       // reservations.id
	RoomID        uint64            `json:"room_id"`                  // reservations.room_id
	UserID        uint64            `json:"user_id"`                  // reservations.user_id
	StartTime     time.Time         `json:"start_time"`               // reservations.start_time
	EndTime       time.Time         `json:"end_time"`                 // reservations.end_time
	Purpose       string            `json:"purpose"`                  // reservations.purpose
	Status        ReservationStatus `json:"status"`                   // reservations.status
	DecidedBy     *uint64           `json:"decided_by,omitempty"`     // reservations.decided_by (nullable)
	DecisionNotes *string           `json:"decision_notes,omitempty"` // reservations.decision_notes (nullable)
	DecidedAt     *time.Time        `json:"decided_at,omitempty"`     // reservations.decided_at (nullable)
	CreatedAt     time.Time         `json:"created_at"`               // reservations.created_at
	UpdatedAt     time.Time         `json:"updated_at"`               // reservations.updated_at
}
