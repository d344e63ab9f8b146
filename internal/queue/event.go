// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationDecidedEvent is published after a decision transaction
// commits.  It carries enough information for downstream consumers to
// log, notify or feed analytics without querying the primary
// database.  Delivery is at-least-once; consumers must tolerate the
// occasional duplicate.
type ReservationDecidedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	RoomID        uint64 `json:"room_id"`
	RoomName      string `json:"room_name"`
	RequesterID   uint64 `json:"requester_id"`
	DecidedBy     uint64 `json:"decided_by"`
	Decision      string `json:"decision"` // CONFIRMED or REJECTED
	Notes         string `json:"notes,omitempty"`
	Purpose       string `json:"purpose"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	DecidedAt     string `json:"decided_at"`
}
