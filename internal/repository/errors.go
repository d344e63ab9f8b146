// Package repository defines the data-access layer and the sentinel
// error values shared across repositories.  Sentinels let handlers
// distinguish failure scenarios without inspecting driver errors: for
// example ErrRoomNotFound maps to a 404 while ErrConflict maps to a
// 409.  Row-level "no rows" conditions surface as sql.ErrNoRows
// unless a more specific sentinel is documented on the method.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource belonging to someone else, such as marking another user's
// notification as read.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent records, such as removing a room that still
// has reservations on file.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrRoomNotFound is returned when a room lookup matches no row.
var ErrRoomNotFound = errors.New("room not found")

// ErrRuleNotFound is returned when no booking rule exists for a role.
// The rule validator treats this as a fail-closed condition.
var ErrRuleNotFound = errors.New("booking rule not found")

// ErrEmailExists is returned when registration collides with an
// existing account email.
var ErrEmailExists = errors.New("email already exists")
