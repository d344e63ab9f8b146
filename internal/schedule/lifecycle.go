package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/room-reservation/internal/audit"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// Decision is the administrative verdict applied to a pending
// reservation.
type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionReject  Decision = "reject"
)

// ParseDecision normalises a raw decision string.  The boolean
// reports whether the input named a known decision.
func ParseDecision(s string) (Decision, bool) {
	switch Decision(s) {
	case DecisionConfirm:
		return DecisionConfirm, true
	case DecisionReject:
		return DecisionReject, true
	}
	return "", false
}

// PublishFunc dispatches a decision event to the message broker after
// the transaction commits.  It may fail; delivery is at-least-once
// and never blocks or fails the decision itself.
type PublishFunc func(ctx context.Context, ev queue.ReservationDecidedEvent) error

// Engine owns the reservation lifecycle state machine.  It is the
// sole writer of Reservation.Status and the sole creator of
// notifications and decision audit records.  Each request runs on its
// own transaction; the engine holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	db            *sql.DB
	reservations  *repository.ReservationRepo
	rooms         *repository.RoomRepo
	rules         *repository.RuleRepo
	audits        *repository.AuditRepo
	notifications *repository.NotificationRepo
	detector      *Detector
	publish       PublishFunc
	now           func() time.Time
}

// NewEngine wires the lifecycle engine.  publish may be nil to
// disable broker dispatch (tests, broker-less deployments).
func NewEngine(
	db *sql.DB,
	reservations *repository.ReservationRepo,
	rooms *repository.RoomRepo,
	rules *repository.RuleRepo,
	audits *repository.AuditRepo,
	notifications *repository.NotificationRepo,
	publish PublishFunc,
) *Engine {
	if db == nil || reservations == nil || rooms == nil || rules == nil || audits == nil || notifications == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{
		db:            db,
		reservations:  reservations,
		rooms:         rooms,
		rules:         rules,
		audits:        audits,
		notifications: notifications,
		detector:      NewDetector(reservations),
		publish:       publish,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Detector exposes the engine's conflict detector for advisory
// queries (availability endpoints).
func (e *Engine) Detector() *Detector { return e.detector }

// SubmitInput carries a reservation request.
type SubmitInput struct {
	RoomID  uint64
	UserID  uint64
	Role    model.Role
	Start   time.Time
	End     time.Time
	Purpose string
}

// Submit validates the request against the requester's booking rule
// and, on success, creates a PENDING reservation together with its
// create audit record in one transaction.  Conflicts are NOT checked
// as a gate here: several pending requests may queue for the same
// slot, and contention is resolved at decision time.  The returned
// slice is the advisory list of confirmed reservations currently
// overlapping the window, for display only.
//
// Failure modes: *PolicyError for rule violations (nothing is
// created), ErrRoomNotFound for unknown or inactive rooms,
// ErrRestrictedRoom for a restricted room without clearance.
func (e *Engine) Submit(ctx context.Context, in SubmitInput) (*model.Reservation, []model.Reservation, error) {
	room, err := e.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, err
	}
	if !room.IsActive {
		return nil, nil, ErrRoomNotFound
	}
	if room.IsRestricted && in.Role != model.RoleStaff && in.Role != model.RoleAdmin {
		return nil, nil, ErrRestrictedRoom
	}

	rule, err := e.rules.GetByRole(ctx, in.Role)
	if err != nil && !errors.Is(err, repository.ErrRuleNotFound) {
		return nil, nil, err
	}
	if pe := ValidateWindow(rule, in.Start, in.End, e.now()); pe != nil {
		return nil, nil, pe
	}

	res := &model.Reservation{
		RoomID:    in.RoomID,
		UserID:    in.UserID,
		StartTime: in.Start.UTC(),
		EndTime:   in.End.UTC(),
		Purpose:   in.Purpose,
		Status:    model.StatusPending,
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := e.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, nil, err
	}
	if err := e.recordAuditTx(ctx, tx, model.AuditCreate, in.UserID, nil, res); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true

	// Advisory only: a failure here must not undo the submission.
	advisory, err := e.detector.FindConflicts(ctx, in.RoomID, Interval{Start: res.StartTime, End: res.EndTime}, res.ID)
	if err != nil {
		log.Printf("schedule: advisory conflict scan failed for reservation %d: %v", res.ID, err)
		advisory = []model.Reservation{}
	}
	return res, advisory, nil
}

// DecideInput carries an administrative decision.
type DecideInput struct {
	ReservationID uint64
	Decision      Decision
	ActorID       uint64
	Notes         string
}

// Decide applies a confirm/reject decision to a pending reservation.
// The conflict re-check, the status write and the audit/notification
// inserts run as a single transaction: a confirm first takes an
// exclusive lock on the room row, then re-queries the room's
// confirmed set, so two concurrent confirms for overlapping windows
// serialize and the loser sees the winner's row.  On any failure the
// transaction rolls back and the reservation stays PENDING with no
// audit record or notification written.
//
// Failure modes: ErrNotFound, ErrAlreadyDecided, ErrConflict.
func (e *Engine) Decide(ctx context.Context, in DecideInput) (*model.Reservation, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := e.reservations.GetByIDForUpdateTx(ctx, tx, in.ReservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if res.Status.Decided() {
		return nil, ErrAlreadyDecided
	}
	pre := *res

	var newStatus model.ReservationStatus
	switch in.Decision {
	case DecisionConfirm:
		newStatus = model.StatusConfirmed
	case DecisionReject:
		newStatus = model.StatusRejected
	default:
		return nil, fmt.Errorf("unknown decision %q", in.Decision)
	}

	if newStatus == model.StatusConfirmed {
		// Serialize confirms per room, then run the authoritative
		// overlap check against the confirmed set.
		if err := e.rooms.LockTx(ctx, tx, res.RoomID); err != nil {
			return nil, err
		}
		conflicts, err := e.reservations.ListConfirmedOverlappingTx(ctx, tx, res.RoomID, res.StartTime, res.EndTime, res.ID)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, ErrConflict
		}
	}

	decidedAt := e.now()
	if err := e.reservations.MarkDecidedTx(ctx, tx, res.ID, newStatus, in.ActorID, in.Notes, decidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyDecided
		}
		return nil, err
	}
	post, err := e.reservations.GetByIDForUpdateTx(ctx, tx, res.ID)
	if err != nil {
		return nil, err
	}

	if err := e.recordAuditTx(ctx, tx, model.AuditUpdate, in.ActorID, &pre, post); err != nil {
		return nil, err
	}

	room, err := e.rooms.GetByIDTx(ctx, tx, res.RoomID)
	if err != nil {
		return nil, err
	}
	notif := buildDecisionNotification(post, room, in.Notes)
	if err := e.notifications.CreateTx(ctx, tx, notif); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.dispatchDecisionEvent(post, room, in)
	return post, nil
}

// recordAuditTx writes one ledger row for a reservation mutation.
// The diff is computed up front so a malformed image fails the
// transaction instead of poisoning the ledger; only the images are
// stored, and readers recompute the diff from them.
func (e *Engine) recordAuditTx(ctx context.Context, tx *sql.Tx, action model.AuditAction, actorID uint64, pre, post *model.Reservation) error {
	var preJSON, postJSON json.RawMessage
	if pre != nil {
		b, err := json.Marshal(pre)
		if err != nil {
			return err
		}
		preJSON = b
	}
	if post != nil {
		b, err := json.Marshal(post)
		if err != nil {
			return err
		}
		postJSON = b
	}
	if _, err := audit.Diff(preJSON, postJSON); err != nil {
		return fmt.Errorf("audit image rejected: %w", err)
	}

	recordID := uint64(0)
	if post != nil {
		recordID = post.ID
	} else if pre != nil {
		recordID = pre.ID
	}
	rec := &model.AuditRecord{
		TargetTable: "reservations",
		RecordID:    recordID,
		Action:      action,
		ActorID:     actorID,
		PreImage:    preJSON,
		PostImage:   postJSON,
	}
	return e.audits.CreateTx(ctx, tx, rec)
}

// buildDecisionNotification renders the inbox message for a decision.
// Confirmations are friendly; rejections carry the administrator's
// notes so the requester knows why.
func buildDecisionNotification(res *model.Reservation, room *model.Room, notes string) *model.Notification {
	resID := res.ID
	if res.Status == model.StatusConfirmed {
		return &model.Notification{
			UserID:        res.UserID,
			ReservationID: &resID,
			Subject:       "Booking Confirmed",
			Body:          fmt.Sprintf("Your request for %s has been approved. Please ensure you check in on time.", room.Name),
			Category:      model.NotifySuccess,
		}
	}
	body := fmt.Sprintf("Regrettably, your request for %s was not approved.", room.Name)
	if notes != "" {
		body += " " + notes
	}
	return &model.Notification{
		UserID:        res.UserID,
		ReservationID: &resID,
		Subject:       "Booking Update",
		Body:          body,
		Category:      model.NotifyWarning,
	}
}

// dispatchDecisionEvent publishes the decided event after commit.
// Fire-and-forget: publishing runs on its own goroutine with a fresh
// context so a slow broker cannot hold up the response, and a failed
// publish only logs (the notification row is already committed).
func (e *Engine) dispatchDecisionEvent(res *model.Reservation, room *model.Room, in DecideInput) {
	if e.publish == nil {
		return
	}
	ev := queue.ReservationDecidedEvent{
		ReservationID: res.ID,
		RoomID:        room.ID,
		RoomName:      room.Name,
		RequesterID:   res.UserID,
		DecidedBy:     in.ActorID,
		Decision:      res.Status.String(),
		Notes:         in.Notes,
		Purpose:       res.Purpose,
		StartsAt:      res.StartTime.UTC().Format(time.RFC3339),
		EndsAt:        res.EndTime.UTC().Format(time.RFC3339),
	}
	if res.DecidedAt != nil {
		ev.DecidedAt = res.DecidedAt.UTC().Format(time.RFC3339)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.publish(ctx, ev); err != nil {
			log.Printf("schedule: decision event publish failed for reservation %d: %v", res.ID, err)
		}
	}()
}
