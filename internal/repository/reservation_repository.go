package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations.  All
// timestamp columns are stored in UTC and scanned directly into
// time.Time (the pool is opened with parseTime=true&loc=UTC).  The
// *Tx variants run inside a caller-owned transaction; the lifecycle
// engine composes them so that the decision conflict re-check, the
// status write and the audit/notification inserts commit as one unit.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying pool so callers can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = `id, room_id, user_id, start_time, end_time, purpose, status,
       decided_by, decision_notes, decided_at, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx, letting the
// overlap query run with or without a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// rowQueryer is the single-row counterpart of queryer.
type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res       model.Reservation
		status    string
		decidedBy sql.NullInt64
		notes     sql.NullString
		decidedAt sql.NullTime
	)
	if err := row.Scan(
		&res.ID, &res.RoomID, &res.UserID, &res.StartTime, &res.EndTime, &res.Purpose, &status,
		&decidedBy, &notes, &decidedAt, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	st, ok := model.ParseReservationStatus(status)
	if !ok {
		return nil, fmt.Errorf("reservation %d has unknown status %q", res.ID, status)
	}
	res.Status = st
	if decidedBy.Valid {
		v := uint64(decidedBy.Int64)
		res.DecidedBy = &v
	}
	if notes.Valid {
		v := notes.String
		res.DecisionNotes = &v
	}
	if decidedAt.Valid {
		v := decidedAt.Time.UTC()
		res.DecidedAt = &v
	}
	return &res, nil
}

// CreateTx inserts a new pending reservation within the scope of an
// existing transaction.  It queries the row back to populate the
// generated ID and database defaults; the caller must commit or roll
// back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (room_id, user_id, start_time, end_time, purpose, status)
               VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.RoomID, res.UserID, res.StartTime.UTC(), res.EndTime.UTC(), res.Purpose, res.Status.String())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	const sel = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	filled, err := scanReservation(tx.QueryRowContext(ctx, sel, id))
	if err != nil {
		return err
	}
	*res = *filled
	return nil
}

// GetByID returns a reservation by primary key.  sql.ErrNoRows is
// returned when it does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	return scanReservation(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx loads a reservation and takes an exclusive row
// lock on it for the duration of the transaction.  Concurrent decide
// calls on the same reservation serialize here, which is what makes
// the AlreadyDecided guard reliable.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ? FOR UPDATE`
	return scanReservation(tx.QueryRowContext(ctx, q, id))
}

// MarkDecidedTx applies the one permitted status transition within
// the caller's transaction.  The WHERE clause re-asserts PENDING so a
// lost race surfaces as zero affected rows rather than a silent
// double write.
func (r *ReservationRepo) MarkDecidedTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus, actorID uint64, notes string, decidedAt time.Time) error {
	const q = `UPDATE reservations
               SET status = ?, decided_by = ?, decision_notes = ?, decided_at = ?
               WHERE id = ? AND status = ?`
	result, err := tx.ExecContext(ctx, q,
		status.String(), actorID, notes, decidedAt.UTC(), id, model.StatusPending.String())
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const overlapBase = `SELECT ` + reservationCols + ` FROM reservations
               WHERE room_id = ? AND status = ? AND start_time < ? AND end_time > ?`

// ListConfirmedOverlapping returns the confirmed reservations for a
// room whose half-open windows overlap [start, end).  The predicate
// is start_time < end AND end_time > start, so back-to-back bookings
// do not match.  excludeID removes one reservation from
// consideration; pass 0 to exclude nothing.
func (r *ReservationRepo) ListConfirmedOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error) {
	return listConfirmedOverlapping(ctx, r.db, roomID, start, end, excludeID)
}

// ListConfirmedOverlappingTx is ListConfirmedOverlapping inside a
// caller-owned transaction.  The lifecycle engine runs it after
// locking the room row, making the result authoritative for the
// decision being applied.
func (r *ReservationRepo) ListConfirmedOverlappingTx(ctx context.Context, tx *sql.Tx, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error) {
	return listConfirmedOverlapping(ctx, tx, roomID, start, end, excludeID)
}

func listConfirmedOverlapping(ctx context.Context, q queryer, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error) {
	query := overlapBase
	args := []any{roomID, model.StatusConfirmed.String(), end.UTC(), start.UTC()}
	if excludeID != 0 {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	query += ` ORDER BY start_time, id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns all reservations created by the given user,
// newest first.  An empty slice is returned when none exist.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
               WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

// ListByStatus returns reservations in the given state, oldest first,
// capped at limit.  The admin decision queue reads PENDING this way.
func (r *ReservationRepo) ListByStatus(ctx context.Context, status model.ReservationStatus, limit int) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
               WHERE status = ? ORDER BY created_at, id LIMIT ?`
	return r.list(ctx, q, status.String(), limit)
}

// ExistsForRoomTx reports whether any reservation references the room,
// within the caller's transaction.  Room deletion checks this after
// locking the room row, so a submission racing the delete either
// lands before the lock (and the delete is refused) or blocks on it.
func (r *ReservationRepo) ExistsForRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE room_id = ?)`
	var exists bool
	if err := tx.QueryRowContext(ctx, q, roomID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
