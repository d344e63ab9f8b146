package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo provides CRUD operations for the room registry.  Rooms are
// owned by administrators; the scheduling core only ever reads them.
// Mutations run on a caller-supplied transaction so each registry
// change commits atomically with its audit record.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying pool so callers can open transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomCols = `id, name, room_number, building, campus, location, floor, room_type,
       capacity, is_restricted, is_active, created_at, updated_at`

func scanRoom(row rowScanner) (*model.Room, error) {
	var rm model.Room
	if err := row.Scan(
		&rm.ID, &rm.Name, &rm.RoomNumber, &rm.Building, &rm.Campus, &rm.Location, &rm.Floor,
		&rm.RoomType, &rm.Capacity, &rm.IsRestricted, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rm, nil
}

func getRoomByID(ctx context.Context, q rowQueryer, id uint64) (*model.Room, error) {
	const query = `SELECT ` + roomCols + ` FROM rooms WHERE id = ?`
	rm, err := scanRoom(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	return rm, err
}

// GetByID returns a room by primary key.  ErrRoomNotFound is returned
// when no such room exists.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	return getRoomByID(ctx, r.db, id)
}

// GetByIDTx is GetByID within the caller's transaction, so decision
// and registry units read the room from one consistent snapshot.
func (r *RoomRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	return getRoomByID(ctx, tx, id)
}

// List returns rooms matching the optional filters.  campus filters
// by exact campus name when non-empty; activeOnly hides deactivated
// rooms.  Ordered by building then room number for stable browsing.
func (r *RoomRepo) List(ctx context.Context, campus string, activeOnly bool) ([]model.Room, error) {
	query := `SELECT ` + roomCols + ` FROM rooms WHERE 1=1`
	args := make([]any, 0, 2)
	if campus != "" {
		query += ` AND campus = ?`
		args = append(args, campus)
	}
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY building, room_number, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTx inserts a room within the caller's transaction and queries
// it back to populate the generated ID and defaults.
func (r *RoomRepo) CreateTx(ctx context.Context, tx *sql.Tx, rm *model.Room) error {
	const q = `INSERT INTO rooms (name, room_number, building, campus, location, floor, room_type, capacity, is_restricted, is_active)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		rm.Name, rm.RoomNumber, rm.Building, rm.Campus, rm.Location, rm.Floor,
		rm.RoomType, rm.Capacity, rm.IsRestricted, rm.IsActive)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	filled, err := r.GetByIDTx(ctx, tx, uint64(id))
	if err != nil {
		return err
	}
	*rm = *filled
	return nil
}

// UpdateTx rewrites every mutable column of a room within the
// caller's transaction and reads the stored row back.  ErrRoomNotFound
// is returned when the id matches nothing.
func (r *RoomRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rm *model.Room) error {
	const q = `UPDATE rooms
               SET name = ?, room_number = ?, building = ?, campus = ?, location = ?, floor = ?,
                   room_type = ?, capacity = ?, is_restricted = ?, is_active = ?
               WHERE id = ?`
	result, err := tx.ExecContext(ctx, q,
		rm.Name, rm.RoomNumber, rm.Building, rm.Campus, rm.Location, rm.Floor,
		rm.RoomType, rm.Capacity, rm.IsRestricted, rm.IsActive, rm.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 for a no-op update; confirm existence.
		if _, err := r.GetByIDTx(ctx, tx, rm.ID); err != nil {
			return err
		}
	}
	filled, err := r.GetByIDTx(ctx, tx, rm.ID)
	if err != nil {
		return err
	}
	*rm = *filled
	return nil
}

// DeleteTx removes a room within the caller's transaction.
// ErrRoomNotFound is returned when the id matches nothing and
// ErrConflict when a reservation still references the room, so a
// submission that slips in concurrently surfaces as a refusal rather
// than a dangling room_id.
func (r *RoomRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		var my *mysql.MySQLError
		if errors.As(err, &my) && my.Number == 1451 { // row referenced by a foreign key
			return ErrConflict
		}
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// LockTx takes an exclusive lock on the room row for the duration of
// the transaction.  Confirm decisions acquire it before the overlap
// re-check so two concurrent confirmations for the same room
// serialize instead of both passing the check; room deletion takes it
// before the usage check for the same reason.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&got)
	if err == sql.ErrNoRows {
		return ErrRoomNotFound
	}
	return err
}
