package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-reservation/internal/model"
)

// NotificationRepo persists dashboard inbox messages.  The lifecycle
// engine creates them inside the decide transaction and administrators
// send free-form ones directly; recipients may only flip the read flag
// afterwards.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationCols = `id, user_id, reservation_id, subject, body, category, is_read, created_at`

func scanNotification(row rowScanner) (*model.Notification, error) {
	var (
		n        model.Notification
		resID    sql.NullInt64
		category string
	)
	if err := row.Scan(&n.ID, &n.UserID, &resID, &n.Subject, &n.Body, &category, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Category = model.NotificationCategory(category)
	if resID.Valid {
		v := uint64(resID.Int64)
		n.ReservationID = &v
	}
	return &n, nil
}

// CreateTx inserts a notification within the caller's transaction so
// it commits atomically with the decision that produced it.  The
// generated ID is populated on the given record.
func (r *NotificationRepo) CreateTx(ctx context.Context, tx *sql.Tx, n *model.Notification) error {
	const q = `INSERT INTO notifications (user_id, reservation_id, subject, body, category)
               VALUES (?, ?, ?, ?, ?)`
	var resID any
	if n.ReservationID != nil {
		resID = *n.ReservationID
	}
	result, err := tx.ExecContext(ctx, q, n.UserID, resID, n.Subject, n.Body, string(n.Category))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// Create inserts a notification outside any transaction.  Used for
// administrative messages, which are single inserts with no coupled
// state change.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	const q = `INSERT INTO notifications (user_id, reservation_id, subject, body, category)
               VALUES (?, ?, ?, ?, ?)`
	var resID any
	if n.ReservationID != nil {
		resID = *n.ReservationID
	}
	result, err := r.db.ExecContext(ctx, q, n.UserID, resID, n.Subject, n.Body, string(n.Category))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns the user's inbox, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	const q = `SELECT ` + notificationCols + ` FROM notifications
               WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flips the read flag of one of the user's notifications.
// sql.ErrNoRows is returned when the notification does not exist and
// ErrForbidden when it belongs to someone else.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	const checkQ = `SELECT user_id FROM notifications WHERE id = ?`
	var ownerID uint64
	if err := r.db.QueryRowContext(ctx, checkQ, id).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ?`, id)
	return err
}
