package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/iliyamo/room-reservation/internal/model"
)

// AuditRepo appends to and reads from the audit_records ledger.  The
// ledger is append-only: there is no update or delete.  Images are
// stored as JSON columns; the field-level diff is recomputed from
// them at read time, never stored.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

const auditCols = `id, target_table, record_id, action, actor_id, pre_image, post_image, created_at`

// CreateTx appends an audit record within the caller's transaction so
// the record commits or rolls back together with the mutation it
// describes.  The generated ID is populated on the given record.
func (r *AuditRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.AuditRecord) error {
	const q = `INSERT INTO audit_records (target_table, record_id, action, actor_id, pre_image, post_image)
               VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		rec.TargetTable, rec.RecordID, string(rec.Action), rec.ActorID,
		nullableJSON(rec.PreImage), nullableJSON(rec.PostImage))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// nullableJSON converts an optional image to a driver value: nil for
// an absent image (create has no pre, delete no post), bytes
// otherwise.
func nullableJSON(raw json.RawMessage) any {
	if raw == nil {
		return nil
	}
	return []byte(raw)
}

// AuditEntry is an audit record joined with its actor's identity for
// display in the admin log view.
type AuditEntry struct {
	model.AuditRecord
	ActorName  string `json:"actor_name"`
	ActorEmail string `json:"actor_email"`
}

// ListRecent returns the newest audit records with actor identity,
// capped at limit.  Rows whose actor no longer exists keep empty
// identity fields rather than disappearing from the trail.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]AuditEntry, error) {
	const q = `SELECT a.id, a.target_table, a.record_id, a.action, a.actor_id,
                      a.pre_image, a.post_image, a.created_at,
                      COALESCE(u.full_name, ''), COALESCE(u.email, '')
               FROM audit_records a
               LEFT JOIN users u ON u.id = a.actor_id
               ORDER BY a.created_at DESC, a.id DESC
               LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AuditEntry, 0)
	for rows.Next() {
		var (
			e      AuditEntry
			action string
			pre    sql.NullString
			post   sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.TargetTable, &e.RecordID, &action, &e.ActorID,
			&pre, &post, &e.CreatedAt, &e.ActorName, &e.ActorEmail,
		); err != nil {
			return nil, err
		}
		e.Action = model.AuditAction(action)
		if pre.Valid {
			e.PreImage = json.RawMessage(pre.String)
		}
		if post.Valid {
			e.PostImage = json.RawMessage(post.String)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
