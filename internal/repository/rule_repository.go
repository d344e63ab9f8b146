package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RuleRepo reads and updates the per-role booking rules.  Rules are
// read on every submission; changes go through the admin settings
// endpoint, which commits them together with their audit record.
type RuleRepo struct {
	db *sql.DB
}

// NewRuleRepo returns a new RuleRepo bound to the given database.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

const ruleCols = `id, role_type, max_duration_hours, max_advance_days, updated_at`

func scanRule(row rowScanner) (*model.BookingRule, error) {
	var (
		rule model.BookingRule
		role string
	)
	if err := row.Scan(&rule.ID, &role, &rule.MaxDurationHours, &rule.MaxAdvanceDays, &rule.UpdatedAt); err != nil {
		return nil, err
	}
	rule.RoleType = model.Role(role)
	return &rule, nil
}

func getRuleByRole(ctx context.Context, q rowQueryer, role model.Role) (*model.BookingRule, error) {
	const query = `SELECT ` + ruleCols + ` FROM booking_rules WHERE role_type = ? LIMIT 1`
	rule, err := scanRule(q.QueryRowContext(ctx, query, role.String()))
	if err == sql.ErrNoRows {
		return nil, ErrRuleNotFound
	}
	return rule, err
}

// GetByRole returns the rule configured for a role.  ErrRuleNotFound
// is returned when none exists; the validator fails closed on it.
func (r *RuleRepo) GetByRole(ctx context.Context, role model.Role) (*model.BookingRule, error) {
	return getRuleByRole(ctx, r.db, role)
}

// GetByRoleTx is GetByRole within the caller's transaction.
func (r *RuleRepo) GetByRoleTx(ctx context.Context, tx *sql.Tx, role model.Role) (*model.BookingRule, error) {
	return getRuleByRole(ctx, tx, role)
}

// List returns every configured rule ordered by role for stable
// display on the settings page.
func (r *RuleRepo) List(ctx context.Context) ([]model.BookingRule, error) {
	const q = `SELECT ` + ruleCols + ` FROM booking_rules ORDER BY role_type`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BookingRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTx changes the limits of the rule for a role within the
// caller's transaction and returns the stored row.  ErrRuleNotFound
// is returned when the role has no rule.
func (r *RuleRepo) UpdateTx(ctx context.Context, tx *sql.Tx, role model.Role, maxDurationHours, maxAdvanceDays uint32) (*model.BookingRule, error) {
	const q = `UPDATE booking_rules SET max_duration_hours = ?, max_advance_days = ? WHERE role_type = ?`
	result, err := tx.ExecContext(ctx, q, maxDurationHours, maxAdvanceDays, role.String())
	if err != nil {
		return nil, err
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		// Could be a no-op update; confirm the rule exists.
		if _, err := r.GetByRoleTx(ctx, tx, role); err != nil {
			return nil, err
		}
	}
	return r.GetByRoleTx(ctx, tx, role)
}
