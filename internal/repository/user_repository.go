package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/utils"
)

// UserRepo persists profile records for the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, password_hash, full_name, role, department, is_active, created_at, updated_at`

func scanUser(row rowScanner) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &role,
		&u.Department, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	parsed, ok := model.ParseRole(role)
	if !ok {
		parsed = model.RoleUser
	}
	u.Role = parsed
	return u, nil
}

// Create inserts a user and returns its ID.  The password is hashed
// here so plain text never crosses the repository boundary.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, role) VALUES (?,?,?,?)",
		email, hash, fullName, role.String())
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByIDTx is GetByID within the caller's transaction, used by the
// admin account mutations to capture audit images from the same
// snapshot they change.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	return scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns every account, active or not, ordered for stable
// display in the admin users view.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY full_name, email, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRoleTx assigns a user's role within the caller's transaction.
// sql.ErrNoRows is returned when the id matches no account.
func (r *UserRepo) UpdateRoleTx(ctx context.Context, tx *sql.Tx, id uint64, role model.Role) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE users SET role=? WHERE id=?", role.String(), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Could be a no-op update; confirm the account exists.
		if _, err := r.GetByIDTx(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeactivateTx flips an account inactive within the caller's
// transaction.  Accounts are never hard-deleted: reservations and
// audit records keep referencing them.
func (r *UserRepo) DeactivateTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET is_active=FALSE WHERE id=?", id)
	return err
}

// UpdateDepartment assigns the user's department label.
func (r *UserRepo) UpdateDepartment(ctx context.Context, id uint64, department string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET department=? WHERE id=?", department, id)
	return err
}
