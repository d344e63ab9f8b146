package model

import "time"

// Role is the closed set of user roles recognised by the service.
// Roles drive both route access (middleware.RequireRole) and booking
// policy lookup (booking_rules.role_type).  Keeping the set closed
// means an unknown role string can never reach policy logic.
type Role string

const (
	RoleAdmin Role = "ADMIN" // administrators decide reservations and manage the registry
	RoleStaff Role = "STAFF" // staff members may also request restricted rooms
	RoleUser  Role = "USER"  // regular users may request unrestricted rooms only
)

// ParseRole normalises a raw role string into a Role.  The boolean
// reports whether the input named a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleStaff:
		return RoleStaff, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// String returns the role as stored in the database and JWT claims.
func (r Role) String() string { return string(r) }

// User represents an application user record as stored in the `users`
// table.  The password hash never leaves the repository layer;
// handlers define separate response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name shown on reservations and audit entries.
//  Role         – closed role value (ADMIN, STAFF or USER).
//  Department   – optional department label.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	Role         Role      // users.role
	Department   string    // users.department
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and carries expiry and revocation
// metadata.  The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
