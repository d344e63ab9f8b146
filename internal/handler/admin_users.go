package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// AdminUsersHandler serves the admin-only account endpoints: listing
// accounts, assigning roles, sending inbox messages and deactivating
// accounts.  Registration never grants ADMIN, so role assignment here
// is the only in-band way to provision administrators or clear staff
// for restricted rooms.
type AdminUsersHandler struct {
	DB            *sql.DB
	Users         *repository.UserRepo
	Tokens        *repository.TokenRepo
	Audits        *repository.AuditRepo
	Notifications *repository.NotificationRepo
}

func NewAdminUsersHandler(db *sql.DB, users *repository.UserRepo, tokens *repository.TokenRepo, audits *repository.AuditRepo, notifications *repository.NotificationRepo) *AdminUsersHandler {
	if db == nil || users == nil || tokens == nil || audits == nil || notifications == nil {
		panic("nil dependency passed to NewAdminUsersHandler")
	}
	return &AdminUsersHandler{DB: db, Users: users, Tokens: tokens, Audits: audits, Notifications: notifications}
}

// userView is the account shape exposed to admins and stored as the
// audit image for account mutations.  The password hash never appears
// in either.
type userView struct {
	ID         uint64    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func viewOf(u model.User) userView {
	return userView{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.Role.String(),
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

// List returns every account, deactivated ones included.
// GET /v1/admin/users
func (h *AdminUsersHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewOf(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

type roleReq struct {
	Role string `json:"role"`
}

// UpdateRole assigns an account's role.  The change and its audit
// record commit in one transaction.  Admins cannot change their own
// role, so the last administrator cannot lock everyone out.
// PUT /v1/admin/users/:id/role
func (h *AdminUsersHandler) UpdateRole(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if id == actorID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot change your own role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	pre, err := h.Users.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	if err := h.Users.UpdateRoleTx(ctx, tx, id, role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	post, err := h.Users.GetByIDTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	preView, postView := viewOf(pre), viewOf(post)
	if err := auditTx(ctx, tx, h.Audits, "users", id, model.AuditUpdate, actorID, &preView, &postView); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit write failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	committed = true
	return c.JSON(http.StatusOK, postView)
}

type messageReq struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendMessage drops an administrative message into a user's inbox.
// POST /v1/admin/users/:id/message
func (h *AdminUsersHandler) SendMessage(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req messageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Subject == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subject/body required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	notif := &model.Notification{
		UserID:   id,
		Subject:  req.Subject,
		Body:     req.Body,
		Category: model.NotifyInfo,
	}
	if err := h.Notifications.Create(ctx, notif); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send message failed"})
	}
	return c.JSON(http.StatusCreated, notif)
}

// Deactivate flips an account inactive instead of deleting it, so its
// reservations and audit trail keep resolving.  Refresh tokens are
// revoked afterwards; outstanding access tokens simply age out.
// DELETE /v1/admin/users/:id
func (h *AdminUsersHandler) Deactivate(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if id == actorID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot deactivate your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate user failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	pre, err := h.Users.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !pre.IsActive {
		// Already inactive; nothing to change or audit.
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.Users.DeactivateTx(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate user failed"})
	}
	post, err := h.Users.GetByIDTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	preView, postView := viewOf(pre), viewOf(post)
	if err := auditTx(ctx, tx, h.Audits, "users", id, model.AuditUpdate, actorID, &preView, &postView); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit write failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate user failed"})
	}
	committed = true

	if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
		log.Printf("handler: revoking refresh tokens for deactivated user %d failed: %v", id, err)
	}
	return c.NoContent(http.StatusNoContent)
}
