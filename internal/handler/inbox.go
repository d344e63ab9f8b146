package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/repository"
)

// InboxHandler serves the per-user notification inbox written by the
// lifecycle engine when decisions land.
type InboxHandler struct {
	Notifications *repository.NotificationRepo
}

func NewInboxHandler(n *repository.NotificationRepo) *InboxHandler {
	if n == nil {
		panic("nil repository passed to NewInboxHandler")
	}
	return &InboxHandler{Notifications: n}
}

// List returns the caller's notifications, newest first.
// GET /v1/inbox
func (h *InboxHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Notifications.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list notifications failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": list})
}

// MarkRead flags one of the caller's notifications as read.  Another
// user's notification yields 403, a missing one 404.
// POST /v1/inbox/:id/read
func (h *InboxHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, uid); err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
