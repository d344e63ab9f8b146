package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/schedule"
)

// AdminDecisionHandler serves the admin decision queue: listing
// pending requests, inspecting their conflicts and applying the
// confirm/reject verdict.
type AdminDecisionHandler struct {
	Engine       *schedule.Engine
	Reservations *repository.ReservationRepo
	PendingLimit int
}

func NewAdminDecisionHandler(engine *schedule.Engine, reservations *repository.ReservationRepo, pendingLimit int) *AdminDecisionHandler {
	if engine == nil || reservations == nil {
		panic("nil dependency passed to NewAdminDecisionHandler")
	}
	if pendingLimit <= 0 {
		pendingLimit = 100
	}
	return &AdminDecisionHandler{Engine: engine, Reservations: reservations, PendingLimit: pendingLimit}
}

// List returns the decision queue.  ?status= filters by lifecycle
// state (default PENDING); results come oldest first so the queue is
// worked in arrival order.
// GET /v1/admin/reservations
func (h *AdminDecisionHandler) List(c echo.Context) error {
	status := model.StatusPending
	if s := c.QueryParam("status"); s != "" {
		parsed, ok := model.ParseReservationStatus(s)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		status = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByStatus(ctx, status, h.PendingLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// Conflicts previews what a confirm would collide with right now.
// GET /v1/admin/reservations/:id/conflicts
func (h *AdminDecisionHandler) Conflicts(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}

	win := schedule.Interval{Start: res.StartTime, End: res.EndTime}
	conflicts, err := h.Engine.Detector().FindConflicts(ctx, res.RoomID, win, res.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "conflict scan failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation": res,
		"conflicts":   conflicts,
	})
}

type decisionReq struct {
	Decision string `json:"decision"` // confirm | reject
	Notes    string `json:"notes"`
}

// Decide applies the verdict.  A confirm that collides with the
// confirmed set fails with 409 and the reservation stays pending, so
// the admin can reject it or pick the other request instead.
// POST /v1/admin/reservations/:id/decision
func (h *AdminDecisionHandler) Decide(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	decision, ok := schedule.ParseDecision(req.Decision)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be confirm or reject"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.Decide(ctx, schedule.DecideInput{
		ReservationID: id,
		Decision:      decision,
		ActorID:       actorID,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, schedule.ErrAlreadyDecided):
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already decided"})
		case errors.Is(err, schedule.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "window conflicts with a confirmed reservation"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "decision failed"})
		}
	}
	return c.JSON(http.StatusOK, res)
}
