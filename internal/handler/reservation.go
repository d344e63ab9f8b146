package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/schedule"
)

// ReservationHandler serves the requester-facing lifecycle endpoints:
// submitting a request and listing one's own reservations.
type ReservationHandler struct {
	Engine       *schedule.Engine
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(engine *schedule.Engine, reservations *repository.ReservationRepo) *ReservationHandler {
	if engine == nil || reservations == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine, Reservations: reservations}
}

type submitReq struct {
	RoomID  uint64 `json:"room_id"`
	Start   string `json:"start"` // RFC3339
	End     string `json:"end"`   // RFC3339
	Purpose string `json:"purpose"`
}

// Submit creates a PENDING reservation.  Overlap with confirmed
// bookings does not block submission; the response carries the current
// conflicts so the requester knows their odds.
// POST /v1/reservations
func (h *ReservationHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, ok := c.Get("role").(model.Role)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, end, err := parseWindow(req.Start, req.End)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start/end must be RFC3339"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, conflicts, err := h.Engine.Submit(ctx, schedule.SubmitInput{
		RoomID:  req.RoomID,
		UserID:  uid,
		Role:    role,
		Start:   start,
		End:     end,
		Purpose: req.Purpose,
	})
	if err != nil {
		if pe, ok := schedule.AsPolicyError(err); ok {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error":  "policy violation",
				"kind":   pe.Kind,
				"detail": pe.Detail,
			})
		}
		if errors.Is(err, schedule.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		if errors.Is(err, schedule.ErrRestrictedRoom) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "room is restricted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submit failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"reservation": res,
		"conflicts":   conflicts,
	})
}

// ListMine returns the caller's reservations, newest first.
// GET /v1/reservations
func (h *ReservationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}
