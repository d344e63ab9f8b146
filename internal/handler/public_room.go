package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/schedule"
)

// PublicHandler serves the unauthenticated room registry: browsing
// rooms and checking availability for a window.  Availability is
// advisory; the authoritative conflict check happens when an admin
// confirms a reservation.
type PublicHandler struct {
	Rooms    *repository.RoomRepo
	Detector *schedule.Detector
}

func NewPublicHandler(rooms *repository.RoomRepo, detector *schedule.Detector) *PublicHandler {
	if rooms == nil || detector == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Rooms: rooms, Detector: detector}
}

// ListRooms returns rooms, optionally filtered by ?campus=.  Only
// active rooms are listed unless ?active=false is passed explicitly.
// GET /v1/rooms
func (h *PublicHandler) ListRooms(c echo.Context) error {
	activeOnly := c.QueryParam("active") != "false"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, err := h.Rooms.List(ctx, c.QueryParam("campus"), activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// GetRoom returns one room by id.
// GET /v1/rooms/:id
func (h *PublicHandler) GetRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rm, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}
	return c.JSON(http.StatusOK, rm)
}

// Availability reports the confirmed reservations overlapping a
// window.  ?start= and ?end= are RFC3339.  An empty conflict list
// means the window is currently free; a PENDING request may still lose
// to a later decision.
// GET /v1/rooms/:id/availability
func (h *PublicHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	start, end, err := parseWindow(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start/end must be RFC3339"})
	}
	win := schedule.Interval{Start: start, End: end}
	if !win.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be after start"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Room must exist, even if inactive rooms stay queryable for staff.
	if _, err := h.Rooms.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}

	conflicts, err := h.Detector.FindConflicts(ctx, id, win, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":   id,
		"start":     start,
		"end":       end,
		"available": len(conflicts) == 0,
		"conflicts": conflicts,
	})
}
