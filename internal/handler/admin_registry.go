package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// AdminRegistryHandler serves the admin-only registry endpoints: room
// CRUD and the per-role booking rules.  Every mutation commits in one
// transaction with an audit record carrying full pre/post images, so
// the ledger can never miss a registry change.
type AdminRegistryHandler struct {
	DB           *sql.DB
	Rooms        *repository.RoomRepo
	Rules        *repository.RuleRepo
	Reservations *repository.ReservationRepo
	Audits       *repository.AuditRepo
}

func NewAdminRegistryHandler(db *sql.DB, rooms *repository.RoomRepo, rules *repository.RuleRepo, reservations *repository.ReservationRepo, audits *repository.AuditRepo) *AdminRegistryHandler {
	if db == nil || rooms == nil || rules == nil || reservations == nil || audits == nil {
		panic("nil dependency passed to NewAdminRegistryHandler")
	}
	return &AdminRegistryHandler{DB: db, Rooms: rooms, Rules: rules, Reservations: reservations, Audits: audits}
}

type roomReq struct {
	Name         string `json:"name"`
	RoomNumber   string `json:"room_number"`
	Building     string `json:"building"`
	Campus       string `json:"campus"`
	Location     string `json:"location"`
	Floor        string `json:"floor"`
	RoomType     string `json:"room_type"`
	Capacity     uint32 `json:"capacity"`
	IsRestricted bool   `json:"is_restricted"`
	IsActive     *bool  `json:"is_active"` // nil -> keep/create active
}

func (req *roomReq) apply(rm *model.Room) {
	rm.Name = req.Name
	rm.RoomNumber = req.RoomNumber
	rm.Building = req.Building
	rm.Campus = req.Campus
	rm.Location = req.Location
	rm.Floor = req.Floor
	rm.RoomType = req.RoomType
	rm.Capacity = req.Capacity
	rm.IsRestricted = req.IsRestricted
	if req.IsActive != nil {
		rm.IsActive = *req.IsActive
	}
}

// auditTx records a mutation inside the caller's transaction.  The
// images are marshaled here; a marshal failure rolls the mutation
// back since the audit trail is part of the contract, not
// best-effort.
func auditTx(ctx context.Context, tx *sql.Tx, audits *repository.AuditRepo, table string, recordID uint64, action model.AuditAction, actorID uint64, pre, post any) error {
	var preJSON, postJSON json.RawMessage
	if pre != nil {
		b, err := json.Marshal(pre)
		if err != nil {
			return err
		}
		preJSON = b
	}
	if post != nil {
		b, err := json.Marshal(post)
		if err != nil {
			return err
		}
		postJSON = b
	}
	return audits.CreateTx(ctx, tx, &model.AuditRecord{
		TargetTable: table,
		RecordID:    recordID,
		Action:      action,
		ActorID:     actorID,
		PreImage:    preJSON,
		PostImage:   postJSON,
	})
}

// ListRooms returns all rooms including deactivated ones so admins see
// the full registry.
// GET /v1/admin/rooms
func (h *AdminRegistryHandler) ListRooms(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, err := h.Rooms.List(ctx, c.QueryParam("campus"), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// CreateRoom adds a room to the registry.
// POST /v1/admin/rooms
func (h *AdminRegistryHandler) CreateRoom(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.RoomNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/room_number required"})
	}

	rm := &model.Room{IsActive: true}
	req.apply(rm)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Rooms.CreateTx(ctx, tx, rm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	if err := auditTx(ctx, tx, h.Audits, "rooms", rm.ID, model.AuditCreate, actorID, nil, rm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit write failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	committed = true
	return c.JSON(http.StatusCreated, rm)
}

// UpdateRoom rewrites a room's mutable fields.
// PUT /v1/admin/rooms/:id
func (h *AdminRegistryHandler) UpdateRoom(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	pre, err := h.Rooms.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}

	rm := *pre
	req.apply(&rm)
	if err := h.Rooms.UpdateTx(ctx, tx, &rm); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	if err := auditTx(ctx, tx, h.Audits, "rooms", rm.ID, model.AuditUpdate, actorID, pre, &rm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit write failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	committed = true
	return c.JSON(http.StatusOK, rm)
}

// DeleteRoom removes a room that has never been reserved.  Rooms with
// reservation history must be deactivated instead so the history keeps
// resolving.  The room row is locked before the usage check, so a
// submission racing the delete either blocks on the lock or makes the
// delete fail its foreign key; both surface as a 409.
// DELETE /v1/admin/rooms/:id
func (h *AdminRegistryHandler) DeleteRoom(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Rooms.LockTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}
	pre, err := h.Rooms.GetByIDTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}

	used, err := h.Reservations.ExistsForRoomTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check room usage failed"})
	}
	if used {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room has reservation history; deactivate it instead"})
	}

	if err := h.Rooms.DeleteTx(ctx, tx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room has reservation history; deactivate it instead"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	if err := auditTx(ctx, tx, h.Audits, "rooms", id, model.AuditDelete, actorID, pre, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit write failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// ListRules returns every role's booking rule.
// GET /v1/admin/rules
func (h *AdminRegistryHandler) ListRules(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rules, err := h.Rules.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rules failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rules": rules})
}

type ruleReq struct {
	MaxDurationHours uint32 `json:"max_duration_hours"`
	MaxAdvanceDays   uint32 `json:"max_advance_days"`
}

// UpdateRule changes the limits for one role.  New submissions pick
// the change up immediately; already-pending requests were validated
// under the old rule and are decided as-is.
// PUT /v1/admin/rules/:role
func (h *AdminRegistryHandler) UpdateRule(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, ok := model.ParseRole(c.Param("role"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	var req ruleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MaxDurationHours == 0 || req.MaxAdvanceDays == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "limits must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update rule failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	pre, err := h.Rules.GetByRoleTx(ctx, tx, role)
	if err != nil {
		if errors.Is(err, repository.ErrRuleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no rule for role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load rule failed"})
	}

	post, err := h.Rules.UpdateTx(ctx, tx, role, req.MaxDurationHours, req.MaxAdvanceDays)
	if err != nil {
		if errors.Is(err, repository.ErrRuleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no rule for role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update rule failed"})
	}
	if err := auditTx(ctx, tx, h.Audits, "booking_rules", post.ID, model.AuditUpdate, actorID, pre, post); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit write failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update rule failed"})
	}
	committed = true
	return c.JSON(http.StatusOK, post)
}
