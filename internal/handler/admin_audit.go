package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/audit"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// AdminAuditHandler serves the audit trail.  Only the pre/post images
// are stored; the field-level diff is recomputed on read so the log
// format can evolve without migrating history.
type AdminAuditHandler struct {
	Audits *repository.AuditRepo
}

func NewAdminAuditHandler(audits *repository.AuditRepo) *AdminAuditHandler {
	if audits == nil {
		panic("nil repository passed to NewAdminAuditHandler")
	}
	return &AdminAuditHandler{Audits: audits}
}

type auditEntryResp struct {
	repository.AuditEntry
	Changes audit.Changes `json:"changes"`
}

// List returns the newest audit records with their recomputed diffs.
// ?limit= caps the page, default 50, max 500.
// GET /v1/admin/audit
func (h *AdminAuditHandler) List(c echo.Context) error {
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	if limit > 500 {
		limit = 500
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Audits.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list audit failed"})
	}

	out := make([]auditEntryResp, 0, len(entries))
	for _, e := range entries {
		changes, err := audit.Diff(e.PreImage, e.PostImage)
		if err != nil {
			// A malformed image should never have been stored; keep the
			// record visible with no diff rather than hiding it.
			changes = audit.Changes{}
		}
		out = append(out, auditEntryResp{AuditEntry: e, Changes: changes})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}
