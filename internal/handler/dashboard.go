package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/alcaldia-digital/reportes-api/internal/model"
	"github.com/alcaldia-digital/reportes-api/internal/queue"
	"github.com/alcaldia-digital/reportes-api/internal/repository"
	"github.com/alcaldia-digital/reportes-api/internal/service"
)

// DashboardStore is the dashboard handler's view of the report repository.
type DashboardStore interface {
	GetByID(ctx context.Context, id uint64) (repository.ReportRow, error)
	List(ctx context.Context, f repository.ReportFilter) ([]repository.ReportRow, int, error)
	UpdateStatus(ctx context.Context, reportID uint64, from, to model.ReportStatus, changedByID uint64, comment *string) error
	History(ctx context.Context, reportID uint64) ([]repository.HistoryEntry, error)
	Stats(ctx context.Context) (repository.ReportStats, error)
}

// DashboardHandler serves the role-gated triage endpoints for municipal
// staff. The router guards every route here with
// RequireRoles(superadmin, admin, operator).
type DashboardHandler struct {
	Reports DashboardStore
	Events  *service.EventPublisher
	Log     *zap.Logger
}

func NewDashboardHandler(reports DashboardStore, events *service.EventPublisher, log *zap.Logger) *DashboardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardHandler{Reports: reports, Events: events, Log: log}
}

// List extends the public feed with colonia filtering and vote-count
// ordering.
func (h *DashboardHandler) List(c echo.Context) error {
	f := repository.ReportFilter{
		Category: c.QueryParam("category"),
		Colonia:  c.QueryParam("colonia"),
		Limit:    atoiOr(c.QueryParam("limit"), 20),
		Offset:   atoiOr(c.QueryParam("offset"), 0),
		Order:    c.QueryParam("order"),
	}
	if s := c.QueryParam("status"); s != "" {
		st := model.ReportStatus(strings.ToUpper(s))
		if !st.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "estado desconocido"})
		}
		f.Status = st
	}
	if ob := c.QueryParam("orderBy"); ob != "" {
		if ob != "createdAt" && ob != "voteCount" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "orderBy desconocido"})
		}
		f.OrderBy = ob
	}
	if since := c.QueryParam("since"); since != "" {
		if t, ok := parseSince(since); ok {
			f.Since = t
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Reports.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	data := make([]reportResp, 0, len(rows))
	for _, r := range rows {
		data = append(data, toReportResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": data,
		"meta": listMeta{Total: total, Limit: clampLimit(f.Limit), Offset: maxInt(f.Offset, 0)},
	})
}

type patchReportReq struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
}

// PatchStatus transitions a report, records the transition in the status
// history and publishes a report.status_changed event.
func (h *DashboardHandler) PatchStatus(c echo.Context) error {
	staffID, _, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": "missing principal"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
	}

	var req patchReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "invalid body"})
	}
	to := model.ReportStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !to.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "estado desconocido"})
	}
	if req.Comment != nil && len(*req.Comment) > 500 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "comentario demasiado largo"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	row, err := h.Reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "NotFound", "message": "reporte no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}

	if err := h.Reports.UpdateStatus(ctx, id, row.Status, to, staffID, req.Comment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "update failed"})
	}

	comment := ""
	if req.Comment != nil {
		comment = *req.Comment
	}
	_ = h.Events.PublishReportStatusChanged(ctx, queue.ReportStatusChangedEvent{
		ReportID:    id,
		FromStatus:  string(row.Status),
		ToStatus:    string(to),
		ChangedByID: staffID,
		Comment:     comment,
		ChangedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	updated, err := h.Reports.GetByID(ctx, id)
	if err != nil {
		h.Log.Warn("report reload after patch failed", zap.Uint64("report_id", id), zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"id": id, "status": to}})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{
		"id":        updated.ID,
		"status":    updated.Status,
		"updatedAt": updated.UpdatedAt.UTC().Format(time.RFC3339),
		"voteCount": updated.VoteCount,
	}})
}

// History lists a report's status transitions, newest first.
func (h *DashboardHandler) History(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Reports.History(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": entries})
}

// Stats aggregates the dashboard counters.
func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Reports.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": stats})
}
