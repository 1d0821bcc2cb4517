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

// ReportStore is the report handler's view of the report repository.
type ReportStore interface {
	Create(ctx context.Context, kind model.PrincipalKind, authorID uint64, category, description, photoURL string, lat, lng float64, colonia *string) (repository.ReportRow, error)
	GetByID(ctx context.Context, id uint64) (repository.ReportRow, error)
	List(ctx context.Context, f repository.ReportFilter) ([]repository.ReportRow, int, error)
	Vote(ctx context.Context, reportID uint64, kind model.PrincipalKind, principalID uint64) error
	VoteCount(ctx context.Context, reportID uint64) (int, error)
}

// ReportHandler serves the public report feed and the authenticated
// create/vote endpoints.
type ReportHandler struct {
	Reports ReportStore
	Events  *service.EventPublisher
	Log     *zap.Logger
}

func NewReportHandler(reports ReportStore, events *service.EventPublisher, log *zap.Logger) *ReportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportHandler{Reports: reports, Events: events, Log: log}
}

type createReportReq struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	PhotoURL    string  `json:"photoUrl"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Colonia     *string `json:"colonia"`
}

// Categories returns the fixed category list.
func (h *ReportHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"data": model.ReportCategories})
}

// List is the public report feed: status/category/since filters, newest
// first.
func (h *ReportHandler) List(c echo.Context) error {
	f := repository.ReportFilter{
		Category: c.QueryParam("category"),
		Limit:    atoiOr(c.QueryParam("limit"), 20),
		Offset:   atoiOr(c.QueryParam("offset"), 0),
	}
	if s := c.QueryParam("status"); s != "" {
		st := model.ReportStatus(strings.ToUpper(s))
		if !st.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "estado desconocido"})
		}
		f.Status = st
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

// Get resolves one report by id.
func (h *ReportHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
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
	return c.JSON(http.StatusOK, echo.Map{"data": toReportResp(row)})
}

// Create stores a PENDING report authored by the authenticated principal
// and publishes a report.created event. The colonia is an external input;
// no geofencing happens here.
func (h *ReportHandler) Create(c echo.Context) error {
	pid, role, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": "missing principal"})
	}

	var req createReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "invalid body"})
	}
	fields := map[string]string{}
	if !model.ValidReportCategory(req.Category) {
		fields["category"] = "categoría desconocida"
	}
	if l := len(strings.TrimSpace(req.Description)); l < 10 || l > 2000 {
		fields["description"] = "entre 10 y 2000 caracteres"
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		fields["latitude"] = "fuera de rango"
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		fields["longitude"] = "fuera de rango"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	row, err := h.Reports.Create(ctx, principalKind(role), pid,
		req.Category, strings.TrimSpace(req.Description), req.PhotoURL,
		req.Latitude, req.Longitude, req.Colonia)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "create failed"})
	}

	colonia := ""
	if row.Colonia != nil {
		colonia = *row.Colonia
	}
	// Best effort: a broker outage never fails the request.
	_ = h.Events.PublishReportCreated(ctx, queue.ReportCreatedEvent{
		ReportID:  row.ID,
		Category:  row.Category,
		Colonia:   colonia,
		Latitude:  row.Latitude,
		Longitude: row.Longitude,
		CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"data": toReportResp(row)})
}

// Vote records one supporting vote by the authenticated principal. Only
// PENDING reports accept votes and each principal votes at most once.
func (h *ReportHandler) Vote(c echo.Context) error {
	pid, role, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": "missing principal"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
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
	if row.Status != model.StatusPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "solo se puede votar en reportes pendientes"})
	}

	if err := h.Reports.Vote(ctx, id, principalKind(role), pid); err != nil {
		if errors.Is(err, repository.ErrDuplicateVote) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "DuplicateVote", "message": "ya apoyaste este reporte"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "vote failed"})
	}

	count, err := h.Reports.VoteCount(ctx, id)
	if err != nil {
		h.Log.Warn("vote count reload failed", zap.Uint64("report_id", id), zap.Error(err))
		count = row.VoteCount + 1
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"voteCount": count}})
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func clampLimit(n int) int {
	if n < 1 || n > 100 {
		return 20
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// parseSince accepts RFC3339 or plain YYYY-MM-DD dates.
func parseSince(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
