package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alcaldia-digital/reportes-api/internal/repository"
)

// OfferStore is the offer handler's view of the offer repository.
type OfferStore interface {
	List(ctx context.Context, f repository.OfferFilter) ([]repository.OfferRow, int, error)
	GetByID(ctx context.Context, id uint64) (repository.OfferRow, error)
	Create(ctx context.Context, businessID uint64, title string, description, imageURL *string, validFrom, validUntil time.Time, conditions *string) (repository.OfferRow, error)
	Update(ctx context.Context, id uint64, p repository.OfferPatch) (repository.OfferRow, error)
	Delete(ctx context.Context, id uint64) error
}

// OfferHandler serves the public offer listings and the staff-gated offer
// management endpoints.
type OfferHandler struct {
	Offers OfferStore
}

func NewOfferHandler(offers OfferStore) *OfferHandler {
	return &OfferHandler{Offers: offers}
}

type offerResp struct {
	ID          uint64         `json:"id"`
	BusinessID  uint64         `json:"businessId"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	ImageURL    *string        `json:"imageUrl"`
	ValidFrom   string         `json:"validFrom"`
	ValidUntil  string         `json:"validUntil"`
	Conditions  *string        `json:"conditions"`
	CreatedAt   string         `json:"createdAt"`
	Business    *offerBusiness `json:"business,omitempty"`
}

type offerBusiness struct {
	ID        uint64   `json:"id"`
	Name      string   `json:"name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func toOfferResp(o repository.OfferRow, withBusiness bool) offerResp {
	resp := offerResp{
		ID:          o.ID,
		BusinessID:  o.BusinessID,
		Title:       o.Title,
		Description: o.Description,
		ImageURL:    o.ImageURL,
		ValidFrom:   o.ValidFrom.UTC().Format(time.RFC3339),
		ValidUntil:  o.ValidUntil.UTC().Format(time.RFC3339),
		Conditions:  o.Conditions,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withBusiness {
		resp.Business = &offerBusiness{
			ID:        o.Business.ID,
			Name:      o.Business.Name,
			Address:   o.Business.Address,
			Latitude:  o.Business.Latitude,
			Longitude: o.Business.Longitude,
		}
	}
	return resp
}

// List returns offers, soonest-expiring first. ?businessId= scopes to one
// business; ?activeOnly=true drops expired offers.
func (h *OfferHandler) List(c echo.Context) error {
	f := repository.OfferFilter{
		ActiveOnly: c.QueryParam("activeOnly") == "true",
		Limit:      atoiOr(c.QueryParam("limit"), 20),
		Offset:     atoiOr(c.QueryParam("offset"), 0),
	}
	if b := c.QueryParam("businessId"); b != "" {
		id, err := strconv.ParseUint(b, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "businessId inválido"})
		}
		f.BusinessID = id
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Offers.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	data := make([]offerResp, 0, len(rows))
	for _, o := range rows {
		data = append(data, toOfferResp(o, true))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": data,
		"meta": listMeta{Total: total, Limit: clampLimit(f.Limit), Offset: maxInt(f.Offset, 0)},
	})
}

// Get resolves one offer with its business echo.
func (h *OfferHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "NotFound", "message": "oferta no encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toOfferResp(o, true)})
}

type createOfferReq struct {
	BusinessID  uint64  `json:"businessId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	ValidFrom   string  `json:"validFrom"`
	ValidUntil  string  `json:"validUntil"`
	Conditions  *string `json:"conditions"`
}

// Create stores a new offer (staff only; the router enforces the role).
func (h *OfferHandler) Create(c echo.Context) error {
	var req createOfferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "invalid body"})
	}
	fields := map[string]string{}
	if req.BusinessID == 0 {
		fields["businessId"] = "obligatorio"
	}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "obligatorio"
	}
	from, errFrom := time.Parse(time.RFC3339, req.ValidFrom)
	if errFrom != nil {
		fields["validFrom"] = "fecha inválida"
	}
	until, errUntil := time.Parse(time.RFC3339, req.ValidUntil)
	if errUntil != nil {
		fields["validUntil"] = "fecha inválida"
	}
	if errFrom == nil && errUntil == nil && !until.After(from) {
		fields["validUntil"] = "debe ser posterior a validFrom"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Offers.Create(ctx, req.BusinessID, strings.TrimSpace(req.Title),
		req.Description, req.ImageURL, from, until, req.Conditions)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "NotFound", "message": "negocio no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": toOfferResp(o, true)})
}

type updateOfferReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	ValidFrom   *string `json:"validFrom"`
	ValidUntil  *string `json:"validUntil"`
	Conditions  *string `json:"conditions"`
}

// Update applies a partial offer update (staff only).
func (h *OfferHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
	}
	var req updateOfferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "invalid body"})
	}

	patch := repository.OfferPatch{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Conditions:  req.Conditions,
	}
	if req.ValidFrom != nil {
		t, err := time.Parse(time.RFC3339, *req.ValidFrom)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "validFrom inválido"})
		}
		patch.ValidFrom = &t
	}
	if req.ValidUntil != nil {
		t, err := time.Parse(time.RFC3339, *req.ValidUntil)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "validUntil inválido"})
		}
		patch.ValidUntil = &t
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Offers.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "NotFound", "message": "oferta no encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toOfferResp(o, true)})
}

// Delete removes an offer (staff only).
func (h *OfferHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Offers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "NotFound", "message": "oferta no encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
