package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alcaldia-digital/reportes-api/internal/model"
	"github.com/alcaldia-digital/reportes-api/internal/repository"
)

// BusinessStore is the marketplace handler's view of the business cache.
type BusinessStore interface {
	List(ctx context.Context, f repository.BusinessFilter) ([]model.Business, int, error)
	Categories(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id uint64) (model.Business, error)
}

// businessOffers narrows OfferStore to what the business detail needs.
type businessOffers interface {
	List(ctx context.Context, f repository.OfferFilter) ([]repository.OfferRow, int, error)
}

// BusinessHandler serves the public marketplace catalog of cached nearby
// businesses.
type BusinessHandler struct {
	Businesses BusinessStore
	Offers     businessOffers
}

func NewBusinessHandler(businesses BusinessStore, offers businessOffers) *BusinessHandler {
	return &BusinessHandler{Businesses: businesses, Offers: offers}
}

type businessResp struct {
	ID         uint64   `json:"id"`
	PlaceID    string   `json:"placeId"`
	Name       string   `json:"name"`
	Address    *string  `json:"address"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Rating     *float64 `json:"rating"`
	Category   *string  `json:"category"`
	PhotoURL   *string  `json:"photoUrl"`
	CachedAt   string   `json:"cachedAt"`
	OfferCount int      `json:"offerCount"`
}

func toBusinessResp(b model.Business) businessResp {
	return businessResp{
		ID:         b.ID,
		PlaceID:    b.PlaceID,
		Name:       b.Name,
		Address:    b.Address,
		Latitude:   b.Latitude,
		Longitude:  b.Longitude,
		Rating:     b.Rating,
		Category:   b.Category,
		PhotoURL:   b.PhotoURL,
		CachedAt:   b.CachedAt.UTC().Format(time.RFC3339),
		OfferCount: b.OfferCount,
	}
}

// List returns the cached businesses, name order, with optional category
// and hasOffer filters.
func (h *BusinessHandler) List(c echo.Context) error {
	f := repository.BusinessFilter{
		Category: c.QueryParam("category"),
		Limit:    atoiOr(c.QueryParam("limit"), 20),
		Offset:   atoiOr(c.QueryParam("offset"), 0),
	}
	switch c.QueryParam("hasOffer") {
	case "true":
		t := true
		f.HasOffer = &t
	case "false":
		ff := false
		f.HasOffer = &ff
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Businesses.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	data := make([]businessResp, 0, len(rows))
	for _, b := range rows {
		data = append(data, toBusinessResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": data,
		"meta": listMeta{Total: total, Limit: clampLimit(f.Limit), Offset: maxInt(f.Offset, 0)},
	})
}

// Categories returns the distinct business categories present in the
// cache.
func (h *BusinessHandler) Categories(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cats, err := h.Businesses.Categories(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cats})
}

// Get resolves one business with its currently active offers.
func (h *BusinessHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Businesses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "NotFound", "message": "negocio no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}

	offers, _, err := h.Offers.List(ctx, repository.OfferFilter{BusinessID: id, ActiveOnly: true, Limit: 100})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	offerData := make([]offerResp, 0, len(offers))
	for _, o := range offers {
		offerData = append(offerData, toOfferResp(o, false))
	}

	resp := echo.Map{"data": echo.Map{
		"business": toBusinessResp(b),
		"offers":   offerData,
	}}
	return c.JSON(http.StatusOK, resp)
}

// OffersByBusiness lists a business's offers; ?activeOnly=false includes
// expired ones.
func (h *BusinessHandler) OffersByBusiness(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "id inválido"})
	}
	activeOnly := c.QueryParam("activeOnly") != "false"

	ctx, cancel := reqCtx(c)
	defer cancel()

	offers, _, err := h.Offers.List(ctx, repository.OfferFilter{BusinessID: id, ActiveOnly: activeOnly, Limit: 100})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "query failed"})
	}
	data := make([]offerResp, 0, len(offers))
	for _, o := range offers {
		data = append(data, toOfferResp(o, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}
