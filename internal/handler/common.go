package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alcaldia-digital/reportes-api/internal/middleware"
	"github.com/alcaldia-digital/reportes-api/internal/model"
	"github.com/alcaldia-digital/reportes-api/internal/repository"
)

// principal returns the authenticated principal id and role placed in the
// context by the request authenticator. ok is false when the route was not
// behind JWTAuth.
func principal(c echo.Context) (id uint64, role model.RoleName, ok bool) {
	id, okID := c.Get(middleware.CtxPrincipalID).(uint64)
	role, okRole := c.Get(middleware.CtxRole).(model.RoleName)
	return id, role, okID && okRole
}

// principalKind maps an authenticated role to the principal table it lives
// in: citizens hold the citizen role, everything else is staff.
func principalKind(role model.RoleName) model.PrincipalKind {
	if role == model.RoleCitizen {
		return model.KindCitizen
	}
	return model.KindStaff
}

// listMeta is the pagination envelope of every listing response.
type listMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// reportResp is the wire shape of one report.
type reportResp struct {
	ID          uint64                   `json:"id"`
	Category    string                   `json:"category"`
	Description string                   `json:"description"`
	PhotoURL    string                   `json:"photoUrl"`
	Latitude    float64                  `json:"latitude"`
	Longitude   float64                  `json:"longitude"`
	Colonia     *string                  `json:"colonia,omitempty"`
	Status      model.ReportStatus       `json:"status"`
	CreatedAt   string                   `json:"createdAt"`
	UpdatedAt   string                   `json:"updatedAt"`
	VoteCount   int                      `json:"voteCount"`
	User        *repository.ReportAuthor `json:"user,omitempty"`
}

func toReportResp(r repository.ReportRow) reportResp {
	return reportResp{
		ID:          r.ID,
		Category:    r.Category,
		Description: r.Description,
		PhotoURL:    r.PhotoURL,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Colonia:     r.Colonia,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339),
		VoteCount:   r.VoteCount,
		User:        r.Author,
	}
}
