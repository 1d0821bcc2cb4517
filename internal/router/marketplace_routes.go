package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/alcaldia-digital/reportes-api/internal/config"
	"github.com/alcaldia-digital/reportes-api/internal/handler"
	"github.com/alcaldia-digital/reportes-api/internal/middleware"
	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// RegisterMarketplace mounts the local-business directory. Browsing is public
// and response-cached; offer management is restricted to staff roles.
func RegisterMarketplace(e *echo.Echo, b *handler.BusinessHandler, o *handler.OfferHandler,
	jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {

	cached := middleware.Cache(cacheCfg, rdb)

	e.GET("/api/v1/businesses", b.List, cached)
	e.GET("/api/v1/businesses/categories", b.Categories, cached)
	e.GET("/api/v1/businesses/:id", b.Get)
	e.GET("/api/v1/businesses/:id/offers", b.OffersByBusiness)
	e.GET("/api/v1/offers", o.List, cached)
	e.GET("/api/v1/offers/:id", o.Get)

	staff := e.Group("/api/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRoles(model.DashboardRoles...))
	staff.POST("/offers", o.Create)
	staff.PATCH("/offers/:id", o.Update)
	staff.DELETE("/offers/:id", o.Delete)
}
