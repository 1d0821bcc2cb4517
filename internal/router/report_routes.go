package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/alcaldia-digital/reportes-api/internal/config"
	"github.com/alcaldia-digital/reportes-api/internal/handler"
	"github.com/alcaldia-digital/reportes-api/internal/middleware"
)

// RegisterReports mounts the citizen-facing report endpoints. Browsing is
// public (and cached); creating and voting require a valid access token of
// any role.
func RegisterReports(e *echo.Echo, r *handler.ReportHandler, jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cached := middleware.Cache(cacheCfg, rdb)

	e.GET("/api/v1/reports/categories", r.Categories, cached)
	e.GET("/api/v1/reports", r.List, cached)
	e.GET("/api/v1/reports/:id", r.Get)

	auth := e.Group("/api/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/reports", r.Create)
	auth.POST("/reports/:id/vote", r.Vote)
}
