package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/alcaldia-digital/reportes-api/internal/config"
	"github.com/alcaldia-digital/reportes-api/internal/handler"
	"github.com/alcaldia-digital/reportes-api/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication. Currently
// that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/api/health", handler.Health(db))
}

// RegisterAuth mounts the session endpoints under /api/v1/auth. All of them
// are unauthenticated but rate limited per client IP; the limiter degrades to
// a no-op when Redis is unavailable.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/api/v1/auth", middleware.RateLimit(rlCfg, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/forgot-password", a.ForgotPassword)
}
