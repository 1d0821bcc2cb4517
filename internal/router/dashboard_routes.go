package router

import (
	"github.com/labstack/echo/v4"

	"github.com/alcaldia-digital/reportes-api/internal/handler"
	"github.com/alcaldia-digital/reportes-api/internal/middleware"
	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// RegisterDashboard mounts the staff dashboard. Every route requires a valid
// access token whose role is superadmin, admin or operator; citizens get 403.
func RegisterDashboard(e *echo.Echo, d *handler.DashboardHandler, jwtSecret string) {
	g := e.Group("/api/v1/dashboard",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRoles(model.DashboardRoles...))

	g.GET("/reports", d.List)
	g.PATCH("/reports/:id", d.PatchStatus)
	g.GET("/reports/:id/history", d.History)
	g.GET("/stats", d.Stats)
}
