package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// RequireRoles returns a middleware that enforces that the authenticated
// principal holds one of the allowed roles. It assumes JWTAuth already ran
// and stored the role in the context; a missing or disallowed role yields
// 403, distinct from the 401 of a failed authentication.
func RequireRoles(roles ...model.RoleName) echo.MiddlewareFunc {
	allowed := make(map[model.RoleName]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(model.RoleName)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden", "message": "insufficient role"})
			}
			return next(c)
		}
	}
}
