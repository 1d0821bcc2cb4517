package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/alcaldia-digital/reportes-api/internal/utils"
)

// Context keys under which the request authenticator exposes the verified
// principal to downstream handlers.
const (
	CtxPrincipalID = "principal_id" // uint64
	CtxRole        = "role"         // model.RoleName
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the verified principal id and role into the request context.
// Only tokens of type "access" pass; refresh wrappers presented on a
// protected route are rejected like any other invalid token. On any
// failure the request short-circuits with 401 — handlers never see a
// partially authenticated request.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": "invalid or expired token"})
			}

			c.Set(CtxPrincipalID, claims.PrincipalID)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
