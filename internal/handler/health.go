package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports service liveness and whether the database answers. The
// API stays up without a database so local development works before the
// schema exists.
func Health(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		database := "unavailable"
		if db != nil {
			ctx, cancel := reqCtx(c)
			defer cancel()
			if err := db.PingContext(ctx); err == nil {
				database = "connected"
			}
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  database,
		})
	}
}
