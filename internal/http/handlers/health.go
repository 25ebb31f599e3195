package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HandleHealthz reports liveness and, when a pool is wired, database
// reachability.
func (h *Handlers) HandleHealthz(c echo.Context) error {
	if h.Pool != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.Pool.Ping(ctx); err != nil {
			h.logger().Error("healthz database ping failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
