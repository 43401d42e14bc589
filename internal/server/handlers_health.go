package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chihung93/kotlinconf-app/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleReadiness reports ready once local storage answers and conference
// data is available. An empty snapshot means the first refresh has not
// landed yet; the process is alive but not useful.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if s.storage != nil {
		if err := s.storage.Ping(ctx); err != nil {
			return c.JSON(503, map[string]any{
				"status":       "unhealthy",
				"failed_check": "storage",
				"error":        err.Error(),
			})
		}
	}

	if s.engine.Snapshot().Current().Empty() {
		return c.JSON(503, map[string]any{
			"status":       "unhealthy",
			"failed_check": "conference_data",
			"error":        "no conference data loaded yet",
		})
	}

	return c.JSON(200, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}
