package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterHealthRoutes() {
	s.Router.GET("/healthcheck", s.healthCheck)
}

// healthCheck godoc
// @Summary Health Check
// @Description Check if server is alive and wired to a contact store
// @Tags health
// @Success 200 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /healthcheck [get]
func (s *Server) healthCheck(c echo.Context) error {
	if s.ContactService == nil {
		return writeError(c, http.StatusServiceUnavailable, "Contact service is not configured.", "", nil)
	}
	return writeSuccess(c, http.StatusOK, map[string]string{
		"status": "OK",
	})
}
