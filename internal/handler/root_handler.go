package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ServiceInfoResponse describes the service and its main endpoints
type ServiceInfoResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status string `json:"status"`
}

// Root returns service information
// @Summary Service info
// @Tags system
// @Produce json
// @Success 200 {object} ServiceInfoResponse
// @Router / [get]
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, ServiceInfoResponse{
		Message: "Expense Splitter API",
		Version: "1.0.0",
		Endpoints: map[string]string{
			"calculate":     "POST /api/v1/settlements/calculate",
			"events":        "POST /api/v1/events",
			"messages":      "GET|POST /api/v1/events/{id}/messages",
			"notifications": "POST /api/v1/notifications",
			"websocket":     "GET /ws?token=",
			"health":        "GET /health",
			"docs":          "GET /swagger/index.html",
		},
	})
}

// Health reports service liveness
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}
