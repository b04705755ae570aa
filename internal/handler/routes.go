package handler

import (
	"github.com/dafibh/evenup/evenup-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups the HTTP handlers served by the API
type Handlers struct {
	Settlement   *SettlementHandler
	Event        *EventHandler
	Message      *MessageHandler
	Notification *NotificationHandler
	WebSocket    *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, eventAuth *middleware.EventAuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	limited := middleware.RateLimitMiddleware(rateLimiter)

	// Service routes
	e.GET("/", Root)
	e.GET("/health", Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeOpenAPI3Spec)
	e.GET("/ws", h.WebSocket.HandleWS)

	// Legacy settlement route
	e.POST("/calculate-settlement", h.Settlement.Calculate)

	// API version 1
	api := e.Group("/api/v1")

	// Settlement routes (public)
	api.POST("/settlements/calculate", h.Settlement.Calculate)

	// Event routes
	events := api.Group("/events")
	events.POST("", h.Event.Create)
	events.POST("/join", h.Event.Join, limited)
	events.GET("/check", h.Event.Check)

	// Chat routes (public)
	events.GET("/:id/messages", h.Message.List)
	events.POST("/:id/messages", h.Message.Create, limited)

	// Event routes (token protected)
	protected := events.Group("/:id", eventAuth.Authenticate())
	protected.GET("", h.Event.Get)
	protected.PUT("", h.Event.Update)
	protected.POST("/settlement", h.Event.Settle)

	// Notification routes
	api.POST("/notifications", h.Notification.Send, limited)
}
