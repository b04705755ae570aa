package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/evenup/evenup-backend/internal/auth"
	"github.com/dafibh/evenup/evenup-backend/internal/config"
	"github.com/dafibh/evenup/evenup-backend/internal/handler"
	"github.com/dafibh/evenup/evenup-backend/internal/mailer"
	"github.com/dafibh/evenup/evenup-backend/internal/middleware"
	"github.com/dafibh/evenup/evenup-backend/internal/repository/memory"
	"github.com/dafibh/evenup/evenup-backend/internal/service"
	"github.com/dafibh/evenup/evenup-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title EvenUp API
// @version 1.0
// @description Shared expense settlement backend
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Event access token. Format: "Bearer {token}"
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Event access tokens
	tokenManager, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token manager")
	}

	// Real-time hub
	hub := websocket.NewHub()

	// Initialize repositories
	eventRepo := memory.NewEventRepository()
	messageRepo := memory.NewMessageRepository()

	// Initialize mailer
	emailSender := mailer.New(mailer.SMTPConfig{
		Server:    cfg.SMTP.Server,
		Port:      cfg.SMTP.Port,
		FromEmail: cfg.SMTP.FromEmail,
		Password:  cfg.SMTP.Password,
	}, os.Stdout)

	// Initialize services
	settlementService := service.NewSettlementService()
	settlementService.SetEventPublisher(hub)
	eventService := service.NewEventService(eventRepo, tokenManager, settlementService)
	eventService.SetEventPublisher(hub)
	messageService := service.NewMessageService(messageRepo)
	messageService.SetEventPublisher(hub)
	notificationService := service.NewNotificationService(emailSender)

	// Initialize middleware
	eventAuth := middleware.NewEventAuthMiddleware(tokenManager)
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Settlement:   handler.NewSettlementHandler(settlementService),
		Event:        handler.NewEventHandler(eventService),
		Message:      handler.NewMessageHandler(messageService),
		Notification: handler.NewNotificationHandler(notificationService),
		WebSocket:    handler.NewWebSocketHandler(hub, tokenManager, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = middleware.NewIPExtractor(cfg.TrustedProxies)

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Register routes
	handler.RegisterRoutes(e, eventAuth, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Int("websocket_clients", hub.TotalClientCount()).Msg("Shutting down server...")

	// Hijacked WebSocket connections are not drained by Shutdown
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
