package middleware

import (
	"context"
	"strings"

	"github.com/dafibh/evenup/evenup-backend/internal/problem"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// EventIDKey is the context key for the event granted by the access token
	EventIDKey contextKey = "event_id"
)

// TokenValidator validates event access tokens
type TokenValidator interface {
	Validate(ctx context.Context, token string) (eventID string, err error)
}

// EventAuthMiddleware guards event-scoped routes
type EventAuthMiddleware struct {
	validator TokenValidator
}

// NewEventAuthMiddleware creates a new EventAuthMiddleware
func NewEventAuthMiddleware(validator TokenValidator) *EventAuthMiddleware {
	return &EventAuthMiddleware{validator: validator}
}

// Authenticate returns an Echo middleware that validates the bearer token and
// requires it to grant access to the event named by the :id path parameter
func (m *EventAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return problem.Write(c, problem.Unauthorized, "Missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return problem.Write(c, problem.Unauthorized, "Invalid authorization header format")
			}

			eventID, err := m.validator.Validate(c.Request().Context(), parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return problem.Write(c, problem.Unauthorized, "Invalid token")
			}

			if pathID := c.Param("id"); pathID != "" && pathID != eventID {
				log.Debug().
					Str("event_id", eventID).
					Str("path_event_id", pathID).
					Msg("Token does not grant access to event")
				return problem.Write(c, problem.EventAccessDenied, "Token does not grant access to this event")
			}

			ctx := context.WithValue(c.Request().Context(), EventIDKey, eventID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetEventID extracts the authorized event ID from the context
func GetEventID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(EventIDKey).(string); ok {
		return id
	}
	return ""
}
