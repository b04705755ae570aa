package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MessageHandler handles event chat HTTP requests
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// CreateMessageRequest represents the JSON request for posting a message
type CreateMessageRequest struct {
	SenderName   string   `json:"sender_name"`
	Text         string   `json:"text"`
	Participants []string `json:"participants,omitempty"`
}

// MessageListResponse wraps an event's chat log
type MessageListResponse struct {
	Messages []*domain.Message `json:"messages"`
}

// List returns the chat log of an event
// @Summary List messages
// @Tags messages
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} MessageListResponse
// @Failure 500 {object} ProblemDetails
// @Router /api/v1/events/{id}/messages [get]
func (h *MessageHandler) List(c echo.Context) error {
	eventID := c.Param("id")

	messages, err := h.messageService.List(eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to list messages")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, MessageListResponse{Messages: messages})
}

// Create posts a message to an event's chat log
// @Summary Post message
// @Description Posts a chat message. A non-empty participants list replaces the allowed senders.
// @Tags messages
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body CreateMessageRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Router /api/v1/events/{id}/messages [post]
func (h *MessageHandler) Create(c echo.Context) error {
	eventID := c.Param("id")

	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	message, err := h.messageService.Create(eventID, domain.CreateMessageInput{
		SenderName:   req.SenderName,
		Text:         req.Text,
		Participants: req.Participants,
	})
	if err != nil {
		log.Debug().Err(err).Str("event_id", eventID).Msg("Failed to post message")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, message)
}

// handleServiceError maps domain errors to appropriate HTTP responses
func (h *MessageHandler) handleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrEventIDRequired):
		return NewValidationError(c, "Event ID is required", nil)
	case errors.Is(err, domain.ErrSenderRequired):
		return NewValidationError(c, "sender_name is required", []ValidationError{
			{Field: "sender_name", Message: "Sender name is required"},
		})
	case errors.Is(err, domain.ErrTextRequired):
		return NewValidationError(c, "text is required", []ValidationError{
			{Field: "text", Message: "Text is required"},
		})
	case errors.Is(err, domain.ErrMessageTooLong):
		return NewValidationError(c, fmt.Sprintf("Message too long (max %d characters)", domain.MaxMessageLength), []ValidationError{
			{Field: "text", Message: "Message too long"},
		})
	case errors.Is(err, domain.ErrUnknownSender):
		return NewUnknownSenderError(c, strings.Replace(err.Error(), "unknown sender", "Unknown sender", 1))
	default:
		return NewInternalError(c, "An unexpected error occurred")
	}
}
