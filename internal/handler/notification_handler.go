package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// NotificationHandler handles settlement email HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// SendNotificationsRequest carries a settlement in the shape returned by the calculate endpoint
type SendNotificationsRequest struct {
	Settlement *domain.SettlementResult `json:"settlement"`
}

// SendNotificationsResponse reports how many participants were emailed
type SendNotificationsResponse struct {
	Success       bool                        `json:"success"`
	Total         int                         `json:"total"`
	Sent          int                         `json:"sent"`
	Notifications []domain.NotificationResult `json:"notifications"`
	Message       string                      `json:"message"`
}

// Send emails every participant their part of a settlement
// @Summary Send settlement emails
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body SendNotificationsRequest true "Settlement to notify"
// @Success 200 {object} SendNotificationsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /api/v1/notifications [post]
func (h *NotificationHandler) Send(c echo.Context) error {
	var req SendNotificationsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Settlement == nil {
		return NewValidationError(c, "Missing settlement data", []ValidationError{
			{Field: "settlement", Message: "Settlement is required"},
		})
	}

	report, err := h.notificationService.Notify(c.Request().Context(), req.Settlement)
	if err != nil {
		log.Error().Err(err).Msg("Failed to send notifications")
		return h.handleServiceError(c, err)
	}

	log.Info().Int("total", report.Total).Int("sent", report.Sent).Msg("Settlement notifications processed")

	return c.JSON(http.StatusOK, SendNotificationsResponse{
		Success:       true,
		Total:         report.Total,
		Sent:          report.Sent,
		Notifications: report.Notifications,
		Message:       fmt.Sprintf("Email notifications sent to %d/%d participants", report.Sent, report.Total),
	})
}

// handleServiceError maps domain errors to appropriate HTTP responses
func (h *NotificationHandler) handleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Missing settlement data", nil)
	default:
		return NewInternalError(c, "Failed to send notifications")
	}
}
