package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/middleware"
	"github.com/dafibh/evenup/evenup-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EventHandler handles shared-expense event HTTP requests
type EventHandler struct {
	eventService *service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// EventCredentialsRequest represents the JSON request for creating or joining an event
type EventCredentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// ExpenseRequest is a single expense in an event update
type ExpenseRequest struct {
	ID          string          `json:"id,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	PaidBy      string          `json:"paid_by"`
}

// UpdateEventRequest represents the JSON request for updating an event.
// Omitted lists are left unchanged.
type UpdateEventRequest struct {
	Participants []ParticipantRequest `json:"participants,omitempty"`
	Expenses     []ExpenseRequest     `json:"expenses,omitempty"`
}

// ParticipantResponse is a participant stored on an event
type ParticipantResponse struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	AmountPaid float64 `json:"amount_paid"`
}

// ExpenseResponse is an expense stored on an event
type ExpenseResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	PaidBy      string  `json:"paid_by"`
	CreatedAt   string  `json:"created_at"`
}

// EventResponse represents an event in JSON responses
type EventResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	CreatedAt    string                `json:"created_at"`
	Token        string                `json:"token,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
	Expenses     []ExpenseResponse     `json:"expenses"`
}

// EventExistsResponse reports whether an event name is in use
type EventExistsResponse struct {
	Exists bool `json:"exists"`
}

// Create creates a new password-protected event
// @Summary Create event
// @Description Creates a shared-expense event and returns an access token for it
// @Tags events
// @Accept json
// @Produce json
// @Param request body EventCredentialsRequest true "Event name and password"
// @Success 201 {object} EventResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /api/v1/events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req EventCredentialsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	access, err := h.eventService.Create(domain.CreateEventInput{Name: req.Name, Password: req.Password})
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to create event")
		return h.handleServiceError(c, err)
	}

	log.Info().Str("event_id", access.Event.ID).Msg("Event created")
	return c.JSON(http.StatusCreated, toEventResponse(access.Event, access.Token))
}

// Join grants access to an existing event
// @Summary Join event
// @Description Verifies the event password and returns the event with an access token
// @Tags events
// @Accept json
// @Produce json
// @Param request body EventCredentialsRequest true "Event name and password"
// @Success 200 {object} EventResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /api/v1/events/join [post]
func (h *EventHandler) Join(c echo.Context) error {
	var req EventCredentialsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	access, err := h.eventService.Join(domain.CreateEventInput{Name: req.Name, Password: req.Password})
	if err != nil {
		log.Debug().Err(err).Str("name", req.Name).Msg("Failed to join event")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toEventResponse(access.Event, access.Token))
}

// Check reports whether an event name is taken
// @Summary Check event name
// @Tags events
// @Produce json
// @Param name query string true "Event name"
// @Success 200 {object} EventExistsResponse
// @Failure 400 {object} ProblemDetails
// @Router /api/v1/events/check [get]
func (h *EventHandler) Check(c echo.Context) error {
	exists, err := h.eventService.Exists(c.QueryParam("name"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, EventExistsResponse{Exists: exists})
}

// Get returns the event granted by the access token
// @Summary Get event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} EventResponse
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /api/v1/events/{id} [get]
func (h *EventHandler) Get(c echo.Context) error {
	eventID := middleware.GetEventID(c)
	if eventID == "" {
		return NewUnauthorizedError(c, "Event access required")
	}

	event, err := h.eventService.Get(eventID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toEventResponse(event, ""))
}

// Update replaces the participants and/or expenses of an event
// @Summary Update event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body UpdateEventRequest true "Participants and expenses"
// @Success 200 {object} EventResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /api/v1/events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	eventID := middleware.GetEventID(c)
	if eventID == "" {
		return NewUnauthorizedError(c, "Event access required")
	}

	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var input domain.UpdateEventInput
	var validationErrors []ValidationError
	if req.Participants != nil {
		participants, errs := toParticipants(req.Participants)
		input.Participants = participants
		validationErrors = append(validationErrors, errs...)
	}
	if req.Expenses != nil {
		expenses, errs := toExpenses(req.Expenses)
		input.Expenses = expenses
		validationErrors = append(validationErrors, errs...)
	}
	if len(validationErrors) > 0 {
		return NewValidationError(c, "Invalid event update", validationErrors)
	}

	event, err := h.eventService.Update(eventID, input)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to update event")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toEventResponse(event, ""))
}

// Settle calculates the settlement for the event's stored participants
// @Summary Settle event
// @Description Runs the settlement over the event's participants and notifies connected clients
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} SettlementResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /api/v1/events/{id}/settlement [post]
func (h *EventHandler) Settle(c echo.Context) error {
	eventID := middleware.GetEventID(c)
	if eventID == "" {
		return NewUnauthorizedError(c, "Event access required")
	}

	event, err := h.eventService.Get(eventID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	result, err := h.eventService.Settle(eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to settle event")
		return handleSettlementError(c, err)
	}

	return c.JSON(http.StatusOK, toSettlementResponse(event.Name, result))
}

// toExpenses validates request expenses and converts them to domain values
func toExpenses(reqs []ExpenseRequest) ([]domain.Expense, []ValidationError) {
	var validationErrors []ValidationError
	expenses := make([]domain.Expense, 0, len(reqs))

	for i, e := range reqs {
		field := fmt.Sprintf("expenses[%d]", i)

		description := strings.TrimSpace(e.Description)
		if description == "" {
			validationErrors = append(validationErrors, ValidationError{Field: field + ".description", Message: "Description is required"})
		}
		if e.Amount.IsNegative() {
			validationErrors = append(validationErrors, ValidationError{Field: field + ".amount", Message: "Amount cannot be negative"})
		}

		expenses = append(expenses, domain.Expense{
			ID:          e.ID,
			Description: description,
			Amount:      e.Amount,
			PaidBy:      strings.TrimSpace(e.PaidBy),
		})
	}

	return expenses, validationErrors
}

// toEventResponse converts a domain event to its JSON form
func toEventResponse(event *domain.Event, token string) EventResponse {
	participants := make([]ParticipantResponse, len(event.Participants))
	for i, p := range event.Participants {
		participants[i] = ParticipantResponse{
			Name:       p.Name,
			Email:      p.Email,
			AmountPaid: p.AmountPaid.InexactFloat64(),
		}
	}

	expenses := make([]ExpenseResponse, len(event.Expenses))
	for i, e := range event.Expenses {
		expenses[i] = ExpenseResponse{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount.InexactFloat64(),
			PaidBy:      e.PaidBy,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		}
	}

	return EventResponse{
		ID:           event.ID,
		Name:         event.Name,
		CreatedAt:    event.CreatedAt.Format(time.RFC3339),
		Token:        token,
		Participants: participants,
		Expenses:     expenses,
	}
}

// handleServiceError maps domain errors to appropriate HTTP responses
func (h *EventHandler) handleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		return NewNotFoundError(c, "Event not found")
	case errors.Is(err, domain.ErrEventNameTaken):
		return NewConflictError(c, "An event with this name already exists")
	case errors.Is(err, domain.ErrEventNameRequired):
		return NewValidationError(c, "Event name is required", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrPasswordTooShort):
		return NewValidationError(c, fmt.Sprintf("Password must be at least %d characters", domain.MinPasswordLength), []ValidationError{
			{Field: "password", Message: "Password is too short"},
		})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return NewUnauthorizedError(c, "Invalid password")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, fmt.Sprintf("Event name must be %d characters or less", domain.MaxEventNameLength), nil)
	default:
		return NewInternalError(c, "An unexpected error occurred")
	}
}
