package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SettlementHandler handles settlement HTTP requests
type SettlementHandler struct {
	settlementService *service.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// ParticipantRequest is one participant in a settlement request
type ParticipantRequest struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	AmountPaid decimal.Decimal `json:"amount_paid" swaggertype:"number"`
}

// CalculateSettlementRequest represents the JSON request for calculating a settlement
type CalculateSettlementRequest struct {
	EventName    string               `json:"event_name,omitempty"`
	Participants []ParticipantRequest `json:"participants"`
}

// TransactionResponse is a single payment in a settlement response
type TransactionResponse struct {
	FromName  string  `json:"from_name"`
	FromEmail string  `json:"from_email"`
	ToName    string  `json:"to_name"`
	ToEmail   string  `json:"to_email"`
	Amount    float64 `json:"amount"`
}

// SummaryResponse is one participant's position in a settlement response
type SummaryResponse struct {
	Name          string  `json:"name"`
	AmountPaid    float64 `json:"amount_paid"`
	ShouldPay     float64 `json:"should_pay"`
	ShouldReceive float64 `json:"should_receive"`
}

// SettlementResponse represents the JSON response for a calculated settlement
type SettlementResponse struct {
	EventName      string                     `json:"event_name"`
	TotalExpense   float64                    `json:"total_expense"`
	PerPersonShare float64                    `json:"per_person_share"`
	Transactions   []TransactionResponse      `json:"transactions"`
	Summary        map[string]SummaryResponse `json:"summary"`
}

// Calculate computes who pays whom for a group expense
// @Summary Calculate settlement
// @Description Computes the per-person share and the payments that settle the group
// @Tags settlements
// @Accept json
// @Produce json
// @Param request body CalculateSettlementRequest true "Participants and what each paid"
// @Success 200 {object} SettlementResponse
// @Failure 400 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /api/v1/settlements/calculate [post]
func (h *SettlementHandler) Calculate(c echo.Context) error {
	var req CalculateSettlementRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	participants, validationErrors := toParticipants(req.Participants)
	if len(validationErrors) > 0 {
		return NewValidationError(c, "Invalid participants", validationErrors)
	}

	result, err := h.settlementService.Calculate(participants)
	if err != nil {
		log.Error().Err(err).Int("participant_count", len(participants)).Msg("Failed to calculate settlement")
		return handleSettlementError(c, err)
	}

	return c.JSON(http.StatusOK, toSettlementResponse(req.EventName, result))
}

// toParticipants validates request participants and converts them to domain values
func toParticipants(reqs []ParticipantRequest) ([]domain.Participant, []ValidationError) {
	var validationErrors []ValidationError
	participants := make([]domain.Participant, 0, len(reqs))

	for i, p := range reqs {
		field := fmt.Sprintf("participants[%d]", i)

		name := strings.TrimSpace(p.Name)
		if name == "" {
			validationErrors = append(validationErrors, ValidationError{Field: field + ".name", Message: "Name is required"})
		}

		email := strings.TrimSpace(p.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			validationErrors = append(validationErrors, ValidationError{Field: field + ".email", Message: "Invalid email address"})
		}

		if p.AmountPaid.IsNegative() {
			validationErrors = append(validationErrors, ValidationError{Field: field + ".amount_paid", Message: "Amount paid cannot be negative"})
		}

		participants = append(participants, domain.Participant{
			Name:       name,
			Email:      email,
			AmountPaid: p.AmountPaid,
		})
	}

	return participants, validationErrors
}

// toSettlementResponse converts a settlement result to its JSON form
func toSettlementResponse(eventName string, result *domain.SettlementResult) SettlementResponse {
	eventName = strings.TrimSpace(eventName)
	if eventName == "" {
		eventName = domain.DefaultEventName
	}

	transactions := make([]TransactionResponse, len(result.Transactions))
	for i, tx := range result.Transactions {
		transactions[i] = TransactionResponse{
			FromName:  tx.FromName,
			FromEmail: tx.FromEmail,
			ToName:    tx.ToName,
			ToEmail:   tx.ToEmail,
			Amount:    tx.Amount.InexactFloat64(),
		}
	}

	summary := make(map[string]SummaryResponse, len(result.Summary))
	for email, info := range result.Summary {
		summary[email] = SummaryResponse{
			Name:          info.Name,
			AmountPaid:    info.AmountPaid.InexactFloat64(),
			ShouldPay:     info.ShouldPay.InexactFloat64(),
			ShouldReceive: info.ShouldReceive.InexactFloat64(),
		}
	}

	return SettlementResponse{
		EventName:      eventName,
		TotalExpense:   result.TotalExpense.InexactFloat64(),
		PerPersonShare: result.PerPersonShare.InexactFloat64(),
		Transactions:   transactions,
		Summary:        summary,
	}
}

// handleSettlementError maps settlement errors to HTTP responses
func handleSettlementError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNoParticipants):
		return NewValidationError(c, domain.ErrNoParticipants.Error(), nil)
	case errors.Is(err, domain.ErrEventNotFound):
		return NewNotFoundError(c, "Event not found")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid settlement input", nil)
	default:
		return NewInternalError(c, "Failed to calculate settlement")
	}
}
