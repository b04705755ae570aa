package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/websocket"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer creates access tokens for events
type TokenIssuer interface {
	Issue(eventID string) (string, error)
}

// EventService handles shared-expense event operations
type EventService struct {
	eventRepo         domain.EventRepository
	tokens            TokenIssuer
	settlementService *SettlementService
	eventPublisher    websocket.EventPublisher
	hashCost          int
}

// NewEventService creates a new EventService
func NewEventService(eventRepo domain.EventRepository, tokens TokenIssuer, settlementService *SettlementService) *EventService {
	return &EventService{
		eventRepo:         eventRepo,
		tokens:            tokens,
		settlementService: settlementService,
		hashCost:          bcrypt.DefaultCost,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *EventService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetHashCost overrides the bcrypt cost used for event passwords
func (s *EventService) SetHashCost(cost int) {
	s.hashCost = cost
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *EventService) publishEvent(eventID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(eventID, event)
	}
}

// Create creates a new event protected by a password and returns an access token for it
func (s *EventService) Create(input domain.CreateEventInput) (*domain.EventAccess, error) {
	name, password, err := validateCredentials(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.eventRepo.GetByName(name); err == nil {
		return nil, domain.ErrEventNameTaken
	} else if !errors.Is(err, domain.ErrEventNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.eventRepo.Create(&domain.Event{
		ID:           "evt_" + uuid.New().String(),
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
		Participants: []domain.Participant{},
		Expenses:     []domain.Expense{},
	})
	if err != nil {
		return nil, err
	}

	return s.grantAccess(created)
}

// Join verifies the password of a named event and returns the event with an access token
func (s *EventService) Join(input domain.CreateEventInput) (*domain.EventAccess, error) {
	name, password, err := validateCredentials(input)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByName(name)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(event.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.grantAccess(event)
}

// Exists reports whether an event with the given name exists
func (s *EventService) Exists(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, domain.ErrEventNameRequired
	}

	_, err := s.eventRepo.GetByName(name)
	if errors.Is(err, domain.ErrEventNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get retrieves an event by ID
func (s *EventService) Get(eventID string) (*domain.Event, error) {
	return s.eventRepo.GetByID(eventID)
}

// Update replaces the participants and/or expenses of an event
func (s *EventService) Update(eventID string, input domain.UpdateEventInput) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	if input.Participants != nil {
		event.Participants = input.Participants
	}
	if input.Expenses != nil {
		now := time.Now().UTC()
		expenses := make([]domain.Expense, len(input.Expenses))
		for i, exp := range input.Expenses {
			if exp.ID == "" {
				exp.ID = "exp_" + uuid.New().String()
			}
			if exp.CreatedAt.IsZero() {
				exp.CreatedAt = now
			}
			expenses[i] = exp
		}
		event.Expenses = expenses
	}

	updated, err := s.eventRepo.Update(event)
	if err != nil {
		return nil, err
	}

	s.publishEvent(eventID, websocket.EventUpdated(updated))
	return updated, nil
}

// Settle computes the settlement for an event's stored participants
func (s *EventService) Settle(eventID string) (*domain.SettlementResult, error) {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	return s.settlementService.CalculateForEvent(eventID, event.Participants)
}

func (s *EventService) grantAccess(event *domain.Event) (*domain.EventAccess, error) {
	token, err := s.tokens.Issue(event.ID)
	if err != nil {
		return nil, err
	}
	return &domain.EventAccess{Event: event, Token: token}, nil
}

func validateCredentials(input domain.CreateEventInput) (name, password string, err error) {
	name = strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", domain.ErrEventNameRequired
	}
	if len(name) > domain.MaxEventNameLength {
		return "", "", domain.ErrInvalidInput
	}

	password = strings.TrimSpace(input.Password)
	if len(password) < domain.MinPasswordLength {
		return "", "", domain.ErrPasswordTooShort
	}
	return name, password, nil
}
