package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/repository/memory"
	"github.com/dafibh/evenup/evenup-backend/internal/websocket"
)

// MockEventPublisher records published events per event room
type MockEventPublisher struct {
	events map[string][]websocket.Event
	mu     sync.Mutex
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make(map[string][]websocket.Event),
	}
}

// Publish records the event
func (m *MockEventPublisher) Publish(eventID string, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventID] = append(m.events[eventID], event)
}

// EventsFor returns the events published to a room
func (m *MockEventPublisher) EventsFor(eventID string) []websocket.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]websocket.Event(nil), m.events[eventID]...)
}

// MockMailer is a mock implementation of domain.Mailer
type MockMailer struct {
	SendFn func(email domain.Email) error
	sent   []domain.Email
	mu     sync.Mutex
}

// NewMockMailer creates a new MockMailer
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// Send records the email and returns SendFn's error if set
func (m *MockMailer) Send(ctx context.Context, email domain.Email) error {
	if m.SendFn != nil {
		if err := m.SendFn(email); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

// Sent returns the successfully sent emails
func (m *MockMailer) Sent() []domain.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Email(nil), m.sent...)
}

// MockTokenIssuer issues predictable tokens
type MockTokenIssuer struct {
	IssueFn func(eventID string) (string, error)
}

// NewMockTokenIssuer creates a new MockTokenIssuer
func NewMockTokenIssuer() *MockTokenIssuer {
	return &MockTokenIssuer{}
}

// Issue returns "token-<eventID>" unless IssueFn is set
func (m *MockTokenIssuer) Issue(eventID string) (string, error) {
	if m.IssueFn != nil {
		return m.IssueFn(eventID)
	}
	return fmt.Sprintf("token-%s", eventID), nil
}

// MockTokenValidator maps tokens to event IDs
type MockTokenValidator struct {
	Tokens map[string]string
}

// NewMockTokenValidator creates a new MockTokenValidator
func NewMockTokenValidator() *MockTokenValidator {
	return &MockTokenValidator{Tokens: make(map[string]string)}
}

// Validate returns the event ID registered for the token
func (m *MockTokenValidator) Validate(ctx context.Context, token string) (string, error) {
	if eventID, ok := m.Tokens[token]; ok {
		return eventID, nil
	}
	return "", domain.ErrUnauthorized
}

// MockMessageRepository wraps the in-memory repository with failure hooks
type MockMessageRepository struct {
	*memory.MessageRepository
	AppendErr error
}

// NewMockMessageRepository creates a new MockMessageRepository
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{MessageRepository: memory.NewMessageRepository()}
}

// Append fails with AppendErr when set
func (m *MockMessageRepository) Append(message *domain.Message) (*domain.Message, error) {
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	return m.MessageRepository.Append(message)
}

// MockEventRepository wraps the in-memory repository with failure hooks
type MockEventRepository struct {
	*memory.EventRepository
	GetByIDErr error
}

// NewMockEventRepository creates a new MockEventRepository
func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{EventRepository: memory.NewEventRepository()}
}

// GetByID fails with GetByIDErr when set
func (m *MockEventRepository) GetByID(id string) (*domain.Event, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	return m.EventRepository.GetByID(id)
}
