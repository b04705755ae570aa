package service

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/websocket"
	"github.com/google/uuid"
)

// MessageService handles the per-event chat log
type MessageService struct {
	messageRepo    domain.MessageRepository
	eventPublisher websocket.EventPublisher
}

// NewMessageService creates a new MessageService
func NewMessageService(messageRepo domain.MessageRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *MessageService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns the messages of an event in chronological order
func (s *MessageService) List(eventID string) ([]*domain.Message, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, domain.ErrEventIDRequired
	}
	return s.messageRepo.ListByEvent(eventID)
}

// Create posts a message to an event.
// A non-empty participant list replaces the event's allowed senders.
func (s *MessageService) Create(eventID string, input domain.CreateMessageInput) (*domain.Message, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, domain.ErrEventIDRequired
	}

	sender := strings.TrimSpace(input.SenderName)
	if sender == "" {
		return nil, domain.ErrSenderRequired
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, domain.ErrTextRequired
	}
	if utf8.RuneCountInString(text) > domain.MaxMessageLength {
		return nil, domain.ErrMessageTooLong
	}

	if len(input.Participants) > 0 {
		if err := s.messageRepo.SetParticipants(eventID, input.Participants); err != nil {
			return nil, err
		}
	}

	known, err := s.messageRepo.GetParticipants(eventID)
	if err != nil {
		return nil, err
	}
	if len(known) > 0 && !slices.Contains(known, sender) {
		return nil, fmt.Errorf("%w '%s'. Allowed: %s", domain.ErrUnknownSender, sender, strings.Join(known, ", "))
	}

	message, err := s.messageRepo.Append(&domain.Message{
		ID:         newMessageID(),
		EventID:    eventID,
		SenderName: sender,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(eventID, websocket.MessageCreated(message).From(message.SenderName))
	}

	return message, nil
}

func newMessageID() string {
	return "msg_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
