package memory

import (
	"sort"
	"sync"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
)

// MessageRepository implements domain.MessageRepository in memory
type MessageRepository struct {
	messages     map[string][]*domain.Message
	participants map[string][]string
	mu           sync.RWMutex
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		messages:     make(map[string][]*domain.Message),
		participants: make(map[string][]string),
	}
}

// Append adds a message to its event's log
func (r *MessageRepository) Append(message *domain.Message) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *message
	r.messages[message.EventID] = append(r.messages[message.EventID], &stored)

	out := stored
	return &out, nil
}

// ListByEvent returns an event's messages ordered by creation time, then insertion order
func (r *MessageRepository) ListByEvent(eventID string) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[eventID]
	messages := make([]*domain.Message, 0, len(stored))
	for _, m := range stored {
		c := *m
		messages = append(messages, &c)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// SetParticipants replaces the sender allow-list of an event
func (r *MessageRepository) SetParticipants(eventID string, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.participants[eventID] = append([]string(nil), names...)
	return nil
}

// GetParticipants returns the sender allow-list of an event, nil when none was set
func (r *MessageRepository) GetParticipants(eventID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names, ok := r.participants[eventID]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), names...), nil
}
