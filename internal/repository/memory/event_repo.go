// Package memory provides process-local repositories.
// Stored values are copied on the way in and out so callers never share slices with the store.
package memory

import (
	"sync"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
)

// EventRepository implements domain.EventRepository in memory
type EventRepository struct {
	events map[string]*domain.Event
	byName map[string]string
	mu     sync.RWMutex
}

// NewEventRepository creates a new EventRepository
func NewEventRepository() *EventRepository {
	return &EventRepository{
		events: make(map[string]*domain.Event),
		byName: make(map[string]string),
	}
}

// GetByID retrieves an event by its ID
func (r *EventRepository) GetByID(id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return copyEvent(event), nil
}

// GetByName retrieves an event by its exact name
func (r *EventRepository) GetByName(name string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return copyEvent(r.events[id]), nil
}

// Create stores a new event. Names are unique.
func (r *EventRepository) Create(event *domain.Event) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[event.Name]; taken {
		return nil, domain.ErrEventNameTaken
	}
	if _, exists := r.events[event.ID]; exists {
		return nil, domain.ErrAlreadyExists
	}

	stored := copyEvent(event)
	r.events[stored.ID] = stored
	r.byName[stored.Name] = stored.ID
	return copyEvent(stored), nil
}

// Update replaces the participants and expenses of an existing event
func (r *EventRepository) Update(event *domain.Event) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.events[event.ID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}

	updated := copyEvent(existing)
	updated.Participants = copyEvent(event).Participants
	updated.Expenses = copyEvent(event).Expenses
	r.events[event.ID] = updated
	return copyEvent(updated), nil
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	c.Participants = append(make([]domain.Participant, 0, len(e.Participants)), e.Participants...)
	c.Expenses = append(make([]domain.Expense, 0, len(e.Expenses)), e.Expenses...)
	return &c
}
