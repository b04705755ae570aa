package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a shared-expense room that participants join with a password
type Event struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	PasswordHash string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	Participants []Participant `json:"participants"`
	Expenses     []Expense     `json:"expenses"`
}

// Expense is a single purchase recorded against an event
type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paid_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateEventInput contains the input for creating or joining an event
type CreateEventInput struct {
	Name     string
	Password string
}

// UpdateEventInput replaces the participant and/or expense lists of an event.
// A nil slice leaves the stored list untouched.
type UpdateEventInput struct {
	Participants []Participant
	Expenses     []Expense
}

// EventAccess is returned after creating or joining an event
type EventAccess struct {
	Event *Event
	Token string
}

// EventRepository defines the interface for event storage operations
type EventRepository interface {
	GetByID(id string) (*Event, error)
	GetByName(name string) (*Event, error)
	Create(event *Event) (*Event, error)
	Update(event *Event) (*Event, error)
}
