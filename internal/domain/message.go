package domain

import "time"

// Message is a chat message posted to an event
type Message struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateMessageInput contains the input for posting a chat message
type CreateMessageInput struct {
	SenderName   string
	Text         string
	Participants []string
}

// MessageRepository defines the interface for chat log operations
type MessageRepository interface {
	Append(message *Message) (*Message, error)
	ListByEvent(eventID string) ([]*Message, error)
	SetParticipants(eventID string, names []string) error
	GetParticipants(eventID string) ([]string, error)
}
