package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated    EventType = "created"
	EventTypeUpdated    EventType = "updated"
	EventTypeCalculated EventType = "calculated"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeMessage    EntityType = "message"
	EntityTypeEvent      EntityType = "event"
	EntityTypeSettlement EntityType = "settlement"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "message.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "message"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp

	// Origin is the participant who caused the event; it is not sent
	Origin string `json:"-"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// From returns a copy of the event attributed to the given participant
func (e Event) From(participant string) Event {
	e.Origin = participant
	return e
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MessageCreated creates a message.created event
func MessageCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeMessage, payload)
}

// EventUpdated creates an event.updated event
func EventUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeEvent, payload)
}

// SettlementCalculated creates a settlement.calculated event
func SettlementCalculated(payload interface{}) Event {
	return NewEvent(EventTypeCalculated, EntityTypeSettlement, payload)
}
