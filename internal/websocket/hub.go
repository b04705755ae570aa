package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when sending to a client that has left or fallen behind
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is a follower of one event room
type ClientInterface interface {
	ID() string
	EventID() string
	// Participant is the expense-list name the client identified as, empty when anonymous
	Participant() string
	Send(data []byte) error
	Close() error
}

// room holds the followers of a single event keyed by client ID
type room map[string]ClientInterface

// Hub fans event changes out to everyone following the event.
// It is safe for concurrent use.
type Hub struct {
	rooms map[string]room
	mu    sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]room),
	}
}

// Register adds a client to the room of its event
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[client.EventID()]
	if !ok {
		r = make(room)
		h.rooms[client.EventID()] = r
	}
	r[client.ID()] = client

	log.Debug().
		Str("event_id", client.EventID()).
		Str("client_id", client.ID()).
		Str("participant", client.Participant()).
		Int("followers", len(r)).
		Msg("WebSocket client joined event room")
}

// Unregister removes a client from its room and reports whether it was present
func (h *Hub) Unregister(client ClientInterface) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.removeLocked(client.EventID(), client.ID())
}

func (h *Hub) removeLocked(eventID, clientID string) bool {
	r, ok := h.rooms[eventID]
	if !ok {
		return false
	}
	if _, ok := r[clientID]; !ok {
		return false
	}

	delete(r, clientID)
	if len(r) == 0 {
		delete(h.rooms, eventID)
	}

	log.Debug().
		Str("event_id", eventID).
		Str("client_id", clientID).
		Msg("WebSocket client left event room")
	return true
}

// recipients snapshots the room minus the participant who caused the event
func (h *Hub) recipients(eventID, origin string) []ClientInterface {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r := h.rooms[eventID]
	out := make([]ClientInterface, 0, len(r))
	for _, client := range r {
		if origin != "" && client.Participant() == origin {
			continue
		}
		out = append(out, client)
	}
	return out
}

// Broadcast delivers an event to every follower of the event room.
// The participant named by event.Origin already has the change and is skipped.
// Followers that cannot take the event are evicted and closed.
func (h *Hub) Broadcast(eventID string, event Event) {
	clients := h.recipients(eventID, event.Origin)
	if len(clients) == 0 {
		return
	}

	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("event_id", eventID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	delivered := 0
	for _, client := range clients {
		if err := client.Send(data); err != nil {
			log.Warn().
				Err(err).
				Str("event_id", eventID).
				Str("client_id", client.ID()).
				Msg("Evicting WebSocket client that cannot keep up")
			h.evict(client)
			continue
		}
		delivered++
	}

	log.Debug().
		Str("event_id", eventID).
		Str("event_type", event.Type).
		Int("delivered", delivered).
		Msg("Broadcast event")
}

func (h *Hub) evict(client ClientInterface) {
	h.Unregister(client)
	if err := client.Close(); err != nil {
		log.Debug().Err(err).Str("client_id", client.ID()).Msg("Close after eviction failed")
	}
}

// CloseRoom disconnects every follower of the event and returns how many were closed
func (h *Hub) CloseRoom(eventID string) int {
	h.mu.Lock()
	r := h.rooms[eventID]
	delete(h.rooms, eventID)
	h.mu.Unlock()

	for _, client := range r {
		if err := client.Close(); err != nil {
			log.Debug().Err(err).Str("client_id", client.ID()).Msg("Close failed")
		}
	}

	if len(r) > 0 {
		log.Info().Str("event_id", eventID).Int("followers", len(r)).Msg("Closed event room")
	}
	return len(r)
}

// Close disconnects every follower of every event
func (h *Hub) Close() {
	h.mu.RLock()
	eventIDs := make([]string, 0, len(h.rooms))
	for eventID := range h.rooms {
		eventIDs = append(eventIDs, eventID)
	}
	h.mu.RUnlock()

	for _, eventID := range eventIDs {
		h.CloseRoom(eventID)
	}
}

// ClientCount returns the number of followers of an event
func (h *Hub) ClientCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[eventID])
}

// TotalClientCount returns the number of followers across all events
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, r := range h.rooms {
		total += len(r)
	}
	return total
}
