package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// pingPeriod must stay below pongWait
	pingPeriod = (pongWait * 9) / 10

	// Followers only receive; inbound frames are pongs and close frames
	maxMessageSize = 512

	// sendBuffer is how many events a follower may lag before it is evicted
	sendBuffer = 64

	// closeReason is sent to followers disconnected by the server
	closeReason = "event room closed"
)

// Client is a browser following one event over a WebSocket
type Client struct {
	id          string
	eventID     string
	participant string
	conn        *websocket.Conn
	hub         *Hub

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient creates a follower of eventID.
// participant may be empty when the viewer has not said who they are.
func NewClient(conn *websocket.Conn, hub *Hub, eventID, participant string) *Client {
	return &Client{
		id:          uuid.New().String(),
		eventID:     eventID,
		participant: participant,
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string          { return c.id }
func (c *Client) EventID() string     { return c.eventID }
func (c *Client) Participant() string { return c.participant }

// Send queues an event without blocking; a full queue means the follower is too slow
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close stops delivery. WritePump sends the close frame and releases the connection.
// Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// Run pumps the connection until either side goes away, then leaves the event room
func (c *Client) Run() {
	go c.WritePump()
	c.ReadPump()
}

// ReadPump watches the connection for pongs and the peer going away
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("event_id", c.eventID).
					Msg("WebSocket unexpected close")
			}
			return
		}
	}
}

// WritePump delivers queued events and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, closeReason))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("event_id", c.eventID).
					Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
