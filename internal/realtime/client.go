package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one websocket connection of one user. A user may hold several
// clients at once (multiple tabs or devices).
type Client struct {
	ID          string
	UserID      uuid.UUID
	ConnectedAt time.Time

	mu     sync.Mutex
	socket *websocket.Conn
	events chan Message
	closed bool
}

func NewClient(userID uuid.UUID, socket *websocket.Conn) *Client {
	return &Client{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		socket:      socket,
		events:      make(chan Message, 32),
	}
}

// Enqueue hands a message to the client's writer without ever blocking the
// caller; a full buffer means the message is dropped.
func (c *Client) Enqueue(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
	if c.socket != nil {
		c.socket.Close()
	}
}

// WritePump drains the event channel into the socket. It returns when the
// client is closed or the socket write fails.
func (c *Client) WritePump() {
	for msg := range c.events {
		c.mu.Lock()
		socket := c.socket
		c.mu.Unlock()
		if socket == nil {
			return
		}
		if err := socket.WriteJSON(msg); err != nil {
			return
		}
	}
}
