package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Hub tracks connected clients and their room subscriptions. Emission is
// at-most-once and never blocks the caller: a client that cannot keep up
// simply misses messages and reconciles on its next fetch.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register adds the client and joins it to its own user room.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	h.JoinRoom(client, UserRoom(client.UserID))
	h.log.Debug("client registered",
		slog.String("client_id", client.ID),
		slog.String("user_id", client.UserID.String()),
	)
}

// Unregister removes the client from every room and closes it.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
	}
	for roomID, members := range h.rooms {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	if client != nil {
		client.close()
		h.log.Debug("client unregistered", slog.String("client_id", client.ID))
	}
}

// JoinRoom subscribes the client to a room. Joining twice is a no-op.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	if client == nil || roomID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[client.ID] = client
}

// LeaveRoom unsubscribes the client from a room. Leaving a room the client
// is not in is a no-op.
func (h *Hub) LeaveRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// JoinUser subscribes every live connection of the user to a room. Used
// when a mutation entitles the user to a new room mid-connection.
func (h *Hub) JoinUser(userID uuid.UUID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	for _, client := range h.clients {
		if client.UserID == userID {
			members[client.ID] = client
		}
	}
}

// LeaveUser drops every connection of the user from a room.
func (h *Hub) LeaveUser(userID uuid.UUID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for id, client := range members {
		if client.UserID == userID {
			delete(members, id)
		}
	}
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Emit broadcasts to one room, fire and forget.
func (h *Hub) Emit(roomID, event string, payload any) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for _, client := range h.rooms[roomID] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	msg := Message{Event: event, Payload: payload}
	for _, client := range members {
		if !client.Enqueue(msg) {
			h.log.Debug("dropping event",
				slog.String("client_id", client.ID),
				slog.String("event", event),
			)
		}
	}
}

// EmitAll broadcasts to every connected client, regardless of rooms.
func (h *Hub) EmitAll(event string, payload any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	msg := Message{Event: event, Payload: payload}
	for _, client := range clients {
		if !client.Enqueue(msg) {
			h.log.Debug("dropping event",
				slog.String("client_id", client.ID),
				slog.String("event", event),
			)
		}
	}
}

// RoomSize reports how many clients are subscribed to a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
