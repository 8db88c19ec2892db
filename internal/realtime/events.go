package realtime

import "github.com/google/uuid"

// Realtime event names exposed to clients.
const (
	EventRequestNew     = "event:request:new"
	EventRequestUpdated = "event:request:updated"
	EventRequestStatus  = "event:request:status"
	EventCreated        = "event:created"
	EventUpdated        = "event:updated"
	EventDeleted        = "event:deleted"
	ChatsUpdate         = "chats:update"
	MessageNew          = "message:new"
	NotificationNew     = "notification:new"
)

func UserRoom(id uuid.UUID) string  { return "user:" + id.String() }
func EventRoom(id uuid.UUID) string { return "event:" + id.String() }
func ChatRoom(id uuid.UUID) string  { return "chat:" + id.String() }

// Message is the envelope written to connected clients.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}
