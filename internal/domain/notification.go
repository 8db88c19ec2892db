package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a fire-and-forget observational record. Roster
// correctness never depends on it.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Payload   map[string]any
	Read      bool
	CreatedAt time.Time
}

func NewNotification(userID uuid.UUID, typ string, payload map[string]any) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}
