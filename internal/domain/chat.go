package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chat is the group conversation attached 1:1 to an event. Once created it
// survives until the event itself is deleted, no matter how many
// participants remain.
type Chat struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	CreatedAt time.Time
}

func NewChat(eventID uuid.UUID) *Chat {
	return &Chat{
		ID:        uuid.New(),
		EventID:   eventID,
		CreatedAt: time.Now().UTC(),
	}
}

// ChatParticipant mirrors accepted membership at the time the user entered
// the chat. The roster is stored independently of membership and only ever
// reconciled incrementally.
type ChatParticipant struct {
	ID       uuid.UUID
	ChatID   uuid.UUID
	UserID   uuid.UUID
	JoinedAt time.Time
}

func NewChatParticipant(chatID, userID uuid.UUID) *ChatParticipant {
	return &ChatParticipant{
		ID:       uuid.New(),
		ChatID:   chatID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
}

type ChatMessage struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	EventID   *uuid.UUID // detached (set to nil) when the event is deleted
	UserID    uuid.UUID
	System    bool
	Content   string
	CreatedAt time.Time
}

func NewChatMessage(chatID, eventID, userID uuid.UUID, content string) *ChatMessage {
	eid := eventID
	return &ChatMessage{
		ID:        uuid.New(),
		ChatID:    chatID,
		EventID:   &eid,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func NewSystemMessage(chatID, eventID uuid.UUID, content string) *ChatMessage {
	msg := NewChatMessage(chatID, eventID, uuid.Nil, content)
	msg.System = true
	return msg
}
