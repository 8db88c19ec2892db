package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventProfile is the retrospective "memories" record of an event. Its
// participant roster is seeded from membership once, then evolves on its
// own: it answers "who remembers this event" after live membership rows are
// gone. Removing the last profile participant deletes the event entirely.
type EventProfile struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	CoverURL  string
	CreatedAt time.Time
}

func NewEventProfile(eventID uuid.UUID) *EventProfile {
	return &EventProfile{
		ID:        uuid.New(),
		EventID:   eventID,
		CreatedAt: time.Now().UTC(),
	}
}

type ProfileParticipant struct {
	ID        uuid.UUID
	ProfileID uuid.UUID
	UserID    uuid.UUID
	AddedAt   time.Time
}

func NewProfileParticipant(profileID, userID uuid.UUID) *ProfileParticipant {
	return &ProfileParticipant{
		ID:        uuid.New(),
		ProfileID: profileID,
		UserID:    userID,
		AddedAt:   time.Now().UTC(),
	}
}
