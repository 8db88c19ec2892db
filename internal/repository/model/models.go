package model

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Title           string    `gorm:"size:255;not null"`
	Description     string    `gorm:"type:text"`
	Location        string    `gorm:"size:255"`
	StartTime       time.Time `gorm:"not null;index"`
	EndTime         time.Time `gorm:"not null;index"`
	MaxParticipants int       `gorm:"not null;default:0"`
	RecurrenceType  string    `gorm:"size:16"`
	Weekdays        []int     `gorm:"serializer:json"`
	DayOfMonth      int
	CustomDates     []time.Time `gorm:"serializer:json"`
	Tags            []string    `gorm:"serializer:json"`
	DerivedTags     []string    `gorm:"serializer:json"`
	MediaURLs       []string    `gorm:"serializer:json"`
	CreatedAt       time.Time   `gorm:"not null"`
	UpdatedAt       time.Time   `gorm:"not null"`

	Memberships []Membership `gorm:"constraint:OnDelete:CASCADE"`
}

type Membership struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_event_user"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_event_user;index"`
	Role      string     `gorm:"size:32;not null"`
	Status    string     `gorm:"size:32;not null;index"`
	InvitedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

type Chat struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`

	Participants []ChatParticipant `gorm:"constraint:OnDelete:CASCADE"`
}

type ChatParticipant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_participants_chat_user"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_participants_chat_user;index"`
	JoinedAt time.Time `gorm:"not null"`
}

type ChatMessage struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ChatID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	EventID   *uuid.UUID `gorm:"type:uuid;index"`
	UserID    uuid.UUID  `gorm:"type:uuid"`
	System    bool       `gorm:"not null;default:false"`
	Content   string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"not null;index"`
}

type EventProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CoverURL  string    `gorm:"size:512"`
	CreatedAt time.Time `gorm:"not null"`

	Participants []ProfileParticipant `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

type ProfileParticipant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_profile_participants_profile_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_profile_participants_profile_user;index"`
	AddedAt   time.Time `gorm:"not null"`
}

type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   map[string]any `gorm:"serializer:json"`
	Read      bool           `gorm:"not null;default:false"`
	CreatedAt time.Time      `gorm:"not null;index"`
}

type OccurrenceParticipation struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_occurrences_event_user_date"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_occurrences_event_user_date"`
	Date    time.Time `gorm:"not null;uniqueIndex:idx_occurrences_event_user_date"`
}
