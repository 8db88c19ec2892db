package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a time-boxed group gathering. The organizer always holds
// an accepted membership; an event with nobody left to remember it is
// deleted rather than kept as an orphan.
type Event struct {
	ID              uuid.UUID
	OrganizerID     uuid.UUID
	Title           string
	Description     string
	Location        string
	StartTime       time.Time
	EndTime         time.Time
	MaxParticipants int // 0 means unlimited
	Recurrence      Recurrence
	Tags            []string
	DerivedTags     []string
	MediaURLs       []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewEvent(organizer uuid.UUID, title string, start, end time.Time) *Event {
	now := time.Now().UTC()
	e := &Event{
		ID:          uuid.New(),
		OrganizerID: organizer,
		Title:       title,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.DerivedTags = e.DeriveTags()
	return e
}

// IsPast reports whether the event has already ended.
func (e *Event) IsPast() bool {
	if e == nil {
		return false
	}
	return time.Now().UTC().After(e.EndTime)
}

// DeriveTags computes discovery tags from the event's schedule: a
// time-of-day bucket, a weekend marker and the recurrence type.
func (e *Event) DeriveTags() []string {
	var tags []string

	switch h := e.StartTime.Hour(); {
	case h < 6:
		tags = append(tags, "night")
	case h < 12:
		tags = append(tags, "morning")
	case h < 18:
		tags = append(tags, "afternoon")
	default:
		tags = append(tags, "evening")
	}

	if wd := e.StartTime.Weekday(); wd == time.Saturday || wd == time.Sunday {
		tags = append(tags, "weekend")
	}

	if e.Recurrence.Type != RecurrenceNone {
		tags = append(tags, "recurring", string(e.Recurrence.Type))
	}

	return tags
}
