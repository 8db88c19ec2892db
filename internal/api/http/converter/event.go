package converter

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
)

type EventResponse struct {
	ID              uuid.UUID      `json:"id"`
	OrganizerID     uuid.UUID      `json:"organizer_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Location        string         `json:"location,omitempty"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	MaxParticipants int            `json:"max_participants"`
	Recurrence      RecurrenceInfo `json:"recurrence"`
	Tags            []string       `json:"tags,omitempty"`
	DerivedTags     []string       `json:"derived_tags,omitempty"`
	MediaURLs       []string       `json:"media_urls,omitempty"`
	IsPast          bool           `json:"is_past"`
	CreatedAt       time.Time      `json:"created_at"`
}

type RecurrenceInfo struct {
	Type        string      `json:"type,omitempty"`
	Weekdays    []int       `json:"weekdays,omitempty"`
	DayOfMonth  int         `json:"day_of_month,omitempty"`
	CustomDates []time.Time `json:"custom_dates,omitempty"`
}

func EventToApi(e *domain.Event) *EventResponse {
	weekdays := make([]int, 0, len(e.Recurrence.Weekdays))
	for _, wd := range e.Recurrence.Weekdays {
		weekdays = append(weekdays, int(wd))
	}
	return &EventResponse{
		ID:              e.ID,
		OrganizerID:     e.OrganizerID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		MaxParticipants: e.MaxParticipants,
		Recurrence: RecurrenceInfo{
			Type:        string(e.Recurrence.Type),
			Weekdays:    weekdays,
			DayOfMonth:  e.Recurrence.DayOfMonth,
			CustomDates: e.Recurrence.CustomDates,
		},
		Tags:        e.Tags,
		DerivedTags: e.DerivedTags,
		MediaURLs:   e.MediaURLs,
		IsPast:      e.IsPast(),
		CreatedAt:   e.CreatedAt,
	}
}

type MembershipResponse struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	Type      string     `json:"type"`
	InvitedBy *uuid.UUID `json:"invited_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func MembershipToApi(m *domain.Membership) *MembershipResponse {
	return &MembershipResponse{
		ID:        m.ID,
		EventID:   m.EventID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		Status:    string(m.Status),
		Type:      m.Kind(),
		InvitedBy: m.InvitedBy,
		CreatedAt: m.CreatedAt,
	}
}

type ChatResponse struct {
	ID           uuid.UUID             `json:"id"`
	EventID      uuid.UUID             `json:"event_id"`
	Participants []ChatParticipantInfo `json:"participants"`
	Messages     []ChatMessageInfo     `json:"messages"`
}

type ChatParticipantInfo struct {
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type ChatMessageInfo struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
	System    bool      `json:"system,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func ChatToApi(chat *domain.Chat, participants []*domain.ChatParticipant, messages []*domain.ChatMessage) *ChatResponse {
	resp := &ChatResponse{
		ID:           chat.ID,
		EventID:      chat.EventID,
		Participants: make([]ChatParticipantInfo, 0, len(participants)),
		Messages:     make([]ChatMessageInfo, 0, len(messages)),
	}
	for _, p := range participants {
		resp.Participants = append(resp.Participants, ChatParticipantInfo{UserID: p.UserID, JoinedAt: p.JoinedAt})
	}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, ChatMessageInfo{
			ID:        msg.ID,
			UserID:    msg.UserID,
			System:    msg.System,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return resp
}

type ProfileResponse struct {
	ID           uuid.UUID                `json:"id"`
	EventID      uuid.UUID                `json:"event_id"`
	CoverURL     string                   `json:"cover_url,omitempty"`
	Participants []ProfileParticipantInfo `json:"participants"`
	CreatedAt    time.Time                `json:"created_at"`
}

type ProfileParticipantInfo struct {
	UserID  uuid.UUID `json:"user_id"`
	AddedAt time.Time `json:"added_at"`
}

func ProfileToApi(profile *domain.EventProfile, participants []*domain.ProfileParticipant) *ProfileResponse {
	resp := &ProfileResponse{
		ID:           profile.ID,
		EventID:      profile.EventID,
		CoverURL:     profile.CoverURL,
		Participants: make([]ProfileParticipantInfo, 0, len(participants)),
		CreatedAt:    profile.CreatedAt,
	}
	for _, p := range participants {
		resp.Participants = append(resp.Participants, ProfileParticipantInfo{UserID: p.UserID, AddedAt: p.AddedAt})
	}
	return resp
}

type NotificationResponse struct {
	ID        uuid.UUID      `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}

func NotificationToApi(n *domain.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Payload:   n.Payload,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
