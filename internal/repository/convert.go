package repository

import (
	"time"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/repository/model"
)

func toModelEvent(e *domain.Event) *model.Event {
	weekdays := make([]int, 0, len(e.Recurrence.Weekdays))
	for _, wd := range e.Recurrence.Weekdays {
		weekdays = append(weekdays, int(wd))
	}
	return &model.Event{
		ID:              e.ID,
		OrganizerID:     e.OrganizerID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		MaxParticipants: e.MaxParticipants,
		RecurrenceType:  string(e.Recurrence.Type),
		Weekdays:        weekdays,
		DayOfMonth:      e.Recurrence.DayOfMonth,
		CustomDates:     e.Recurrence.CustomDates,
		Tags:            e.Tags,
		DerivedTags:     e.DerivedTags,
		MediaURLs:       e.MediaURLs,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toDomainEvent(e *model.Event) *domain.Event {
	weekdays := make([]time.Weekday, 0, len(e.Weekdays))
	for _, wd := range e.Weekdays {
		weekdays = append(weekdays, time.Weekday(wd))
	}
	return &domain.Event{
		ID:              e.ID,
		OrganizerID:     e.OrganizerID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		MaxParticipants: e.MaxParticipants,
		Recurrence: domain.Recurrence{
			Type:        domain.RecurrenceType(e.RecurrenceType),
			Weekdays:    weekdays,
			DayOfMonth:  e.DayOfMonth,
			CustomDates: e.CustomDates,
		},
		Tags:        e.Tags,
		DerivedTags: e.DerivedTags,
		MediaURLs:   e.MediaURLs,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toModelMembership(m *domain.Membership) *model.Membership {
	return &model.Membership{
		ID:        m.ID,
		EventID:   m.EventID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		Status:    string(m.Status),
		InvitedBy: m.InvitedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toDomainMembership(m *model.Membership) *domain.Membership {
	return &domain.Membership{
		ID:        m.ID,
		EventID:   m.EventID,
		UserID:    m.UserID,
		Role:      domain.MembershipRole(m.Role),
		Status:    domain.MembershipStatus(m.Status),
		InvitedBy: m.InvitedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toModelChat(c *domain.Chat) *model.Chat {
	return &model.Chat{ID: c.ID, EventID: c.EventID, CreatedAt: c.CreatedAt}
}

func toDomainChat(c *model.Chat) *domain.Chat {
	return &domain.Chat{ID: c.ID, EventID: c.EventID, CreatedAt: c.CreatedAt}
}

func toModelChatParticipant(p *domain.ChatParticipant) *model.ChatParticipant {
	return &model.ChatParticipant{ID: p.ID, ChatID: p.ChatID, UserID: p.UserID, JoinedAt: p.JoinedAt}
}

func toDomainChatParticipant(p *model.ChatParticipant) *domain.ChatParticipant {
	return &domain.ChatParticipant{ID: p.ID, ChatID: p.ChatID, UserID: p.UserID, JoinedAt: p.JoinedAt}
}

func toModelChatMessage(m *domain.ChatMessage) *model.ChatMessage {
	return &model.ChatMessage{
		ID:        m.ID,
		ChatID:    m.ChatID,
		EventID:   m.EventID,
		UserID:    m.UserID,
		System:    m.System,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toDomainChatMessage(m *model.ChatMessage) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        m.ID,
		ChatID:    m.ChatID,
		EventID:   m.EventID,
		UserID:    m.UserID,
		System:    m.System,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toModelProfile(p *domain.EventProfile) *model.EventProfile {
	return &model.EventProfile{ID: p.ID, EventID: p.EventID, CoverURL: p.CoverURL, CreatedAt: p.CreatedAt}
}

func toDomainProfile(p *model.EventProfile) *domain.EventProfile {
	return &domain.EventProfile{ID: p.ID, EventID: p.EventID, CoverURL: p.CoverURL, CreatedAt: p.CreatedAt}
}

func toModelProfileParticipant(p *domain.ProfileParticipant) *model.ProfileParticipant {
	return &model.ProfileParticipant{ID: p.ID, ProfileID: p.ProfileID, UserID: p.UserID, AddedAt: p.AddedAt}
}

func toDomainProfileParticipant(p *model.ProfileParticipant) *domain.ProfileParticipant {
	return &domain.ProfileParticipant{ID: p.ID, ProfileID: p.ProfileID, UserID: p.UserID, AddedAt: p.AddedAt}
}

func toModelNotification(n *domain.Notification) *model.Notification {
	return &model.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Payload:   n.Payload,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func toDomainNotification(n *model.Notification) *domain.Notification {
	return &domain.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Payload:   n.Payload,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func toModelOccurrence(o *domain.OccurrenceParticipation) *model.OccurrenceParticipation {
	return &model.OccurrenceParticipation{ID: o.ID, EventID: o.EventID, UserID: o.UserID, Date: o.Date}
}

func toDomainOccurrence(o *model.OccurrenceParticipation) *domain.OccurrenceParticipation {
	return &domain.OccurrenceParticipation{ID: o.ID, EventID: o.EventID, UserID: o.UserID, Date: o.Date}
}
