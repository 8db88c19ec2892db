package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/realtime"
	"github.com/gatherly/backend/internal/repository"
	"github.com/gatherly/backend/lib/logger/sl"
)

// EventService owns the event lifecycle: creation, updates, the cascading
// teardown and organizer succession. Multi-roster steps always run inside
// one Store transaction; broadcasts and notifications happen strictly
// after commit.
type EventService struct {
	store    repository.Store
	chats    *ChatService
	notifier *Notifier
	hub      Broadcaster
	log      *slog.Logger
}

func NewEventService(store repository.Store, chats *ChatService, notifier *Notifier, hub Broadcaster, log *slog.Logger) *EventService {
	if log == nil {
		log = slog.Default()
	}
	return &EventService{store: store, chats: chats, notifier: notifier, hub: hub, log: log}
}

func (s *EventService) Create(ctx context.Context, actor domain.Actor, params CreateEventParams) (*domain.Event, error) {
	const op = "service.event.create"
	log := s.log.With(slog.String("op", op), slog.String("organizer_id", actor.ID.String()))

	if actor.Blocked {
		return nil, domain.ErrUserBlocked
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, domain.NewValidation("title is required")
	}
	if !params.EndTime.After(params.StartTime) {
		return nil, domain.NewValidation("end time must be after start time")
	}
	if params.MaxParticipants < 0 {
		return nil, domain.NewValidation("max participants cannot be negative")
	}

	event := domain.NewEvent(actor.ID, params.Title, params.StartTime, params.EndTime)
	event.Description = params.Description
	event.Location = params.Location
	event.MaxParticipants = params.MaxParticipants
	event.Recurrence = params.Recurrence
	event.Tags = params.Tags
	event.MediaURLs = params.MediaURLs
	event.DerivedTags = event.DeriveTags()

	var invitations []*domain.Membership
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		if err := tx.Events().Create(ctx, event); err != nil {
			return err
		}
		if err := tx.Memberships().Create(ctx, domain.NewOrganizerMembership(event.ID, actor.ID)); err != nil {
			return err
		}

		for _, userID := range params.InvitedUserIDs {
			if userID == actor.ID {
				continue
			}
			invitation := domain.NewInvitation(event.ID, userID, actor.ID)
			if err := tx.Memberships().Create(ctx, invitation); err != nil {
				if errors.Is(err, domain.ErrAlreadyRequested) {
					continue
				}
				return err
			}
			invitations = append(invitations, invitation)
		}

		if event.Recurrence.PersistsParticipation() {
			dates := event.Recurrence.Occurrences(event.StartTime, event.EndTime)
			parts := make([]*domain.OccurrenceParticipation, 0, len(dates))
			for _, date := range dates {
				parts = append(parts, domain.NewOccurrenceParticipation(event.ID, actor.ID, date))
			}
			if err := tx.Occurrences().CreateBatch(ctx, parts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("event created", slog.String("event_id", event.ID.String()))

	s.hub.JoinUser(actor.ID, realtime.EventRoom(event.ID))
	// events are discoverable by everyone, not just invitees
	s.hub.EmitAll(realtime.EventCreated, map[string]any{
		"eventId":   event.ID.String(),
		"title":     event.Title,
		"startTime": event.StartTime,
	})

	for _, invitation := range invitations {
		s.notifier.Notify(ctx, invitation.UserID, "event:invite", membershipPayload(invitation))
		s.hub.Emit(realtime.UserRoom(invitation.UserID), realtime.EventRequestNew, membershipPayload(invitation))
	}

	return event, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return s.store.Events().GetByID(ctx, id)
}

func (s *EventService) List(ctx context.Context) ([]*domain.Event, error) {
	return s.store.Events().List(ctx)
}

func (s *EventService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, params UpdateEventParams) (*domain.Event, error) {
	const op = "service.event.update"

	var event *domain.Event
	var summary string
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if event.OrganizerID != actor.ID {
			return domain.ErrOnlyOrganizer
		}

		var changes []string
		if params.Title != nil && *params.Title != event.Title {
			event.Title = *params.Title
			changes = append(changes, fmt.Sprintf("title changed to %q", event.Title))
		}
		if params.Description != nil && *params.Description != event.Description {
			event.Description = *params.Description
			changes = append(changes, "description updated")
		}
		if params.Location != nil && *params.Location != event.Location {
			event.Location = *params.Location
			changes = append(changes, fmt.Sprintf("moved to %q", event.Location))
		}
		if params.StartTime != nil && !params.StartTime.Equal(event.StartTime) {
			event.StartTime = params.StartTime.UTC()
			changes = append(changes, "rescheduled to "+event.StartTime.Format(time.RFC1123))
		}
		if params.EndTime != nil && !params.EndTime.Equal(event.EndTime) {
			event.EndTime = params.EndTime.UTC()
			changes = append(changes, "now ends at "+event.EndTime.Format(time.RFC1123))
		}
		if len(changes) == 0 {
			return nil
		}
		if !event.EndTime.After(event.StartTime) {
			return domain.NewValidation("end time must be after start time")
		}

		summary = strings.Join(changes, "; ")
		event.DerivedTags = event.DeriveTags()
		event.UpdatedAt = time.Now().UTC()
		return tx.Events().Update(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	if summary == "" {
		return event, nil
	}

	s.log.Info("event updated",
		slog.String("op", op),
		slog.String("event_id", event.ID.String()),
		slog.String("summary", summary),
	)

	members, err := s.store.Memberships().ListByEvent(ctx, event.ID)
	if err != nil {
		s.log.Error("failed to list members for update notification", slog.String("op", op), sl.Err(err))
		members = nil
	}
	payload := map[string]any{"eventId": event.ID.String(), "summary": summary}
	for _, m := range members {
		if m.Status == domain.StatusAccepted && m.UserID != actor.ID {
			s.notifier.Notify(ctx, m.UserID, "event:updated", payload)
		}
	}

	s.hub.Emit(realtime.EventRoom(event.ID), realtime.EventUpdated, payload)
	// feeds hold cached copies, refresh them too
	s.hub.EmitAll(realtime.EventUpdated, payload)
	return event, nil
}

// Cancel tears the event down entirely: memberships, attachments, chat and
// profile, then the event row. Future events may only be cancelled by the
// organizer; past events also by any current or remembered participant.
func (s *EventService) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (*CancelEventResult, error) {
	const op = "service.event.cancel"
	log := s.log.With(slog.String("op", op), slog.String("event_id", id.String()))

	var event *domain.Event
	var notifyUsers []uuid.UUID
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := s.authorizeCancel(ctx, tx, event, actor); err != nil {
			return err
		}

		members, err := tx.Memberships().ListByEvent(ctx, id)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.UserID != actor.ID {
				notifyUsers = append(notifyUsers, m.UserID)
			}
		}

		return cascadeDeleteEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	log.Info("event cancelled", slog.Int("participants_affected", len(notifyUsers)))
	s.announceDeleted(ctx, event, notifyUsers)
	return &CancelEventResult{ParticipantsAffected: len(notifyUsers)}, nil
}

func (s *EventService) authorizeCancel(ctx context.Context, tx repository.Store, event *domain.Event, actor domain.Actor) error {
	if event.OrganizerID == actor.ID {
		return nil
	}
	if !event.IsPast() {
		return domain.ErrOnlyOrganizer
	}

	// past events: any current participant or anyone on the memories
	// roster may withdraw the record
	if m, err := tx.Memberships().GetByEventAndUser(ctx, event.ID, actor.ID); err == nil && m.Status == domain.StatusAccepted {
		return nil
	} else if err != nil && !errors.Is(err, domain.ErrMembershipNotFound) {
		return err
	}

	profile, err := tx.Profiles().GetByEvent(ctx, event.ID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.ErrOnlyOrganizer
		}
		return err
	}
	ok, err := tx.Profiles().HasParticipant(ctx, profile.ID, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrOnlyOrganizer
	}
	return nil
}

// WithdrawOrganizer removes the organizer's own participation. With more
// than two accepted participants ownership passes to the earliest-joined
// remaining accepted member; at two or fewer the event does not survive the
// organizer leaving and the whole thing is torn down. The event never ends
// up without an organizer.
func (s *EventService) WithdrawOrganizer(ctx context.Context, actor domain.Actor, id uuid.UUID) (*WithdrawResult, error) {
	const op = "service.event.withdrawOrganizer"
	log := s.log.With(slog.String("op", op), slog.String("event_id", id.String()))

	var event *domain.Event
	var successor *domain.Membership
	var notifyUsers []uuid.UUID
	var chat *domain.Chat
	var chatMsg *domain.ChatMessage
	deleted := false

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if event.OrganizerID != actor.ID {
			return domain.ErrOnlyOrganizer
		}

		organizerRow, err := tx.Memberships().GetByEventAndUser(ctx, id, actor.ID)
		if err != nil {
			return err
		}

		count, err := tx.Memberships().CountAccepted(ctx, id)
		if err != nil {
			return err
		}
		if count <= 2 {
			// one member at most would remain: tear the event down
			members, err := tx.Memberships().ListByEvent(ctx, id)
			if err != nil {
				return err
			}
			for _, m := range members {
				if m.UserID != actor.ID {
					notifyUsers = append(notifyUsers, m.UserID)
				}
			}
			deleted = true
			return cascadeDeleteEvent(ctx, tx, event)
		}

		successor, err = tx.Memberships().EarliestAccepted(ctx, id, actor.ID)
		if err != nil {
			return err
		}

		if err := tx.Memberships().Delete(ctx, organizerRow.ID); err != nil {
			return err
		}
		successor.Role = domain.RoleOrganizer
		successor.UpdatedAt = time.Now().UTC()
		if err := tx.Memberships().Update(ctx, successor); err != nil {
			return err
		}
		event.OrganizerID = successor.UserID
		event.UpdatedAt = time.Now().UTC()
		if err := tx.Events().Update(ctx, event); err != nil {
			return err
		}

		if event.Recurrence.PersistsParticipation() {
			if err := tx.Occurrences().DeleteFrom(ctx, id, actor.ID, time.Now().UTC()); err != nil {
				return err
			}
		}

		chat, chatMsg, err = removeFromChatTx(ctx, tx, id, actor.ID)
		if err != nil && !errors.Is(err, domain.ErrChatNotFound) && !errors.Is(err, domain.ErrNotEventParticipant) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if deleted {
		log.Info("organizer withdrew, event deleted")
		s.announceDeleted(ctx, event, notifyUsers)
		return &WithdrawResult{EventContinues: false}, nil
	}

	log.Info("organizer withdrew, ownership transferred",
		slog.String("new_organizer_id", successor.UserID.String()),
	)

	if chatMsg != nil {
		s.chats.announceLeft(chat, chatMsg, id, actor.ID)
	}
	s.hub.LeaveUser(actor.ID, realtime.EventRoom(id))

	payload := map[string]any{
		"eventId":     id.String(),
		"organizerId": successor.UserID.String(),
	}
	s.notifier.Notify(ctx, successor.UserID, "event:organizer", payload)
	s.hub.Emit(realtime.EventRoom(id), realtime.EventUpdated, payload)

	return &WithdrawResult{EventContinues: true, NewOrganizerID: successor.UserID}, nil
}

func (s *EventService) TransferOrganizer(ctx context.Context, actor domain.Actor, id, newOrganizerID uuid.UUID) error {
	const op = "service.event.transferOrganizer"

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		event, err := tx.Events().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if event.OrganizerID != actor.ID {
			return domain.ErrOnlyOrganizer
		}
		if newOrganizerID == actor.ID {
			return domain.NewValidation("already the organizer")
		}

		target, err := tx.Memberships().GetByEventAndUser(ctx, id, newOrganizerID)
		if err != nil {
			return err
		}
		if target.Status != domain.StatusAccepted {
			return domain.NewValidation("new organizer must be an accepted participant")
		}

		current, err := tx.Memberships().GetByEventAndUser(ctx, id, actor.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		current.Role = domain.RoleParticipant
		current.UpdatedAt = now
		if err := tx.Memberships().Update(ctx, current); err != nil {
			return err
		}
		target.Role = domain.RoleOrganizer
		target.UpdatedAt = now
		if err := tx.Memberships().Update(ctx, target); err != nil {
			return err
		}

		event.OrganizerID = newOrganizerID
		event.UpdatedAt = now
		return tx.Events().Update(ctx, event)
	})
	if err != nil {
		return err
	}

	s.log.Info("organizer transferred",
		slog.String("op", op),
		slog.String("event_id", id.String()),
		slog.String("new_organizer_id", newOrganizerID.String()),
	)

	payload := map[string]any{"eventId": id.String(), "organizerId": newOrganizerID.String()}
	s.notifier.Notify(ctx, newOrganizerID, "event:organizer", payload)
	s.hub.Emit(realtime.EventRoom(id), realtime.EventUpdated, payload)
	return nil
}

// OccurrenceDates returns the dates the user is active on. Daily recurrence
// is always-active, so the full generated set comes back; for other types
// only the user's persisted participation rows count.
func (s *EventService) OccurrenceDates(ctx context.Context, eventID, userID uuid.UUID) ([]time.Time, error) {
	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Recurrence.Type == domain.RecurrenceNone {
		return nil, nil
	}
	if !event.Recurrence.PersistsParticipation() {
		return event.Recurrence.Occurrences(event.StartTime, event.EndTime), nil
	}

	rows, err := s.store.Occurrences().ListByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, row.Date)
	}
	return dates, nil
}

func (s *EventService) announceDeleted(ctx context.Context, event *domain.Event, userIDs []uuid.UUID) {
	payload := map[string]any{"eventId": event.ID.String(), "title": event.Title}
	s.notifier.NotifyMany(ctx, userIDs, "event:deleted", payload)
	s.hub.Emit(realtime.EventRoom(event.ID), realtime.EventDeleted, payload)
	s.hub.EmitAll(realtime.EventDeleted, payload)
}

// cascadeDeleteEvent executes the teardown inside the caller's transaction.
// The step order (memberships, attachments, chat, event) is a contract:
// tests assert a failed run leaves no orphaned rows behind.
func cascadeDeleteEvent(ctx context.Context, tx repository.Store, event *domain.Event) error {
	if err := tx.Memberships().DeleteByEvent(ctx, event.ID); err != nil {
		return err
	}

	if len(event.MediaURLs) > 0 {
		event.MediaURLs = nil
		if err := tx.Events().Update(ctx, event); err != nil {
			return err
		}
	}

	// chat history outlives the event, only the event link is cut
	if err := tx.Chats().DetachMessages(ctx, event.ID); err != nil {
		return err
	}
	chat, err := tx.Chats().GetByEvent(ctx, event.ID)
	if err == nil {
		if err := tx.Chats().DeleteParticipants(ctx, chat.ID); err != nil {
			return err
		}
		if err := tx.Chats().Delete(ctx, chat.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, domain.ErrChatNotFound) {
		return err
	}

	if err := tx.Occurrences().DeleteByEvent(ctx, event.ID); err != nil {
		return err
	}

	profile, err := tx.Profiles().GetByEvent(ctx, event.ID)
	if err == nil {
		if err := tx.Profiles().Delete(ctx, profile.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}

	return tx.Events().Delete(ctx, event.ID)
}
