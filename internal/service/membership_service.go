package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/realtime"
	"github.com/gatherly/backend/internal/repository"
	"github.com/gatherly/backend/lib/logger/sl"
)

// MembershipService is the membership state machine. Transitions are
// validated and applied inside one Store transaction together with every
// dependent roster; chat provisioning and fan-out run after commit and can
// never roll a committed transition back.
type MembershipService struct {
	store    repository.Store
	chats    *ChatService
	events   *EventService
	notifier *Notifier
	hub      Broadcaster
	log      *slog.Logger
}

func NewMembershipService(store repository.Store, chats *ChatService, events *EventService, notifier *Notifier, hub Broadcaster, log *slog.Logger) *MembershipService {
	if log == nil {
		log = slog.Default()
	}
	return &MembershipService{
		store:    store,
		chats:    chats,
		events:   events,
		notifier: notifier,
		hub:      hub,
		log:      log,
	}
}

func (s *MembershipService) RequestToJoin(ctx context.Context, actor domain.Actor, eventID uuid.UUID) (*domain.Membership, error) {
	const op = "service.membership.requestToJoin"

	if actor.Blocked {
		return nil, domain.ErrUserBlocked
	}

	var m *domain.Membership
	var event *domain.Event
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID == actor.ID {
			return domain.ErrAlreadyRequested
		}

		m, err = reusePendingRow(ctx, tx, eventID, actor.ID, nil)
		if err != nil {
			return err
		}
		if m != nil {
			return nil
		}

		m = domain.NewJoinRequest(eventID, actor.ID)
		return tx.Memberships().Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("join requested",
		slog.String("op", op),
		slog.String("event_id", eventID.String()),
		slog.String("user_id", actor.ID.String()),
	)

	payload := membershipPayload(m)
	s.notifier.Notify(ctx, event.OrganizerID, "event:request", payload)
	s.hub.Emit(realtime.UserRoom(event.OrganizerID), realtime.EventRequestNew, payload)
	s.hub.Emit(realtime.EventRoom(eventID), realtime.EventRequestNew, payload)
	return m, nil
}

func (s *MembershipService) InviteUser(ctx context.Context, actor domain.Actor, eventID, targetID uuid.UUID) (*domain.Membership, error) {
	const op = "service.membership.invite"

	var m *domain.Membership
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		event, err := tx.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != actor.ID {
			return domain.ErrOnlyOrganizer
		}
		if targetID == actor.ID {
			return domain.NewValidation("cannot invite yourself")
		}

		m, err = reusePendingRow(ctx, tx, eventID, targetID, &actor.ID)
		if err != nil {
			return err
		}
		if m != nil {
			return nil
		}

		m = domain.NewInvitation(eventID, targetID, actor.ID)
		return tx.Memberships().Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user invited",
		slog.String("op", op),
		slog.String("event_id", eventID.String()),
		slog.String("user_id", targetID.String()),
	)

	payload := membershipPayload(m)
	s.notifier.Notify(ctx, targetID, "event:invite", payload)
	s.hub.Emit(realtime.UserRoom(targetID), realtime.EventRequestNew, payload)
	return m, nil
}

// reusePendingRow implements the rejected-row reset: a fresh request or
// invite against a rejected membership flips it back to pending instead of
// inserting a duplicate. Returns nil with no error when no row exists yet;
// any non-rejected row is a conflict.
func reusePendingRow(ctx context.Context, tx repository.Store, eventID, userID uuid.UUID, invitedBy *uuid.UUID) (*domain.Membership, error) {
	existing, err := tx.Memberships().GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if existing.Status != domain.StatusRejected {
		return nil, domain.ErrAlreadyRequested
	}

	existing.Status = domain.StatusPending
	existing.Role = domain.RoleParticipant
	existing.InvitedBy = invitedBy
	existing.UpdatedAt = time.Now().UTC()
	if err := tx.Memberships().Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// RespondToRequest lets the organizer accept or reject a pending join
// request. Acceptance is capacity-checked inside the same transaction that
// flips the status, so concurrent accepts cannot overshoot the ceiling.
func (s *MembershipService) RespondToRequest(ctx context.Context, actor domain.Actor, membershipID uuid.UUID, accept bool) (*domain.Membership, error) {
	const op = "service.membership.respondToRequest"

	var m *domain.Membership
	var event *domain.Event
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		m, err = tx.Memberships().GetByID(ctx, membershipID)
		if err != nil {
			return err
		}
		event, err = tx.Events().GetByIDForUpdate(ctx, m.EventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != actor.ID {
			return domain.ErrOnlyOrganizer
		}
		// invitations are answered by the invitee, never on their behalf
		if m.InvitedBy != nil {
			return domain.NewValidation("membership is not a join request")
		}
		if m.Status != domain.StatusPending {
			return domain.ErrAlreadyProcessed
		}

		if !accept {
			m.Status = domain.StatusRejected
			m.UpdatedAt = time.Now().UTC()
			return tx.Memberships().Update(ctx, m)
		}
		return acceptMembership(ctx, tx, event, m)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("request answered",
		slog.String("op", op),
		slog.String("membership_id", membershipID.String()),
		slog.Bool("accept", accept),
	)

	s.afterStatusChange(ctx, event, m, actor.ID)
	return m, nil
}

func (s *MembershipService) AcceptInvitation(ctx context.Context, actor domain.Actor, membershipID uuid.UUID) (*domain.Membership, error) {
	return s.answerInvitation(ctx, actor, membershipID, true)
}

func (s *MembershipService) RejectInvitation(ctx context.Context, actor domain.Actor, membershipID uuid.UUID) (*domain.Membership, error) {
	return s.answerInvitation(ctx, actor, membershipID, false)
}

func (s *MembershipService) answerInvitation(ctx context.Context, actor domain.Actor, membershipID uuid.UUID, accept bool) (*domain.Membership, error) {
	const op = "service.membership.answerInvitation"

	var m *domain.Membership
	var event *domain.Event
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		m, err = tx.Memberships().GetByID(ctx, membershipID)
		if err != nil {
			return err
		}
		if m.UserID != actor.ID {
			return domain.NewAuthorization("invitation belongs to another user")
		}
		if m.InvitedBy == nil {
			return domain.NewValidation("membership is not an invitation")
		}
		if m.Status != domain.StatusPending {
			return domain.ErrAlreadyProcessed
		}

		event, err = tx.Events().GetByIDForUpdate(ctx, m.EventID)
		if err != nil {
			return err
		}

		if !accept {
			m.Status = domain.StatusRejected
			m.UpdatedAt = time.Now().UTC()
			return tx.Memberships().Update(ctx, m)
		}

		// a user cannot keep an unrelated pending request for an event
		// they just accepted an invitation to
		if err := tx.Memberships().DeleteOtherPending(ctx, m.EventID, actor.ID, m.ID); err != nil {
			return err
		}
		return acceptMembership(ctx, tx, event, m)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invitation answered",
		slog.String("op", op),
		slog.String("membership_id", membershipID.String()),
		slog.Bool("accept", accept),
	)

	s.afterStatusChange(ctx, event, m, actor.ID)
	return m, nil
}

// acceptMembership flips a pending row to accepted inside the caller's
// transaction. The capacity ceiling is re-checked here, under the event's
// row lock, never from a stale earlier read.
func acceptMembership(ctx context.Context, tx repository.Store, event *domain.Event, m *domain.Membership) error {
	count, err := tx.Memberships().CountAccepted(ctx, event.ID)
	if err != nil {
		return err
	}
	if event.MaxParticipants > 0 && count >= event.MaxParticipants {
		return domain.ErrEventFull
	}

	m.Status = domain.StatusAccepted
	m.UpdatedAt = time.Now().UTC()
	if err := tx.Memberships().Update(ctx, m); err != nil {
		return err
	}

	if event.Recurrence.PersistsParticipation() {
		dates := event.Recurrence.Occurrences(event.StartTime, event.EndTime)
		parts := make([]*domain.OccurrenceParticipation, 0, len(dates))
		for _, date := range dates {
			parts = append(parts, domain.NewOccurrenceParticipation(event.ID, m.UserID, date))
		}
		if err := tx.Occurrences().CreateBatch(ctx, parts); err != nil {
			return err
		}
	}
	return nil
}

// afterStatusChange runs the post-commit side effects of an accept or
// reject: chat provisioning, room membership and fan-out. All best-effort.
func (s *MembershipService) afterStatusChange(ctx context.Context, event *domain.Event, m *domain.Membership, actorID uuid.UUID) {
	const op = "service.membership.afterStatusChange"

	if m.Status == domain.StatusAccepted {
		if err := s.chats.EnsureChatParticipant(ctx, event, m.UserID); err != nil {
			// the membership already committed, the chat heals on the
			// next acceptance
			s.log.Error("chat provisioning failed",
				slog.String("op", op),
				slog.String("event_id", event.ID.String()),
				slog.String("user_id", m.UserID.String()),
				sl.Err(err),
			)
		}
		s.hub.JoinUser(m.UserID, realtime.EventRoom(event.ID))
	}

	payload := membershipPayload(m)
	s.hub.Emit(realtime.EventRoom(event.ID), realtime.EventRequestUpdated, payload)
	s.hub.Emit(realtime.UserRoom(m.UserID), realtime.EventRequestStatus, payload)
	s.notifier.Notify(ctx, m.UserID, "event:request:status", payload)

	if event.OrganizerID != actorID {
		// status echo for transitions the organizer did not trigger
		s.hub.Emit(realtime.UserRoom(event.OrganizerID), realtime.EventRequestStatus, payload)
		s.notifier.Notify(ctx, event.OrganizerID, "event:request:status", payload)
	}
}

// CancelMyParticipation removes the caller's accepted membership. For past
// events whose membership rows are already gone this is not an error: the
// caller is removed from the memories roster instead, and removing the last
// entry deletes the event outright.
func (s *MembershipService) CancelMyParticipation(ctx context.Context, actor domain.Actor, eventID uuid.UUID) (*MembershipResult, error) {
	const op = "service.membership.cancelMyParticipation"
	log := s.log.With(slog.String("op", op), slog.String("event_id", eventID.String()), slog.String("user_id", actor.ID.String()))

	// organizers do not cancel, they withdraw with succession
	if m, err := s.store.Memberships().GetByEventAndUser(ctx, eventID, actor.ID); err == nil && m.Role == domain.RoleOrganizer {
		result, err := s.events.WithdrawOrganizer(ctx, actor, eventID)
		if err != nil {
			return nil, err
		}
		return &MembershipResult{EventDeleted: !result.EventContinues}, nil
	}

	var event *domain.Event
	var removed *domain.Membership
	var notifyUsers []uuid.UUID
	var chat *domain.Chat
	var chatMsg *domain.ChatMessage
	eventDeleted := false

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		removed, err = tx.Memberships().GetByEventAndUser(ctx, eventID, actor.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrMembershipNotFound) {
				return err
			}
			if !event.IsPast() {
				return domain.ErrMembershipNotFound
			}
			// past event: live membership is gone, the memories roster is
			// the authority now
			eventDeleted, err = removeFromProfile(ctx, tx, event, actor.ID)
			return err
		}

		if err := tx.Memberships().Delete(ctx, removed.ID); err != nil {
			return err
		}
		if event.Recurrence.PersistsParticipation() {
			if err := tx.Occurrences().DeleteFrom(ctx, eventID, actor.ID, time.Now().UTC()); err != nil {
				return err
			}
		}

		// chat roster and membership commit or roll back together
		chat, chatMsg, err = removeFromChatTx(ctx, tx, eventID, actor.ID)
		if err != nil && !errors.Is(err, domain.ErrChatNotFound) && !errors.Is(err, domain.ErrNotEventParticipant) {
			return err
		}

		// keep the mirror in step when it already exists; a later lazy
		// materialization would not include this user anyway
		if profile, err := tx.Profiles().GetByEvent(ctx, eventID); err == nil {
			if err := tx.Profiles().RemoveParticipant(ctx, profile.ID, actor.ID); err != nil {
				return err
			}
			count, err := tx.Profiles().CountParticipants(ctx, profile.ID)
			if err != nil {
				return err
			}
			if count == 0 {
				eventDeleted = true
			}
		} else if !errors.Is(err, domain.ErrProfileNotFound) {
			return err
		}

		if eventDeleted {
			members, err := tx.Memberships().ListByEvent(ctx, eventID)
			if err != nil {
				return err
			}
			for _, member := range members {
				if member.UserID != actor.ID {
					notifyUsers = append(notifyUsers, member.UserID)
				}
			}
			return cascadeDeleteEvent(ctx, tx, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if eventDeleted {
		log.Info("participation cancelled, event deleted")
		s.events.announceDeleted(ctx, event, notifyUsers)
		return &MembershipResult{EventDeleted: true}, nil
	}

	log.Info("participation cancelled")

	if removed != nil {
		if chatMsg != nil {
			s.chats.announceLeft(chat, chatMsg, eventID, actor.ID)
		}
		s.hub.LeaveUser(actor.ID, realtime.EventRoom(eventID))

		payload := cancelledPayload(removed)
		s.hub.Emit(realtime.EventRoom(eventID), realtime.EventRequestUpdated, payload)
		s.notifier.Notify(ctx, event.OrganizerID, "event:request:status", payload)
	}
	return &MembershipResult{Membership: removed}, nil
}

// RemoveParticipant is the organizer-side removal. The organizer's own row
// is off-limits; ownership moves through withdrawal or transfer instead.
func (s *MembershipService) RemoveParticipant(ctx context.Context, actor domain.Actor, eventID, targetID uuid.UUID) error {
	const op = "service.membership.removeParticipant"

	var event *domain.Event
	var removed *domain.Membership
	var chat *domain.Chat
	var chatMsg *domain.ChatMessage
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != actor.ID {
			return domain.ErrOnlyOrganizer
		}

		removed, err = tx.Memberships().GetByEventAndUser(ctx, eventID, targetID)
		if err != nil {
			return err
		}
		if removed.Role == domain.RoleOrganizer {
			return domain.ErrRemoveOrganizer
		}

		if err := tx.Memberships().Delete(ctx, removed.ID); err != nil {
			return err
		}
		if event.Recurrence.PersistsParticipation() {
			if err := tx.Occurrences().DeleteFrom(ctx, eventID, targetID, time.Now().UTC()); err != nil {
				return err
			}
		}

		if profile, err := tx.Profiles().GetByEvent(ctx, eventID); err == nil {
			if err := tx.Profiles().RemoveParticipant(ctx, profile.ID, targetID); err != nil {
				return err
			}
		} else if !errors.Is(err, domain.ErrProfileNotFound) {
			return err
		}

		chat, chatMsg, err = removeFromChatTx(ctx, tx, eventID, targetID)
		if err != nil && !errors.Is(err, domain.ErrChatNotFound) && !errors.Is(err, domain.ErrNotEventParticipant) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("participant removed",
		slog.String("op", op),
		slog.String("event_id", eventID.String()),
		slog.String("user_id", targetID.String()),
	)

	if chatMsg != nil {
		s.chats.announceLeft(chat, chatMsg, eventID, targetID)
	}
	s.hub.LeaveUser(targetID, realtime.EventRoom(eventID))

	payload := cancelledPayload(removed)
	s.hub.Emit(realtime.EventRoom(eventID), realtime.EventRequestUpdated, payload)
	s.hub.Emit(realtime.UserRoom(targetID), realtime.EventRequestStatus, payload)
	s.notifier.Notify(ctx, targetID, "event:removed", payload)
	return nil
}

// cancelledPayload mirrors membershipPayload for rows that no longer exist.
func cancelledPayload(m *domain.Membership) map[string]any {
	payload := membershipPayload(m)
	payload["status"] = "cancelled"
	return payload
}
