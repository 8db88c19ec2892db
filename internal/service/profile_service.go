package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/repository"
)

// ProfileService manages the "memories" record of an event. The roster is
// seeded from membership exactly once, at materialization, and mutated
// independently from then on; it is the authority for who remembers a past
// event.
type ProfileService struct {
	store    repository.Store
	events   *EventService
	uploader Uploader
	log      *slog.Logger
}

func NewProfileService(store repository.Store, events *EventService, uploader Uploader, log *slog.Logger) *ProfileService {
	if log == nil {
		log = slog.Default()
	}
	return &ProfileService{store: store, events: events, uploader: uploader, log: log}
}

// GetOrCreate lazily materializes the profile on first access.
func (s *ProfileService) GetOrCreate(ctx context.Context, eventID uuid.UUID) (*domain.EventProfile, []*domain.ProfileParticipant, error) {
	var profile *domain.EventProfile
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		event, err := tx.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		profile, err = ensureProfile(ctx, tx, event)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	participants, err := s.store.Profiles().ListParticipants(ctx, profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, participants, nil
}

// RemoveParticipant drops a user from the memories roster. Removing the
// last entry means nobody remembers the event anymore, which deletes the
// event itself.
func (s *ProfileService) RemoveParticipant(ctx context.Context, actor domain.Actor, eventID, targetID uuid.UUID) (*MembershipResult, error) {
	const op = "service.profile.removeParticipant"

	var event *domain.Event
	var notifyUsers []uuid.UUID
	eventDeleted := false

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if actor.ID != targetID && actor.ID != event.OrganizerID {
			return domain.ErrOnlyOrganizer
		}

		eventDeleted, err = removeFromProfile(ctx, tx, event, targetID)
		if err != nil {
			return err
		}
		if eventDeleted {
			members, err := tx.Memberships().ListByEvent(ctx, eventID)
			if err != nil {
				return err
			}
			for _, m := range members {
				if m.UserID != actor.ID {
					notifyUsers = append(notifyUsers, m.UserID)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("profile participant removed",
		slog.String("op", op),
		slog.String("event_id", eventID.String()),
		slog.String("user_id", targetID.String()),
		slog.Bool("event_deleted", eventDeleted),
	)

	if eventDeleted {
		s.events.announceDeleted(ctx, event, notifyUsers)
	}
	return &MembershipResult{EventDeleted: eventDeleted}, nil
}

func (s *ProfileService) SetCover(ctx context.Context, actor domain.Actor, eventID uuid.UUID, data []byte, mimeType string) (*domain.EventProfile, error) {
	if len(data) == 0 {
		return nil, domain.NewValidation("cover image is empty")
	}

	// authorization first: a caller outside the roster must not leave
	// bytes behind in storage
	var profile *domain.EventProfile
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		event, err := tx.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		profile, err = ensureProfile(ctx, tx, event)
		if err != nil {
			return err
		}
		ok, err := tx.Profiles().HasParticipant(ctx, profile.ID, actor.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotEventParticipant
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, actor.ID, data, mimeType)
	if err != nil {
		return nil, err
	}

	profile.CoverURL = url
	err = s.store.Transact(ctx, func(tx repository.Store) error {
		return tx.Profiles().Update(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// ensureProfile fetches the event's profile, materializing it on first use
// with the organizer and every currently accepted member. Runs inside the
// caller's transaction.
func ensureProfile(ctx context.Context, tx repository.Store, event *domain.Event) (*domain.EventProfile, error) {
	profile, err := tx.Profiles().GetByEvent(ctx, event.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}

	profile = domain.NewEventProfile(event.ID)
	if err := tx.Profiles().Create(ctx, profile); err != nil {
		return nil, err
	}
	if err := tx.Profiles().AddParticipant(ctx, domain.NewProfileParticipant(profile.ID, event.OrganizerID)); err != nil {
		return nil, err
	}

	members, err := tx.Memberships().ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.Status != domain.StatusAccepted || m.UserID == event.OrganizerID {
			continue
		}
		if err := tx.Profiles().AddParticipant(ctx, domain.NewProfileParticipant(profile.ID, m.UserID)); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// removeFromProfile drops the user from the (possibly lazily materialized)
// roster and runs the full cascade when the roster empties. Returns whether
// the event was deleted. Runs inside the caller's transaction.
func removeFromProfile(ctx context.Context, tx repository.Store, event *domain.Event, userID uuid.UUID) (bool, error) {
	profile, err := ensureProfile(ctx, tx, event)
	if err != nil {
		return false, err
	}
	if err := tx.Profiles().RemoveParticipant(ctx, profile.ID, userID); err != nil {
		return false, err
	}

	count, err := tx.Profiles().CountParticipants(ctx, profile.ID)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	// nobody remembers this event anymore
	if err := cascadeDeleteEvent(ctx, tx, event); err != nil {
		return false, err
	}
	return true, nil
}
