package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
)

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	// GetByIDForUpdate locks the event row for the remainder of the
	// surrounding transaction. Used to serialize capacity checks.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Event, error)
}

type MembershipRepository interface {
	Create(ctx context.Context, m *domain.Membership) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Membership, error)
	GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*domain.Membership, error)
	Update(ctx context.Context, m *domain.Membership) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
	// DeleteOtherPending removes every pending row the user holds for the
	// event except keepID. Used when accepting an invitation must also
	// retire a parallel join request.
	DeleteOtherPending(ctx context.Context, eventID, userID, keepID uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error)
	CountAccepted(ctx context.Context, eventID uuid.UUID) (int, error)
	// EarliestAccepted returns the longest-standing accepted membership for
	// the event, excluding excludeUser. Drives organizer succession.
	EarliestAccepted(ctx context.Context, eventID, excludeUser uuid.UUID) (*domain.Membership, error)
}

type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByEvent(ctx context.Context, eventID uuid.UUID) (*domain.Chat, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddParticipant(ctx context.Context, p *domain.ChatParticipant) error
	RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error
	DeleteParticipants(ctx context.Context, chatID uuid.UUID) error
	ListParticipants(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatParticipant, error)
	HasParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error)
	SaveMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatMessage, error)
	// DetachMessages clears the event reference on the chat's messages so
	// history survives event deletion.
	DetachMessages(ctx context.Context, eventID uuid.UUID) error
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.EventProfile) error
	GetByEvent(ctx context.Context, eventID uuid.UUID) (*domain.EventProfile, error)
	Update(ctx context.Context, profile *domain.EventProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddParticipant(ctx context.Context, p *domain.ProfileParticipant) error
	RemoveParticipant(ctx context.Context, profileID, userID uuid.UUID) error
	ListParticipants(ctx context.Context, profileID uuid.UUID) ([]*domain.ProfileParticipant, error)
	CountParticipants(ctx context.Context, profileID uuid.UUID) (int, error)
	HasParticipant(ctx context.Context, profileID, userID uuid.UUID) (bool, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
}

type OccurrenceRepository interface {
	CreateBatch(ctx context.Context, parts []*domain.OccurrenceParticipation) error
	ListByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) ([]*domain.OccurrenceParticipation, error)
	// DeleteFrom removes the user's occurrence rows dated on or after the
	// cutoff; earlier rows are kept as a historical record.
	DeleteFrom(ctx context.Context, eventID, userID uuid.UUID, cutoff time.Time) error
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
}

// Store bundles every repository behind one transactional boundary.
// Multi-roster mutations (accept, cascade delete, organizer withdrawal) run
// inside Transact so a partial application can never be observed.
type Store interface {
	Events() EventRepository
	Memberships() MembershipRepository
	Chats() ChatRepository
	Profiles() ProfileRepository
	Notifications() NotificationRepository
	Occurrences() OccurrenceRepository

	// Transact executes fn atomically. All repository access inside fn must
	// go through the Store handed to fn, never the outer one.
	Transact(ctx context.Context, fn func(Store) error) error
}
