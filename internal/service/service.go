package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
)

// Broadcaster is the realtime fan-out consumed by the services. Every call
// is fire-and-forget: implementations must never block or fail the caller.
type Broadcaster interface {
	Emit(roomID, event string, payload any)
	EmitAll(event string, payload any)
	JoinUser(userID uuid.UUID, roomID string)
	LeaveUser(userID uuid.UUID, roomID string)
}

// Uploader is the object-storage collaborator. Only the public URL of the
// stored object is kept.
type Uploader interface {
	Upload(ctx context.Context, ownerID uuid.UUID, data []byte, mimeType string) (string, error)
}

type CreateEventParams struct {
	Title           string
	Description     string
	Location        string
	StartTime       time.Time
	EndTime         time.Time
	MaxParticipants int
	Recurrence      domain.Recurrence
	Tags            []string
	MediaURLs       []string
	InvitedUserIDs  []uuid.UUID
}

// UpdateEventParams carries only the fields being changed; nil means keep.
type UpdateEventParams struct {
	Title       *string
	Description *string
	Location    *string
	StartTime   *time.Time
	EndTime     *time.Time
}

// MembershipResult is the outcome of a membership transition. EventDeleted
// reports that the transition cascaded into a full event teardown.
type MembershipResult struct {
	Membership   *domain.Membership
	EventDeleted bool
}

type CancelEventResult struct {
	ParticipantsAffected int
}

type WithdrawResult struct {
	EventContinues bool
	NewOrganizerID uuid.UUID
}

type EventInteractor interface {
	Create(ctx context.Context, actor domain.Actor, params CreateEventParams) (*domain.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context) ([]*domain.Event, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, params UpdateEventParams) (*domain.Event, error)
	Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (*CancelEventResult, error)
	WithdrawOrganizer(ctx context.Context, actor domain.Actor, id uuid.UUID) (*WithdrawResult, error)
	TransferOrganizer(ctx context.Context, actor domain.Actor, id, newOrganizerID uuid.UUID) error
	OccurrenceDates(ctx context.Context, eventID, userID uuid.UUID) ([]time.Time, error)
}

type MembershipInteractor interface {
	RequestToJoin(ctx context.Context, actor domain.Actor, eventID uuid.UUID) (*domain.Membership, error)
	InviteUser(ctx context.Context, actor domain.Actor, eventID, targetID uuid.UUID) (*domain.Membership, error)
	RespondToRequest(ctx context.Context, actor domain.Actor, membershipID uuid.UUID, accept bool) (*domain.Membership, error)
	AcceptInvitation(ctx context.Context, actor domain.Actor, membershipID uuid.UUID) (*domain.Membership, error)
	RejectInvitation(ctx context.Context, actor domain.Actor, membershipID uuid.UUID) (*domain.Membership, error)
	CancelMyParticipation(ctx context.Context, actor domain.Actor, eventID uuid.UUID) (*MembershipResult, error)
	RemoveParticipant(ctx context.Context, actor domain.Actor, eventID, targetID uuid.UUID) error
}

type ChatInteractor interface {
	GetByEvent(ctx context.Context, actor domain.Actor, eventID uuid.UUID) (*domain.Chat, []*domain.ChatParticipant, []*domain.ChatMessage, error)
	SendMessage(ctx context.Context, actor domain.Actor, eventID uuid.UUID, content string) (*domain.ChatMessage, error)
	Leave(ctx context.Context, actor domain.Actor, eventID uuid.UUID) error
}

type ProfileInteractor interface {
	GetOrCreate(ctx context.Context, eventID uuid.UUID) (*domain.EventProfile, []*domain.ProfileParticipant, error)
	RemoveParticipant(ctx context.Context, actor domain.Actor, eventID, targetID uuid.UUID) (*MembershipResult, error)
	SetCover(ctx context.Context, actor domain.Actor, eventID uuid.UUID, data []byte, mimeType string) (*domain.EventProfile, error)
}

// membershipPayload is the wire shape for every membership-status event.
func membershipPayload(m *domain.Membership) map[string]any {
	return map[string]any{
		"eventId":      m.EventID.String(),
		"membershipId": m.ID.String(),
		"userId":       m.UserID.String(),
		"status":       string(m.Status),
		"type":         m.Kind(),
	}
}
