package domain

import (
	"time"

	"github.com/google/uuid"
)

type MembershipRole string

const (
	RoleOrganizer   MembershipRole = "organizer"
	RoleParticipant MembershipRole = "participant"
)

type MembershipStatus string

const (
	StatusPending  MembershipStatus = "pending"
	StatusAccepted MembershipStatus = "accepted"
	StatusRejected MembershipStatus = "rejected"
)

const (
	MembershipKindRequest    = "request"
	MembershipKindInvitation = "invitation"
)

// Membership is the single source of truth for a user's relationship to an
// event. At most one row exists per (event, user); deletion is the terminal
// state rather than a status value.
type Membership struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	UserID    uuid.UUID
	Role      MembershipRole
	Status    MembershipStatus
	InvitedBy *uuid.UUID // nil for self-initiated join requests
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewJoinRequest(eventID, userID uuid.UUID) *Membership {
	now := time.Now().UTC()
	return &Membership{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		Role:      RoleParticipant,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewInvitation(eventID, userID, inviter uuid.UUID) *Membership {
	m := NewJoinRequest(eventID, userID)
	m.InvitedBy = &inviter
	return m
}

func NewOrganizerMembership(eventID, userID uuid.UUID) *Membership {
	m := NewJoinRequest(eventID, userID)
	m.Role = RoleOrganizer
	m.Status = StatusAccepted
	return m
}

// Kind reports whether the row originated as a join request or an invitation.
func (m *Membership) Kind() string {
	if m.InvitedBy != nil {
		return MembershipKindInvitation
	}
	return MembershipKindRequest
}
