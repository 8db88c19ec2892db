package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/domain"
)

func TestRequestToJoinCreatesPendingRequest(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	m, err := f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, m.Status)
	assert.Equal(t, domain.RoleParticipant, m.Role)
	assert.Equal(t, domain.MembershipKindRequest, m.Kind())

	// the organizer hears about it
	notifications, err := f.notifier.ListByUser(context.Background(), organizer)
	require.NoError(t, err)
	require.NotEmpty(t, notifications)
	assert.Equal(t, "event:request", notifications[0].Type)
}

func TestRequestToJoinDuplicateConflicts(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	_, err := f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	require.NoError(t, err)

	_, err = f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyRequested)
}

func TestRequestToJoinBlockedUser(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, uuid.New(), CreateEventParams{})

	_, err := f.memberships.RequestToJoin(context.Background(), domain.Actor{ID: uuid.New(), Blocked: true}, event.ID)
	assert.ErrorIs(t, err, domain.ErrUserBlocked)
}

func TestRequestToJoinOwnEventConflicts(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	_, err := f.memberships.RequestToJoin(context.Background(), actor(organizer), event.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyRequested)
}

func TestRequestToJoinUnknownEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.memberships.RequestToJoin(context.Background(), actor(uuid.New()), uuid.New())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestRejectedRequestCanBeRenewed(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	first, err := f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	require.NoError(t, err)
	_, err = f.memberships.RespondToRequest(context.Background(), actor(organizer), first.ID, false)
	require.NoError(t, err)

	// the rejected row is reset, not duplicated
	renewed, err := f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, renewed.ID)
	assert.Equal(t, domain.StatusPending, renewed.Status)
}

func TestRejectedRequestCanBecomeInvitation(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	first, err := f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	require.NoError(t, err)
	_, err = f.memberships.RespondToRequest(context.Background(), actor(organizer), first.ID, false)
	require.NoError(t, err)

	invitation, err := f.memberships.InviteUser(context.Background(), actor(organizer), event.ID, user)
	require.NoError(t, err)
	assert.Equal(t, first.ID, invitation.ID)
	assert.Equal(t, domain.MembershipKindInvitation, invitation.Kind())
	assert.Equal(t, domain.StatusPending, invitation.Status)
}

func TestRespondToRequestOnlyOrganizer(t *testing.T) {
	f := newFixture(t)
	organizer, user, stranger := uuid.New(), uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	m, err := f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	require.NoError(t, err)

	_, err = f.memberships.RespondToRequest(context.Background(), actor(stranger), m.ID, true)
	assert.ErrorIs(t, err, domain.ErrOnlyOrganizer)
}

func TestRespondToRequestTwice(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	m, err := f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	require.NoError(t, err)
	_, err = f.memberships.RespondToRequest(context.Background(), actor(organizer), m.ID, true)
	require.NoError(t, err)

	_, err = f.memberships.RespondToRequest(context.Background(), actor(organizer), m.ID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestRespondToRequestOnInvitation(t *testing.T) {
	f := newFixture(t)
	organizer, invitee := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	m, err := f.memberships.InviteUser(context.Background(), actor(organizer), event.ID, invitee)
	require.NoError(t, err)

	// the organizer cannot accept an invitation on the invitee's behalf
	_, err = f.memberships.RespondToRequest(context.Background(), actor(organizer), m.ID, true)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	stored, err := f.store.Memberships().GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestAcceptedMemberJoinsChat(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	f.join(t, event, user)

	chat, err := f.store.Chats().GetByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	for _, id := range []uuid.UUID{organizer, user} {
		ok, err := f.store.Chats().HasParticipant(context.Background(), chat.ID, id)
		require.NoError(t, err)
		assert.True(t, ok, "user %s should sit in the chat", id)
	}
}

func TestInviteUserOnlyOrganizer(t *testing.T) {
	f := newFixture(t)
	organizer, stranger := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	_, err := f.memberships.InviteUser(context.Background(), actor(stranger), event.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrOnlyOrganizer)
}

func TestInviteSelf(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	_, err := f.memberships.InviteUser(context.Background(), actor(organizer), event.ID, organizer)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestAcceptInvitationWrongUser(t *testing.T) {
	f := newFixture(t)
	organizer, invitee := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	m, err := f.memberships.InviteUser(context.Background(), actor(organizer), event.ID, invitee)
	require.NoError(t, err)

	_, err = f.memberships.AcceptInvitation(context.Background(), actor(uuid.New()), m.ID)
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
}

func TestAcceptInvitationOnJoinRequest(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	m, err := f.memberships.RequestToJoin(context.Background(), actor(user), event.ID)
	require.NoError(t, err)

	// a self-initiated request cannot be self-accepted
	_, err = f.memberships.AcceptInvitation(context.Background(), actor(user), m.ID)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestRejectInvitation(t *testing.T) {
	f := newFixture(t)
	organizer, invitee := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	m, err := f.memberships.InviteUser(context.Background(), actor(organizer), event.ID, invitee)
	require.NoError(t, err)

	rejected, err := f.memberships.RejectInvitation(context.Background(), actor(invitee), m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)

	// rejected invitees never reach the chat
	_, err = f.store.Chats().GetByEvent(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrChatNotFound)
}

func TestCapacityEnforcedOnAccept(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	// the organizer's own accepted row occupies one slot
	event := f.createEvent(t, organizer, CreateEventParams{MaxParticipants: 2})

	first, second := uuid.New(), uuid.New()
	f.join(t, event, first)

	m, err := f.memberships.RequestToJoin(context.Background(), actor(second), event.ID)
	require.NoError(t, err)
	_, err = f.memberships.RespondToRequest(context.Background(), actor(organizer), m.ID, true)
	assert.ErrorIs(t, err, domain.ErrEventFull)

	// the failed accept left the row pending
	row, err := f.store.Memberships().GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, row.Status)
}

func TestCapacityUnderConcurrentAccepts(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{MaxParticipants: 3})

	var invitations []*domain.Membership
	users := make([]uuid.UUID, 5)
	for i := range users {
		users[i] = uuid.New()
		m, err := f.memberships.InviteUser(context.Background(), actor(organizer), event.ID, users[i])
		require.NoError(t, err)
		invitations = append(invitations, m)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(invitations))
	for i, m := range invitations {
		wg.Add(1)
		go func(i int, id, user uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.memberships.AcceptInvitation(context.Background(), actor(user), id)
		}(i, m.ID, m.UserID)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, domain.ErrEventFull)
		}
	}
	assert.Equal(t, 2, accepted)

	count, err := f.store.Memberships().CountAccepted(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestUnlimitedCapacity(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	for i := 0; i < 10; i++ {
		f.join(t, event, uuid.New())
	}

	count, err := f.store.Memberships().CountAccepted(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, count)
}

func TestInvitationRoundTrip(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{
		InvitedUserIDs: []uuid.UUID{a, b, c},
	})

	memberships, err := f.store.Memberships().ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 4) // organizer + three invitations

	for _, user := range []uuid.UUID{a, b} {
		m, err := f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, user)
		require.NoError(t, err)
		_, err = f.memberships.AcceptInvitation(context.Background(), actor(user), m.ID)
		require.NoError(t, err)
	}
	mc, err := f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, c)
	require.NoError(t, err)
	_, err = f.memberships.RejectInvitation(context.Background(), actor(c), mc.ID)
	require.NoError(t, err)

	count, err := f.store.Memberships().CountAccepted(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	chat, err := f.store.Chats().GetByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	participants, err := f.store.Chats().ListParticipants(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 3)
}

func TestCancelMyParticipation(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, user)

	result, err := f.memberships.CancelMyParticipation(context.Background(), actor(user), event.ID)
	require.NoError(t, err)
	assert.False(t, result.EventDeleted)

	_, err = f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, user)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)

	// the chat roster shrinks but the chat survives
	chat, err := f.store.Chats().GetByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	ok, err := f.store.Chats().HasParticipant(context.Background(), chat.ID, user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelMyParticipationRollsBackWithChatRoster(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, user)

	broken := &failingStore{Store: f.store}
	memberships := NewMembershipService(broken, f.chats, f.events, f.notifier, f.hub, nil)

	_, err := memberships.CancelMyParticipation(context.Background(), actor(user), event.ID)
	require.Error(t, err)

	// membership and chat roster move together or not at all
	m, err := f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, user)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, m.Status)

	chat, err := f.store.Chats().GetByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	ok, err := f.store.Chats().HasParticipant(context.Background(), chat.ID, user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCancelMyParticipationNoMembershipFutureEvent(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, uuid.New(), CreateEventParams{})

	_, err := f.memberships.CancelMyParticipation(context.Background(), actor(uuid.New()), event.ID)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}

func TestCancelMyParticipationOrganizerDelegatesToWithdrawal(t *testing.T) {
	f := newFixture(t)
	organizer, first, second := uuid.New(), uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, first)
	f.join(t, event, second)

	result, err := f.memberships.CancelMyParticipation(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)
	assert.False(t, result.EventDeleted)

	// ownership moved to the longest-standing member
	updated, err := f.events.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, first, updated.OrganizerID)
}

func TestCancelMyParticipationOrganizerWithOneMemberDeletesEvent(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, user)

	// two people total: the event does not survive the organizer leaving
	result, err := f.memberships.CancelMyParticipation(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)
	assert.True(t, result.EventDeleted)

	_, err = f.events.Get(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	_, err = f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, user)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}

func TestCancelMyParticipationLoneOrganizerDeletesEvent(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	result, err := f.memberships.CancelMyParticipation(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)
	assert.True(t, result.EventDeleted)

	_, err = f.events.Get(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestCancelPastEventFadesAway(t *testing.T) {
	f := newFixture(t)
	organizer, member := uuid.New(), uuid.New()
	event := f.createPastEvent(t, organizer)
	f.join(t, event, member)

	// materialize the memories roster while both are still on it
	_, participants, err := f.profiles.GetOrCreate(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)

	result, err := f.memberships.CancelMyParticipation(context.Background(), actor(member), event.ID)
	require.NoError(t, err)
	assert.False(t, result.EventDeleted)

	// the last one out turns the lights off
	result, err = f.memberships.CancelMyParticipation(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)
	assert.True(t, result.EventDeleted)

	_, err = f.events.Get(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestRemoveParticipant(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, user)

	err := f.memberships.RemoveParticipant(context.Background(), actor(organizer), event.ID, user)
	require.NoError(t, err)

	_, err = f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, user)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)

	// removal leaves a system message behind
	chat, err := f.store.Chats().GetByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	messages, err := f.store.Chats().ListMessages(context.Background(), chat.ID)
	require.NoError(t, err)
	require.NotEmpty(t, messages)
	assert.True(t, messages[len(messages)-1].System)
}

func TestRemoveParticipantRevokesChatAccess(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, user)

	err := f.memberships.RemoveParticipant(context.Background(), actor(organizer), event.ID, user)
	require.NoError(t, err)

	_, err = f.chats.SendMessage(context.Background(), actor(user), event.ID, "still here?")
	assert.ErrorIs(t, err, domain.ErrNotEventParticipant)
}

func TestRemoveParticipantOnlyOrganizer(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, user)

	err := f.memberships.RemoveParticipant(context.Background(), actor(user), event.ID, user)
	assert.ErrorIs(t, err, domain.ErrOnlyOrganizer)
}

func TestRemoveParticipantOrganizerRowIsProtected(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	err := f.memberships.RemoveParticipant(context.Background(), actor(organizer), event.ID, organizer)
	assert.ErrorIs(t, err, domain.ErrRemoveOrganizer)
}

func TestCancelParticipationDropsFutureOccurrences(t *testing.T) {
	f := newFixture(t)
	organizer, user := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{
		StartTime:  timeNowPlusDays(1),
		EndTime:    timeNowPlusDays(30),
		Recurrence: domain.Recurrence{Type: domain.RecurrenceWeekly, Weekdays: allWeekdays()},
	})
	f.join(t, event, user)

	rows, err := f.store.Occurrences().ListByEventAndUser(context.Background(), event.ID, user)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	_, err = f.memberships.CancelMyParticipation(context.Background(), actor(user), event.ID)
	require.NoError(t, err)

	rows, err = f.store.Occurrences().ListByEventAndUser(context.Background(), event.ID, user)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
