package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/realtime"
)

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()

	start := time.Date(2026, time.September, 5, 20, 0, 0, 0, time.UTC) // Saturday
	event := f.createEvent(t, organizer, CreateEventParams{
		Title:     "rooftop dinner",
		StartTime: start,
		EndTime:   start.Add(4 * time.Hour),
		Tags:      []string{"food"},
	})

	assert.Equal(t, organizer, event.OrganizerID)
	assert.Contains(t, event.DerivedTags, "evening")
	assert.Contains(t, event.DerivedTags, "weekend")

	// the organizer is an accepted member from the start
	m, err := f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOrganizer, m.Role)
	assert.Equal(t, domain.StatusAccepted, m.Status)

	assert.NotEmpty(t, f.hub.emittedEvents(realtime.EventCreated))
}

func TestCreateEventValidation(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	tests := []struct {
		name   string
		params CreateEventParams
	}{
		{"empty title", CreateEventParams{Title: "   ", StartTime: now, EndTime: now.Add(time.Hour)}},
		{"end before start", CreateEventParams{Title: "x", StartTime: now.Add(time.Hour), EndTime: now}},
		{"negative capacity", CreateEventParams{Title: "x", StartTime: now, EndTime: now.Add(time.Hour), MaxParticipants: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.Create(context.Background(), actor(uuid.New()), tt.params)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestCreateEventSkipsSelfInvitation(t *testing.T) {
	f := newFixture(t)
	organizer, guest := uuid.New(), uuid.New()

	event := f.createEvent(t, organizer, CreateEventParams{
		InvitedUserIDs: []uuid.UUID{organizer, guest},
	})

	memberships, err := f.store.Memberships().ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 2) // organizer row plus one invitation
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture(t)
	organizer, member := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, member)

	title := "new title"
	location := "the park"
	updated, err := f.events.Update(context.Background(), actor(organizer), event.ID, UpdateEventParams{
		Title:    &title,
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, location, updated.Location)

	// accepted members get a change summary
	notifications, err := f.notifier.ListByUser(context.Background(), member)
	require.NoError(t, err)
	found := false
	for _, n := range notifications {
		if n.Type == "event:updated" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUpdateEventOnlyOrganizer(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, uuid.New(), CreateEventParams{})

	title := "hijacked"
	_, err := f.events.Update(context.Background(), actor(uuid.New()), event.ID, UpdateEventParams{Title: &title})
	assert.ErrorIs(t, err, domain.ErrOnlyOrganizer)
}

func TestUpdateEventNoChanges(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	before := len(f.hub.emittedEvents(realtime.EventUpdated))
	sameTitle := event.Title
	_, err := f.events.Update(context.Background(), actor(organizer), event.ID, UpdateEventParams{Title: &sameTitle})
	require.NoError(t, err)
	assert.Len(t, f.hub.emittedEvents(realtime.EventUpdated), before)
}

func TestUpdateEventRejectsInvertedTimes(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	badEnd := event.StartTime.Add(-time.Hour)
	_, err := f.events.Update(context.Background(), actor(organizer), event.ID, UpdateEventParams{EndTime: &badEnd})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestCancelEventCascade(t *testing.T) {
	f := newFixture(t)
	organizer, a, b := uuid.New(), uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{
		Recurrence: domain.Recurrence{Type: domain.RecurrenceWeekly, Weekdays: allWeekdays()},
	})
	f.join(t, event, a)
	f.join(t, event, b)

	chat, err := f.store.Chats().GetByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	_, err = f.chats.SendMessage(context.Background(), actor(a), event.ID, "see you there")
	require.NoError(t, err)

	result, err := f.events.Cancel(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ParticipantsAffected)

	// no roster survives the teardown
	_, err = f.events.Get(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	memberships, err := f.store.Memberships().ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
	_, err = f.store.Chats().GetByEvent(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrChatNotFound)
	occurrences, err := f.store.Occurrences().ListByEventAndUser(context.Background(), event.ID, a)
	require.NoError(t, err)
	assert.Empty(t, occurrences)

	// chat history survives, detached from the event
	messages, err := f.store.Chats().ListMessages(context.Background(), chat.ID)
	require.NoError(t, err)
	require.NotEmpty(t, messages)
	for _, msg := range messages {
		assert.Nil(t, msg.EventID)
	}

	notifications, err := f.notifier.ListByUser(context.Background(), a)
	require.NoError(t, err)
	found := false
	for _, n := range notifications {
		if n.Type == "event:deleted" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCancelFutureEventOnlyOrganizer(t *testing.T) {
	f := newFixture(t)
	organizer, member := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, member)

	_, err := f.events.Cancel(context.Background(), actor(member), event.ID)
	assert.ErrorIs(t, err, domain.ErrOnlyOrganizer)
}

func TestCancelPastEventByParticipant(t *testing.T) {
	f := newFixture(t)
	organizer, member := uuid.New(), uuid.New()
	event := f.createPastEvent(t, organizer)
	f.join(t, event, member)

	_, err := f.events.Cancel(context.Background(), actor(member), event.ID)
	require.NoError(t, err)

	_, err = f.events.Get(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestCancelPastEventByStranger(t *testing.T) {
	f := newFixture(t)
	event := f.createPastEvent(t, uuid.New())

	_, err := f.events.Cancel(context.Background(), actor(uuid.New()), event.ID)
	assert.ErrorIs(t, err, domain.ErrOnlyOrganizer)
}

func TestCancelTwice(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	_, err := f.events.Cancel(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)

	_, err = f.events.Cancel(context.Background(), actor(organizer), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestWithdrawOrganizerSuccession(t *testing.T) {
	f := newFixture(t)
	organizer, first, second := uuid.New(), uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, first)
	f.join(t, event, second)

	result, err := f.events.WithdrawOrganizer(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)
	assert.True(t, result.EventContinues)
	assert.Equal(t, first, result.NewOrganizerID)

	updated, err := f.events.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, first, updated.OrganizerID)

	successor, err := f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, first)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOrganizer, successor.Role)

	_, err = f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, organizer)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}

func TestWithdrawOrganizerWithSingleMemberDeletesEvent(t *testing.T) {
	f := newFixture(t)
	organizer, member := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, member)

	// a two-person event does not survive the organizer leaving
	result, err := f.events.WithdrawOrganizer(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)
	assert.False(t, result.EventContinues)

	_, err = f.events.Get(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	_, err = f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, member)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}

func TestWithdrawOrganizerWithoutSuccessor(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	result, err := f.events.WithdrawOrganizer(context.Background(), actor(organizer), event.ID)
	require.NoError(t, err)
	assert.False(t, result.EventContinues)

	_, err = f.events.Get(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestWithdrawOrganizerOnlyOrganizer(t *testing.T) {
	f := newFixture(t)
	organizer, member := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, member)

	_, err := f.events.WithdrawOrganizer(context.Background(), actor(member), event.ID)
	assert.ErrorIs(t, err, domain.ErrOnlyOrganizer)
}

func TestTransferOrganizer(t *testing.T) {
	f := newFixture(t)
	organizer, member := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	f.join(t, event, member)

	err := f.events.TransferOrganizer(context.Background(), actor(organizer), event.ID, member)
	require.NoError(t, err)

	updated, err := f.events.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, member, updated.OrganizerID)

	// the previous organizer stays on as a plain participant
	old, err := f.store.Memberships().GetByEventAndUser(context.Background(), event.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleParticipant, old.Role)
	assert.Equal(t, domain.StatusAccepted, old.Status)
}

func TestTransferOrganizerRequiresAcceptedTarget(t *testing.T) {
	f := newFixture(t)
	organizer, pending := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})
	_, err := f.memberships.RequestToJoin(context.Background(), actor(pending), event.ID)
	require.NoError(t, err)

	err = f.events.TransferOrganizer(context.Background(), actor(organizer), event.ID, pending)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestOccurrenceDatesDaily(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	start := timeNowPlusDays(1)
	event := f.createEvent(t, organizer, CreateEventParams{
		StartTime:  start,
		EndTime:    start.Add(4 * 24 * time.Hour),
		Recurrence: domain.Recurrence{Type: domain.RecurrenceDaily},
	})

	// daily events are always-active, every generated date comes back
	dates, err := f.events.OccurrenceDates(context.Background(), event.ID, uuid.New())
	require.NoError(t, err)
	assert.Len(t, dates, 5)
}

func TestOccurrenceDatesWeeklyPerUser(t *testing.T) {
	f := newFixture(t)
	organizer, member := uuid.New(), uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{
		StartTime:  timeNowPlusDays(1),
		EndTime:    timeNowPlusDays(15),
		Recurrence: domain.Recurrence{Type: domain.RecurrenceWeekly, Weekdays: allWeekdays()},
	})

	// nothing persisted for a user who never joined
	dates, err := f.events.OccurrenceDates(context.Background(), event.ID, member)
	require.NoError(t, err)
	assert.Empty(t, dates)

	f.join(t, event, member)
	dates, err = f.events.OccurrenceDates(context.Background(), event.ID, member)
	require.NoError(t, err)
	assert.NotEmpty(t, dates)
}

func TestOccurrenceDatesNonRecurring(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	event := f.createEvent(t, organizer, CreateEventParams{})

	dates, err := f.events.OccurrenceDates(context.Background(), event.ID, organizer)
	require.NoError(t, err)
	assert.Empty(t, dates)
}
