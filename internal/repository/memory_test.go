package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/domain"
)

func newTestEvent() *domain.Event {
	return domain.NewEvent(uuid.New(), "test event", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
}

func TestTransactCommits(t *testing.T) {
	store := NewMemoryStore()
	event := newTestEvent()

	err := store.Transact(context.Background(), func(tx Store) error {
		if err := tx.Events().Create(context.Background(), event); err != nil {
			return err
		}
		return tx.Memberships().Create(context.Background(), domain.NewOrganizerMembership(event.ID, event.OrganizerID))
	})
	require.NoError(t, err)

	got, err := store.Events().GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, got.Title)
}

func TestTransactRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	event := newTestEvent()
	boom := errors.New("boom")

	err := store.Transact(context.Background(), func(tx Store) error {
		if err := tx.Events().Create(context.Background(), event); err != nil {
			return err
		}
		if err := tx.Memberships().Create(context.Background(), domain.NewOrganizerMembership(event.ID, event.OrganizerID)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// nothing from the failed transaction is visible
	_, err = store.Events().GetByID(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	memberships, err := store.Memberships().ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
}

func TestTransactNested(t *testing.T) {
	store := NewMemoryStore()
	event := newTestEvent()

	err := store.Transact(context.Background(), func(tx Store) error {
		return tx.Transact(context.Background(), func(inner Store) error {
			return inner.Events().Create(context.Background(), event)
		})
	})
	require.NoError(t, err)

	_, err = store.Events().GetByID(context.Background(), event.ID)
	assert.NoError(t, err)
}

func TestTransactRespectsContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Transact(ctx, func(Store) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMembershipUniquePerEventAndUser(t *testing.T) {
	store := NewMemoryStore()
	eventID, userID := uuid.New(), uuid.New()

	require.NoError(t, store.Memberships().Create(context.Background(), domain.NewJoinRequest(eventID, userID)))
	err := store.Memberships().Create(context.Background(), domain.NewJoinRequest(eventID, userID))
	assert.ErrorIs(t, err, domain.ErrAlreadyRequested)
}

func TestEarliestAcceptedOrdering(t *testing.T) {
	store := NewMemoryStore()
	eventID, organizer := uuid.New(), uuid.New()

	first := domain.NewJoinRequest(eventID, uuid.New())
	first.Status = domain.StatusAccepted
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	second := domain.NewJoinRequest(eventID, uuid.New())
	second.Status = domain.StatusAccepted
	second.CreatedAt = time.Now().Add(-1 * time.Hour)
	organizerRow := domain.NewOrganizerMembership(eventID, organizer)
	organizerRow.CreatedAt = time.Now().Add(-3 * time.Hour)

	for _, m := range []*domain.Membership{second, organizerRow, first} {
		require.NoError(t, store.Memberships().Create(context.Background(), m))
	}

	got, err := store.Memberships().EarliestAccepted(context.Background(), eventID, organizer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = store.Memberships().EarliestAccepted(context.Background(), uuid.New(), organizer)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}

func TestDetachMessages(t *testing.T) {
	store := NewMemoryStore()
	eventID := uuid.New()
	chat := domain.NewChat(eventID)
	require.NoError(t, store.Chats().Create(context.Background(), chat))

	msg := domain.NewChatMessage(chat.ID, eventID, uuid.New(), "hi")
	require.NoError(t, store.Chats().SaveMessage(context.Background(), msg))

	require.NoError(t, store.Chats().DetachMessages(context.Background(), eventID))

	messages, err := store.Chats().ListMessages(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Nil(t, messages[0].EventID)
	assert.Equal(t, "hi", messages[0].Content)
}

func TestOccurrenceDeleteFromKeepsPastRows(t *testing.T) {
	store := NewMemoryStore()
	eventID, userID := uuid.New(), uuid.New()

	past := domain.NewOccurrenceParticipation(eventID, userID, time.Now().Add(-48*time.Hour))
	future := domain.NewOccurrenceParticipation(eventID, userID, time.Now().Add(48*time.Hour))
	require.NoError(t, store.Occurrences().CreateBatch(context.Background(), []*domain.OccurrenceParticipation{past, future}))

	require.NoError(t, store.Occurrences().DeleteFrom(context.Background(), eventID, userID, time.Now()))

	rows, err := store.Occurrences().ListByEventAndUser(context.Background(), eventID, userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, past.Date, rows[0].Date)
}
