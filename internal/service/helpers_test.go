package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/repository"
)

// fakeHub records every broadcast for assertions.
type fakeHub struct {
	mu      sync.Mutex
	emitted []emittedEvent
	joined  map[string][]uuid.UUID
}

type emittedEvent struct {
	Room  string
	Event string
}

func newFakeHub() *fakeHub {
	return &fakeHub{joined: make(map[string][]uuid.UUID)}
}

func (h *fakeHub) Emit(roomID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitted = append(h.emitted, emittedEvent{Room: roomID, Event: event})
}

func (h *fakeHub) EmitAll(event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitted = append(h.emitted, emittedEvent{Event: event})
}

func (h *fakeHub) JoinUser(userID uuid.UUID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joined[roomID] = append(h.joined[roomID], userID)
}

func (h *fakeHub) LeaveUser(userID uuid.UUID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	users := h.joined[roomID]
	for i, id := range users {
		if id == userID {
			h.joined[roomID] = append(users[:i], users[i+1:]...)
			return
		}
	}
}

func (h *fakeHub) emittedEvents(event string) []emittedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var result []emittedEvent
	for _, e := range h.emitted {
		if e.Event == event {
			result = append(result, e)
		}
	}
	return result
}

// fakeUploader counts uploads so tests can assert nothing was stored.
type fakeUploader struct {
	mu    sync.Mutex
	calls int
}

func (u *fakeUploader) Upload(_ context.Context, ownerID uuid.UUID, _ []byte, _ string) (string, error) {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()
	return "/uploads/" + ownerID.String() + ".jpg", nil
}

func (u *fakeUploader) uploads() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

// failingStore wraps a Store so chat roster deletes fail, to exercise the
// rollback of multi-roster transactions.
type failingStore struct {
	repository.Store
}

func (s *failingStore) Chats() repository.ChatRepository {
	return &failingChats{s.Store.Chats()}
}

func (s *failingStore) Transact(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.Transact(ctx, func(tx repository.Store) error {
		return fn(&failingStore{tx})
	})
}

type failingChats struct {
	repository.ChatRepository
}

func (c *failingChats) RemoveParticipant(context.Context, uuid.UUID, uuid.UUID) error {
	return errors.New("chat storage unavailable")
}

type fixture struct {
	store       *repository.MemoryStore
	hub         *fakeHub
	uploader    *fakeUploader
	notifier    *Notifier
	chats       *ChatService
	events      *EventService
	memberships *MembershipService
	profiles    *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	hub := newFakeHub()
	uploader := &fakeUploader{}
	notifier := NewNotifier(store, hub, nil)
	chats := NewChatService(store, hub, nil)
	events := NewEventService(store, chats, notifier, hub, nil)
	memberships := NewMembershipService(store, chats, events, notifier, hub, nil)
	profiles := NewProfileService(store, events, uploader, nil)

	return &fixture{
		store:       store,
		hub:         hub,
		uploader:    uploader,
		notifier:    notifier,
		chats:       chats,
		events:      events,
		memberships: memberships,
		profiles:    profiles,
	}
}

func actor(id uuid.UUID) domain.Actor {
	return domain.Actor{ID: id}
}

func timeNowPlusDays(days int) time.Time {
	return time.Now().Add(time.Duration(days) * 24 * time.Hour)
}

func allWeekdays() []time.Weekday {
	return []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
}

// createEvent makes a future event owned by organizer.
func (f *fixture) createEvent(t *testing.T, organizer uuid.UUID, params CreateEventParams) *domain.Event {
	t.Helper()

	if params.Title == "" {
		params.Title = "board games night"
	}
	if params.StartTime.IsZero() {
		params.StartTime = time.Now().Add(24 * time.Hour)
	}
	if params.EndTime.IsZero() {
		params.EndTime = params.StartTime.Add(3 * time.Hour)
	}

	event, err := f.events.Create(context.Background(), actor(organizer), params)
	require.NoError(t, err)
	return event
}

// createPastEvent makes an event that has already ended.
func (f *fixture) createPastEvent(t *testing.T, organizer uuid.UUID) *domain.Event {
	t.Helper()
	return f.createEvent(t, organizer, CreateEventParams{
		Title:     "last week's picnic",
		StartTime: time.Now().Add(-48 * time.Hour),
		EndTime:   time.Now().Add(-45 * time.Hour),
	})
}

// join runs the request/accept round trip for one user.
func (f *fixture) join(t *testing.T, event *domain.Event, userID uuid.UUID) *domain.Membership {
	t.Helper()

	m, err := f.memberships.RequestToJoin(context.Background(), actor(userID), event.ID)
	require.NoError(t, err)
	m, err = f.memberships.RespondToRequest(context.Background(), actor(event.OrganizerID), m.ID, true)
	require.NoError(t, err)
	return m
}
