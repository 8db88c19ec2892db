package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
)

// MemoryStore is an in-memory Store used by tests and local runs. Transact
// takes a snapshot of all collections and swaps it in only when the
// callback succeeds, so rollback semantics match the gorm store. All
// transactions are serialized by a single mutex.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
	inTx bool
}

type memoryData struct {
	events        map[uuid.UUID]domain.Event
	memberships   map[uuid.UUID]domain.Membership
	chats         map[uuid.UUID]domain.Chat
	chatParts     map[uuid.UUID]domain.ChatParticipant
	chatMessages  map[uuid.UUID]domain.ChatMessage
	profiles      map[uuid.UUID]domain.EventProfile
	profileParts  map[uuid.UUID]domain.ProfileParticipant
	notifications map[uuid.UUID]domain.Notification
	occurrences   map[uuid.UUID]domain.OccurrenceParticipation
}

func newMemoryData() *memoryData {
	return &memoryData{
		events:        make(map[uuid.UUID]domain.Event),
		memberships:   make(map[uuid.UUID]domain.Membership),
		chats:         make(map[uuid.UUID]domain.Chat),
		chatParts:     make(map[uuid.UUID]domain.ChatParticipant),
		chatMessages:  make(map[uuid.UUID]domain.ChatMessage),
		profiles:      make(map[uuid.UUID]domain.EventProfile),
		profileParts:  make(map[uuid.UUID]domain.ProfileParticipant),
		notifications: make(map[uuid.UUID]domain.Notification),
		occurrences:   make(map[uuid.UUID]domain.OccurrenceParticipation),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.memberships {
		c.memberships[k] = v
	}
	for k, v := range d.chats {
		c.chats[k] = v
	}
	for k, v := range d.chatParts {
		c.chatParts[k] = v
	}
	for k, v := range d.chatMessages {
		c.chatMessages[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.profileParts {
		c.profileParts[k] = v
	}
	for k, v := range d.notifications {
		c.notifications[k] = v
	}
	for k, v := range d.occurrences {
		c.occurrences[k] = v
	}
	return c
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

func (s *MemoryStore) Events() EventRepository               { return &memEvents{s: s} }
func (s *MemoryStore) Memberships() MembershipRepository     { return &memMemberships{s: s} }
func (s *MemoryStore) Chats() ChatRepository                 { return &memChats{s: s} }
func (s *MemoryStore) Profiles() ProfileRepository           { return &memProfiles{s: s} }
func (s *MemoryStore) Notifications() NotificationRepository { return &memNotifications{s: s} }
func (s *MemoryStore) Occurrences() OccurrenceRepository     { return &memOccurrences{s: s} }

func (s *MemoryStore) Transact(ctx context.Context, fn func(Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	tx := &MemoryStore{data: work, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = work
	return nil
}

// lock is a no-op inside a transaction, where the outer Transact already
// holds the store mutex.
func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memEvents struct {
	s *MemoryStore
}

func (r *memEvents) Create(ctx context.Context, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()
	r.s.data.events[event.ID] = *event
	return nil
}

func (r *memEvents) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	event, ok := r.s.data.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &event, nil
}

func (r *memEvents) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	// transactions are fully serialized here, no extra locking needed
	return r.GetByID(ctx, id)
}

func (r *memEvents) Update(ctx context.Context, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, ok := r.s.data.events[event.ID]; !ok {
		return domain.ErrEventNotFound
	}
	r.s.data.events[event.ID] = *event
	return nil
}

func (r *memEvents) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, ok := r.s.data.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.s.data.events, id)
	return nil
}

func (r *memEvents) List(ctx context.Context) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	result := make([]*domain.Event, 0, len(r.s.data.events))
	for _, event := range r.s.data.events {
		e := event
		result = append(result, &e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

type memMemberships struct {
	s *MemoryStore
}

func (r *memMemberships) Create(ctx context.Context, m *domain.Membership) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for _, existing := range r.s.data.memberships {
		if existing.EventID == m.EventID && existing.UserID == m.UserID {
			return domain.ErrAlreadyRequested
		}
	}
	r.s.data.memberships[m.ID] = *m
	return nil
}

func (r *memMemberships) GetByID(ctx context.Context, id uuid.UUID) (*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	m, ok := r.s.data.memberships[id]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	return &m, nil
}

func (r *memMemberships) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	for _, m := range r.s.data.memberships {
		if m.EventID == eventID && m.UserID == userID {
			found := m
			return &found, nil
		}
	}
	return nil, domain.ErrMembershipNotFound
}

func (r *memMemberships) Update(ctx context.Context, m *domain.Membership) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, ok := r.s.data.memberships[m.ID]; !ok {
		return domain.ErrMembershipNotFound
	}
	r.s.data.memberships[m.ID] = *m
	return nil
}

func (r *memMemberships) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, ok := r.s.data.memberships[id]; !ok {
		return domain.ErrMembershipNotFound
	}
	delete(r.s.data.memberships, id)
	return nil
}

func (r *memMemberships) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for id, m := range r.s.data.memberships {
		if m.EventID == eventID {
			delete(r.s.data.memberships, id)
		}
	}
	return nil
}

func (r *memMemberships) DeleteOtherPending(ctx context.Context, eventID, userID, keepID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for id, m := range r.s.data.memberships {
		if m.EventID == eventID && m.UserID == userID && m.Status == domain.StatusPending && id != keepID {
			delete(r.s.data.memberships, id)
		}
	}
	return nil
}

func (r *memMemberships) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var result []*domain.Membership
	for _, m := range r.s.data.memberships {
		if m.EventID == eventID {
			found := m
			result = append(result, &found)
		}
	}
	sortMemberships(result)
	return result, nil
}

func (r *memMemberships) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var result []*domain.Membership
	for _, m := range r.s.data.memberships {
		if m.UserID == userID {
			found := m
			result = append(result, &found)
		}
	}
	sortMemberships(result)
	return result, nil
}

func (r *memMemberships) CountAccepted(ctx context.Context, eventID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.s.lock()()

	count := 0
	for _, m := range r.s.data.memberships {
		if m.EventID == eventID && m.Status == domain.StatusAccepted {
			count++
		}
	}
	return count, nil
}

func (r *memMemberships) EarliestAccepted(ctx context.Context, eventID, excludeUser uuid.UUID) (*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var candidates []*domain.Membership
	for _, m := range r.s.data.memberships {
		if m.EventID == eventID && m.Status == domain.StatusAccepted && m.UserID != excludeUser {
			found := m
			candidates = append(candidates, &found)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrMembershipNotFound
	}
	sortMemberships(candidates)
	return candidates[0], nil
}

func sortMemberships(ms []*domain.Membership) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.Before(ms[j].CreatedAt)
		}
		return ms[i].ID.String() < ms[j].ID.String()
	})
}

type memChats struct {
	s *MemoryStore
}

func (r *memChats) Create(ctx context.Context, chat *domain.Chat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()
	r.s.data.chats[chat.ID] = *chat
	return nil
}

func (r *memChats) GetByEvent(ctx context.Context, eventID uuid.UUID) (*domain.Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	for _, chat := range r.s.data.chats {
		if chat.EventID == eventID {
			found := chat
			return &found, nil
		}
	}
	return nil, domain.ErrChatNotFound
}

func (r *memChats) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, ok := r.s.data.chats[id]; !ok {
		return domain.ErrChatNotFound
	}
	delete(r.s.data.chats, id)
	return nil
}

func (r *memChats) AddParticipant(ctx context.Context, p *domain.ChatParticipant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for _, existing := range r.s.data.chatParts {
		if existing.ChatID == p.ChatID && existing.UserID == p.UserID {
			return nil
		}
	}
	r.s.data.chatParts[p.ID] = *p
	return nil
}

func (r *memChats) RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for id, p := range r.s.data.chatParts {
		if p.ChatID == chatID && p.UserID == userID {
			delete(r.s.data.chatParts, id)
		}
	}
	return nil
}

func (r *memChats) DeleteParticipants(ctx context.Context, chatID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for id, p := range r.s.data.chatParts {
		if p.ChatID == chatID {
			delete(r.s.data.chatParts, id)
		}
	}
	return nil
}

func (r *memChats) ListParticipants(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatParticipant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var result []*domain.ChatParticipant
	for _, p := range r.s.data.chatParts {
		if p.ChatID == chatID {
			found := p
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].JoinedAt.Before(result[j].JoinedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *memChats) HasParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer r.s.lock()()

	for _, p := range r.s.data.chatParts {
		if p.ChatID == chatID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memChats) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var result []*domain.Chat
	for _, p := range r.s.data.chatParts {
		if p.UserID != userID {
			continue
		}
		if chat, ok := r.s.data.chats[p.ChatID]; ok {
			found := chat
			result = append(result, &found)
		}
	}
	return result, nil
}

func (r *memChats) SaveMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()
	r.s.data.chatMessages[msg.ID] = *msg
	return nil
}

func (r *memChats) ListMessages(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var result []*domain.ChatMessage
	for _, msg := range r.s.data.chatMessages {
		if msg.ChatID == chatID {
			found := msg
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *memChats) DetachMessages(ctx context.Context, eventID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for id, msg := range r.s.data.chatMessages {
		if msg.EventID != nil && *msg.EventID == eventID {
			msg.EventID = nil
			r.s.data.chatMessages[id] = msg
		}
	}
	return nil
}

type memProfiles struct {
	s *MemoryStore
}

func (r *memProfiles) Create(ctx context.Context, profile *domain.EventProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()
	r.s.data.profiles[profile.ID] = *profile
	return nil
}

func (r *memProfiles) GetByEvent(ctx context.Context, eventID uuid.UUID) (*domain.EventProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	for _, profile := range r.s.data.profiles {
		if profile.EventID == eventID {
			found := profile
			return &found, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (r *memProfiles) Update(ctx context.Context, profile *domain.EventProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, ok := r.s.data.profiles[profile.ID]; !ok {
		return domain.ErrProfileNotFound
	}
	r.s.data.profiles[profile.ID] = *profile
	return nil
}

func (r *memProfiles) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, ok := r.s.data.profiles[id]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(r.s.data.profiles, id)
	for pid, p := range r.s.data.profileParts {
		if p.ProfileID == id {
			delete(r.s.data.profileParts, pid)
		}
	}
	return nil
}

func (r *memProfiles) AddParticipant(ctx context.Context, p *domain.ProfileParticipant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for _, existing := range r.s.data.profileParts {
		if existing.ProfileID == p.ProfileID && existing.UserID == p.UserID {
			return nil
		}
	}
	r.s.data.profileParts[p.ID] = *p
	return nil
}

func (r *memProfiles) RemoveParticipant(ctx context.Context, profileID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for id, p := range r.s.data.profileParts {
		if p.ProfileID == profileID && p.UserID == userID {
			delete(r.s.data.profileParts, id)
		}
	}
	return nil
}

func (r *memProfiles) ListParticipants(ctx context.Context, profileID uuid.UUID) ([]*domain.ProfileParticipant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var result []*domain.ProfileParticipant
	for _, p := range r.s.data.profileParts {
		if p.ProfileID == profileID {
			found := p
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AddedAt.Equal(result[j].AddedAt) {
			return result[i].AddedAt.Before(result[j].AddedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *memProfiles) CountParticipants(ctx context.Context, profileID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.s.lock()()

	count := 0
	for _, p := range r.s.data.profileParts {
		if p.ProfileID == profileID {
			count++
		}
	}
	return count, nil
}

func (r *memProfiles) HasParticipant(ctx context.Context, profileID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer r.s.lock()()

	for _, p := range r.s.data.profileParts {
		if p.ProfileID == profileID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type memNotifications struct {
	s *MemoryStore
}

func (r *memNotifications) Create(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()
	r.s.data.notifications[n.ID] = *n
	return nil
}

func (r *memNotifications) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var result []*domain.Notification
	for _, n := range r.s.data.notifications {
		if n.UserID == userID {
			found := n
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

type memOccurrences struct {
	s *MemoryStore
}

func (r *memOccurrences) CreateBatch(ctx context.Context, parts []*domain.OccurrenceParticipation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for _, p := range parts {
		exists := false
		for _, existing := range r.s.data.occurrences {
			if existing.EventID == p.EventID && existing.UserID == p.UserID && existing.Date.Equal(p.Date) {
				exists = true
				break
			}
		}
		if !exists {
			r.s.data.occurrences[p.ID] = *p
		}
	}
	return nil
}

func (r *memOccurrences) ListByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) ([]*domain.OccurrenceParticipation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	var result []*domain.OccurrenceParticipation
	for _, o := range r.s.data.occurrences {
		if o.EventID == eventID && o.UserID == userID {
			found := o
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *memOccurrences) DeleteFrom(ctx context.Context, eventID, userID uuid.UUID, cutoff time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for id, o := range r.s.data.occurrences {
		if o.EventID == eventID && o.UserID == userID && !o.Date.Before(cutoff) {
			delete(r.s.data.occurrences, id)
		}
	}
	return nil
}

func (r *memOccurrences) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	for id, o := range r.s.data.occurrences {
		if o.EventID == eventID {
			delete(r.s.data.occurrences, id)
		}
	}
	return nil
}
