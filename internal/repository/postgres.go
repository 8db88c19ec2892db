package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/repository/model"
)

// GormStore is the postgres-backed Store. Transact hands callbacks a store
// bound to the transaction's *gorm.DB so every repository call inside the
// callback shares one atomic unit.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Events() EventRepository               { return &gormEvents{db: s.db} }
func (s *GormStore) Memberships() MembershipRepository     { return &gormMemberships{db: s.db} }
func (s *GormStore) Chats() ChatRepository                 { return &gormChats{db: s.db} }
func (s *GormStore) Profiles() ProfileRepository           { return &gormProfiles{db: s.db} }
func (s *GormStore) Notifications() NotificationRepository { return &gormNotifications{db: s.db} }
func (s *GormStore) Occurrences() OccurrenceRepository     { return &gormOccurrences{db: s.db} }

func (s *GormStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

type gormEvents struct {
	db *gorm.DB
}

func (r *gormEvents) Create(ctx context.Context, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event == nil {
		return errors.New("event is nil")
	}
	return r.db.WithContext(ctx).Create(toModelEvent(event)).Error
}

func (r *gormEvents) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var event model.Event
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}

	return toDomainEvent(&event), nil
}

func (r *gormEvents) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var event model.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}

	return toDomainEvent(&event), nil
}

func (r *gormEvents) Update(ctx context.Context, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event == nil {
		return errors.New("event is nil")
	}

	res := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("id = ?", event.ID).
		Select("*").
		Omit("id", "created_at", "Memberships").
		Updates(toModelEvent(event))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *gormEvents) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Event{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *gormEvents) List(ctx context.Context) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []model.Event
	if err := r.db.WithContext(ctx).Order("start_time").Find(&events).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Event, 0, len(events))
	for i := range events {
		result = append(result, toDomainEvent(&events[i]))
	}
	return result, nil
}

type gormMemberships struct {
	db *gorm.DB
}

func (r *gormMemberships) Create(ctx context.Context, m *domain.Membership) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil {
		return errors.New("membership is nil")
	}
	if err := r.db.WithContext(ctx).Create(toModelMembership(m)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyRequested
		}
		return err
	}
	return nil
}

func (r *gormMemberships) GetByID(ctx context.Context, id uuid.UUID) (*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m model.Membership
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}
	return toDomainMembership(&m), nil
}

func (r *gormMemberships) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m model.Membership
	err := r.db.WithContext(ctx).First(&m, "event_id = ? AND user_id = ?", eventID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}
	return toDomainMembership(&m), nil
}

func (r *gormMemberships) Update(ctx context.Context, m *domain.Membership) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil {
		return errors.New("membership is nil")
	}

	res := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("id = ?", m.ID).
		Select("role", "status", "invited_by", "updated_at").
		Updates(toModelMembership(m))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *gormMemberships) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Membership{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *gormMemberships) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&model.Membership{}, "event_id = ?", eventID).Error
}

func (r *gormMemberships) DeleteOtherPending(ctx context.Context, eventID, userID, keepID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ? AND status = ? AND id <> ?",
			eventID, userID, string(domain.StatusPending), keepID).
		Delete(&model.Membership{}).Error
}

func (r *gormMemberships) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Membership
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows, "event_id = ?", eventID).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Membership, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainMembership(&rows[i]))
	}
	return result, nil
}

func (r *gormMemberships) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Membership
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Membership, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainMembership(&rows[i]))
	}
	return result, nil
}

func (r *gormMemberships) CountAccepted(ctx context.Context, eventID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("event_id = ? AND status = ?", eventID, string(domain.StatusAccepted)).
		Count(&count).Error
	return int(count), err
}

func (r *gormMemberships) EarliestAccepted(ctx context.Context, eventID, excludeUser uuid.UUID) (*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ? AND user_id <> ?", eventID, string(domain.StatusAccepted), excludeUser).
		Order("created_at").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}
	return toDomainMembership(&m), nil
}

type gormChats struct {
	db *gorm.DB
}

func (r *gormChats) Create(ctx context.Context, chat *domain.Chat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chat == nil {
		return errors.New("chat is nil")
	}
	return r.db.WithContext(ctx).Create(toModelChat(chat)).Error
}

func (r *gormChats) GetByEvent(ctx context.Context, eventID uuid.UUID) (*domain.Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chat model.Chat
	err := r.db.WithContext(ctx).First(&chat, "event_id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return toDomainChat(&chat), nil
}

func (r *gormChats) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Chat{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrChatNotFound
	}
	return nil
}

func (r *gormChats) AddParticipant(ctx context.Context, p *domain.ChatParticipant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil {
		return errors.New("participant is nil")
	}
	// idempotent: a second insert for the same (chat, user) is a no-op
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(toModelChatParticipant(p)).Error
}

func (r *gormChats) RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&model.ChatParticipant{}, "chat_id = ? AND user_id = ?", chatID, userID).Error
}

func (r *gormChats) DeleteParticipants(ctx context.Context, chatID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&model.ChatParticipant{}, "chat_id = ?", chatID).Error
}

func (r *gormChats) ListParticipants(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatParticipant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.ChatParticipant
	if err := r.db.WithContext(ctx).Order("joined_at").Find(&rows, "chat_id = ?", chatID).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.ChatParticipant, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainChatParticipant(&rows[i]))
	}
	return result, nil
}

func (r *gormChats) HasParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormChats) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chats []model.Chat
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ?", userID).
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Chat, 0, len(chats))
	for i := range chats {
		result = append(result, toDomainChat(&chats[i]))
	}
	return result, nil
}

func (r *gormChats) SaveMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg == nil {
		return errors.New("message is nil")
	}
	return r.db.WithContext(ctx).Create(toModelChatMessage(msg)).Error
}

func (r *gormChats) ListMessages(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.ChatMessage
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows, "chat_id = ?", chatID).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.ChatMessage, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainChatMessage(&rows[i]))
	}
	return result, nil
}

func (r *gormChats) DetachMessages(ctx context.Context, eventID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("event_id = ?", eventID).
		Update("event_id", gorm.Expr("NULL")).Error
}

type gormProfiles struct {
	db *gorm.DB
}

func (r *gormProfiles) Create(ctx context.Context, profile *domain.EventProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile == nil {
		return errors.New("profile is nil")
	}
	return r.db.WithContext(ctx).Create(toModelProfile(profile)).Error
}

func (r *gormProfiles) GetByEvent(ctx context.Context, eventID uuid.UUID) (*domain.EventProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var profile model.EventProfile
	err := r.db.WithContext(ctx).First(&profile, "event_id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return toDomainProfile(&profile), nil
}

func (r *gormProfiles) Update(ctx context.Context, profile *domain.EventProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile == nil {
		return errors.New("profile is nil")
	}

	res := r.db.WithContext(ctx).
		Model(&model.EventProfile{}).
		Where("id = ?", profile.ID).
		Select("cover_url").
		Updates(toModelProfile(profile))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *gormProfiles) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.EventProfile{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *gormProfiles) AddParticipant(ctx context.Context, p *domain.ProfileParticipant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil {
		return errors.New("participant is nil")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(toModelProfileParticipant(p)).Error
}

func (r *gormProfiles) RemoveParticipant(ctx context.Context, profileID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&model.ProfileParticipant{}, "profile_id = ? AND user_id = ?", profileID, userID).Error
}

func (r *gormProfiles) ListParticipants(ctx context.Context, profileID uuid.UUID) ([]*domain.ProfileParticipant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.ProfileParticipant
	if err := r.db.WithContext(ctx).Order("added_at").Find(&rows, "profile_id = ?", profileID).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.ProfileParticipant, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainProfileParticipant(&rows[i]))
	}
	return result, nil
}

func (r *gormProfiles) CountParticipants(ctx context.Context, profileID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProfileParticipant{}).
		Where("profile_id = ?", profileID).
		Count(&count).Error
	return int(count), err
}

func (r *gormProfiles) HasParticipant(ctx context.Context, profileID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProfileParticipant{}).
		Where("profile_id = ? AND user_id = ?", profileID, userID).
		Count(&count).Error
	return count > 0, err
}

type gormNotifications struct {
	db *gorm.DB
}

func (r *gormNotifications) Create(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n == nil {
		return errors.New("notification is nil")
	}
	return r.db.WithContext(ctx).Create(toModelNotification(n)).Error
}

func (r *gormNotifications) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Notification
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Notification, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainNotification(&rows[i]))
	}
	return result, nil
}

type gormOccurrences struct {
	db *gorm.DB
}

func (r *gormOccurrences) CreateBatch(ctx context.Context, parts []*domain.OccurrenceParticipation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}

	rows := make([]*model.OccurrenceParticipation, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, toModelOccurrence(p))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *gormOccurrences) ListByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) ([]*domain.OccurrenceParticipation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.OccurrenceParticipation
	err := r.db.WithContext(ctx).
		Order("date").
		Find(&rows, "event_id = ? AND user_id = ?", eventID, userID).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.OccurrenceParticipation, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainOccurrence(&rows[i]))
	}
	return result, nil
}

func (r *gormOccurrences) DeleteFrom(ctx context.Context, eventID, userID uuid.UUID, cutoff time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ? AND date >= ?", eventID, userID, cutoff).
		Delete(&model.OccurrenceParticipation{}).Error
}

func (r *gormOccurrences) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&model.OccurrenceParticipation{}, "event_id = ?", eventID).Error
}
