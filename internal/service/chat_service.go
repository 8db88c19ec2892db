package service

import (
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"context"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/realtime"
	"github.com/gatherly/backend/internal/repository"
	"github.com/gatherly/backend/lib/logger/sl"
)

const maxChatMessageLength = 4000

// ChatService provisions and extends event chats. Provisioning is a pure
// reaction to membership acceptance; a chat, once created, is only ever
// deleted by the event's cascading teardown.
type ChatService struct {
	store repository.Store
	hub   Broadcaster
	log   *slog.Logger
}

func NewChatService(store repository.Store, hub Broadcaster, log *slog.Logger) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{store: store, hub: hub, log: log}
}

// EnsureChatParticipant makes sure the event's chat exists and contains the
// user. It is the single self-healing primitive behind every accept path:
// the first acceptance creates the chat seeded with the organizer, later
// acceptances extend it, and a chat missing for any reason is recreated
// here. Idempotent and safe to call repeatedly.
func (s *ChatService) EnsureChatParticipant(ctx context.Context, event *domain.Event, userID uuid.UUID) error {
	const op = "service.chat.ensureParticipant"
	log := s.log.With(
		slog.String("op", op),
		slog.String("event_id", event.ID.String()),
		slog.String("user_id", userID.String()),
	)

	var chat *domain.Chat
	created := false
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		existing, err := tx.Chats().GetByEvent(ctx, event.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrChatNotFound) {
				return err
			}
			chat = domain.NewChat(event.ID)
			if err := tx.Chats().Create(ctx, chat); err != nil {
				return err
			}
			created = true
			if err := tx.Chats().AddParticipant(ctx, domain.NewChatParticipant(chat.ID, event.OrganizerID)); err != nil {
				return err
			}
		} else {
			chat = existing
		}

		return tx.Chats().AddParticipant(ctx, domain.NewChatParticipant(chat.ID, userID))
	})
	if err != nil {
		return err
	}

	if created {
		log.Info("chat provisioned", slog.String("chat_id", chat.ID.String()))
		s.hub.JoinUser(event.OrganizerID, realtime.ChatRoom(chat.ID))
	}
	s.hub.JoinUser(userID, realtime.ChatRoom(chat.ID))
	s.hub.Emit(realtime.ChatRoom(chat.ID), realtime.ChatsUpdate, map[string]any{
		"chatId":  chat.ID.String(),
		"eventId": event.ID.String(),
	})
	return nil
}

func (s *ChatService) GetByEvent(ctx context.Context, actor domain.Actor, eventID uuid.UUID) (*domain.Chat, []*domain.ChatParticipant, []*domain.ChatMessage, error) {
	chat, err := s.store.Chats().GetByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, nil, err
	}

	ok, err := s.store.Chats().HasParticipant(ctx, chat.ID, actor.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !ok {
		return nil, nil, nil, domain.ErrNotEventParticipant
	}

	participants, err := s.store.Chats().ListParticipants(ctx, chat.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	messages, err := s.store.Chats().ListMessages(ctx, chat.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return chat, participants, messages, nil
}

func (s *ChatService) SendMessage(ctx context.Context, actor domain.Actor, eventID uuid.UUID, content string) (*domain.ChatMessage, error) {
	const op = "service.chat.sendMessage"

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidation("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxChatMessageLength {
		return nil, domain.NewValidation("message is too long")
	}

	chat, err := s.store.Chats().GetByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.Chats().HasParticipant(ctx, chat.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotEventParticipant
	}

	msg := domain.NewChatMessage(chat.ID, eventID, actor.ID, content)
	if err := s.store.Chats().SaveMessage(ctx, msg); err != nil {
		s.log.Error("failed to save chat message", slog.String("op", op), sl.Err(err))
		return nil, err
	}

	s.hub.Emit(realtime.ChatRoom(chat.ID), realtime.MessageNew, map[string]any{
		"id":        msg.ID.String(),
		"chatId":    msg.ChatID.String(),
		"userId":    msg.UserID.String(),
		"content":   msg.Content,
		"createdAt": msg.CreatedAt,
	})
	return msg, nil
}

// Leave removes the user from the chat roster and records a system message
// in their place. The chat itself always survives; only the event teardown
// deletes it.
func (s *ChatService) Leave(ctx context.Context, actor domain.Actor, eventID uuid.UUID) error {
	return s.RemoveFromChat(ctx, eventID, actor.ID)
}

// RemoveFromChat is Leave without the actor framing, shared by the
// membership flows that drop a user from the event.
func (s *ChatService) RemoveFromChat(ctx context.Context, eventID, userID uuid.UUID) error {
	var chat *domain.Chat
	var msg *domain.ChatMessage
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		chat, msg, err = removeFromChatTx(ctx, tx, eventID, userID)
		return err
	})
	if err != nil {
		return err
	}

	s.announceLeft(chat, msg, eventID, userID)
	return nil
}

// removeFromChatTx drops the user from the roster and records the system
// message inside the caller's transaction, so a membership deletion and its
// chat mirror commit or roll back together. The returned chat and message
// feed announceLeft after commit.
func removeFromChatTx(ctx context.Context, tx repository.Store, eventID, userID uuid.UUID) (*domain.Chat, *domain.ChatMessage, error) {
	chat, err := tx.Chats().GetByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	ok, err := tx.Chats().HasParticipant(ctx, chat.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, domain.ErrNotEventParticipant
	}
	if err := tx.Chats().RemoveParticipant(ctx, chat.ID, userID); err != nil {
		return nil, nil, err
	}

	msg := domain.NewSystemMessage(chat.ID, eventID, userID.String()+" left the chat")
	if err := tx.Chats().SaveMessage(ctx, msg); err != nil {
		return nil, nil, err
	}
	return chat, msg, nil
}

// announceLeft fans out a committed roster removal.
func (s *ChatService) announceLeft(chat *domain.Chat, msg *domain.ChatMessage, eventID, userID uuid.UUID) {
	s.hub.LeaveUser(userID, realtime.ChatRoom(chat.ID))
	s.hub.Emit(realtime.ChatRoom(chat.ID), realtime.MessageNew, map[string]any{
		"id":        msg.ID.String(),
		"chatId":    msg.ChatID.String(),
		"system":    true,
		"content":   msg.Content,
		"createdAt": msg.CreatedAt,
	})
	s.hub.Emit(realtime.ChatRoom(chat.ID), realtime.ChatsUpdate, map[string]any{
		"chatId":  chat.ID.String(),
		"eventId": eventID.String(),
	})
}
