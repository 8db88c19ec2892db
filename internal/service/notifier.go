package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/realtime"
	"github.com/gatherly/backend/internal/repository"
	"github.com/gatherly/backend/lib/logger/sl"
)

// Notifier persists notification records and pushes them to the user's
// realtime room. Every path is fire-and-forget: a failure is logged and
// swallowed so the mutation that triggered it never appears to have failed.
type Notifier struct {
	store repository.Store
	hub   Broadcaster
	log   *slog.Logger
}

func NewNotifier(store repository.Store, hub Broadcaster, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{store: store, hub: hub, log: log}
}

func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, typ string, payload map[string]any) {
	const op = "service.notifier.notify"

	notification := domain.NewNotification(userID, typ, payload)
	if err := n.store.Notifications().Create(ctx, notification); err != nil {
		n.log.Error("failed to record notification",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			slog.String("type", typ),
			sl.Err(err),
		)
		return
	}

	n.hub.Emit(realtime.UserRoom(userID), realtime.NotificationNew, map[string]any{
		"id":        notification.ID.String(),
		"type":      notification.Type,
		"payload":   notification.Payload,
		"createdAt": notification.CreatedAt,
	})
}

// NotifyMany fans the same notification out to several users.
func (n *Notifier) NotifyMany(ctx context.Context, userIDs []uuid.UUID, typ string, payload map[string]any) {
	for _, id := range userIDs {
		n.Notify(ctx, id, typ, payload)
	}
}

func (n *Notifier) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	return n.store.Notifications().ListByUser(ctx, userID)
}
