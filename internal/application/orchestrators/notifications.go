package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"formations/internal/domain/notification"
)

// NotificationStoreForRead defines the store interface needed by MarkNotificationRead.
type NotificationStoreForRead interface {
	GetByID(ctx context.Context, id string) (notification.Notification, error)
	Save(ctx context.Context, n notification.Notification) error
}

// MarkNotificationReadInput carries input for the mark read orchestrator.
type MarkNotificationReadInput struct {
	Actor          Actor
	NotificationID string
}

// MarkNotificationReadDeps holds dependencies for MarkNotificationRead.
type MarkNotificationReadDeps struct {
	NotificationStore NotificationStoreForRead
	Now               func() time.Time
}

// ExecuteMarkNotificationRead flags an admin notification as read.
// Marking an already read notification is a no-op.
// PRE: Actor is admin
// POST: Notification is read
func ExecuteMarkNotificationRead(ctx context.Context, input MarkNotificationReadInput, deps MarkNotificationReadDeps) (notification.Notification, error) {
	if !input.Actor.IsAdmin() {
		return notification.Notification{}, ErrForbidden
	}
	n, err := deps.NotificationStore.GetByID(ctx, input.NotificationID)
	if err != nil {
		return notification.Notification{}, err
	}
	if err := n.MarkRead(deps.Now()); err != nil {
		if errors.Is(err, notification.ErrAlreadyRead) {
			return n, nil
		}
		return notification.Notification{}, err
	}
	if err := deps.NotificationStore.Save(ctx, n); err != nil {
		return notification.Notification{}, err
	}
	slog.Info("notification_event", "event", "notification_read", "notification_id", n.ID)
	return n, nil
}
