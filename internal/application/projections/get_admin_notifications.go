package projections

import (
	"context"

	notificationStore "formations/internal/adapters/storage/notification"
	"formations/internal/application/listutil"
	"formations/internal/domain/notification"
)

// AdminNotificationsQuery carries query parameters.
type AdminNotificationsQuery struct {
	UnreadOnly bool
	Page       listutil.PageParams
}

// AdminNotifications carries the query result.
type AdminNotifications struct {
	Items  []notification.Notification
	Unread int
}

// AdminNotificationsDeps holds dependencies for QueryAdminNotifications.
type AdminNotificationsDeps struct {
	NotificationStore NotificationStore
}

// QueryAdminNotifications lists admin notifications, unread first, then newest first.
func QueryAdminNotifications(ctx context.Context, query AdminNotificationsQuery, deps AdminNotificationsDeps) (AdminNotifications, error) {
	unread, err := deps.NotificationStore.CountUnread(ctx)
	if err != nil {
		return AdminNotifications{}, err
	}
	page := query.Page.Normalize()
	items, err := deps.NotificationStore.List(ctx, notificationStore.ListFilter{
		UnreadOnly: query.UnreadOnly,
		Limit:      page.PerPage,
		Offset:     page.Offset(),
	})
	if err != nil {
		return AdminNotifications{}, err
	}
	return AdminNotifications{Items: items, Unread: unread}, nil
}
