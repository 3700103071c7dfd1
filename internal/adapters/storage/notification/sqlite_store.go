package notification

import (
	"context"
	"database/sql"
	"fmt"

	"formations/internal/adapters/storage"
	domain "formations/internal/domain/notification"
)

const notificationColumns = "id, message, course_id, read, created_at, read_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new notification store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a notification.
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Notification, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+notificationColumns+" FROM admin_notification WHERE id = ?", id)
	n, err := scanNotification(row.Scan)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("notification %s: %w", id, storage.NotFound(err))
	}
	return n, nil
}

// Save inserts or updates a notification.
// PRE: n has been validated
func (s *SQLiteStore) Save(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_notification (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET message=excluded.message, read=excluded.read, read_at=excluded.read_at`,
		n.ID, n.Message, storage.NullString(n.CourseID), storage.BoolToInt(n.Read),
		storage.FormatTime(n.CreatedAt), storage.NullTime(n.ReadAt))
	return err
}

// List returns notifications, unread first, newest first within each group.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Notification, error) {
	query := "SELECT " + notificationColumns + " FROM admin_notification"
	var args []any
	if filter.UnreadOnly {
		query += " WHERE read = 0"
	}
	query += " ORDER BY read ASC, created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns the number of unread notifications.
func (s *SQLiteStore) CountUnread(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_notification WHERE read = 0").Scan(&n)
	return n, err
}

func scanNotification(scan func(dest ...any) error) (domain.Notification, error) {
	var n domain.Notification
	var courseID, readAt sql.NullString
	var read int
	var createdAt string
	if err := scan(&n.ID, &n.Message, &courseID, &read, &createdAt, &readAt); err != nil {
		return domain.Notification{}, err
	}
	n.CourseID = courseID.String
	n.Read = read != 0
	n.CreatedAt = storage.ParseTime(createdAt, "admin_notification", "created_at", n.ID)
	n.ReadAt = storage.ParseNullTime(readAt, "admin_notification", "read_at", n.ID)
	return n, nil
}
