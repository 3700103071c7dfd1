package favorite

import (
	"context"

	"formations/internal/adapters/storage"
	domain "formations/internal/domain/favorite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new favorite store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Add saves a favorite. Adding an existing pair is a no-op.
// PRE: f has been validated
func (s *SQLiteStore) Add(ctx context.Context, f domain.Favorite) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorite (account_id, course_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(account_id, course_id) DO NOTHING`,
		f.AccountID, f.CourseID, storage.FormatTime(f.CreatedAt))
	return err
}

// Remove deletes a favorite. Removing a missing pair is a no-op.
func (s *SQLiteStore) Remove(ctx context.Context, accountID, courseID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM favorite WHERE account_id = ? AND course_id = ?", accountID, courseID)
	return err
}

// Exists reports whether the account saved the course.
func (s *SQLiteStore) Exists(ctx context.Context, accountID, courseID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorite WHERE account_id = ? AND course_id = ?", accountID, courseID).Scan(&n)
	return n > 0, err
}

// ListByAccount returns the account's favorites, most recent first.
func (s *SQLiteStore) ListByAccount(ctx context.Context, accountID string) ([]domain.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT account_id, course_id, created_at FROM favorite WHERE account_id = ? ORDER BY created_at DESC, course_id ASC",
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		var createdAt string
		if err := rows.Scan(&f.AccountID, &f.CourseID, &createdAt); err != nil {
			return nil, err
		}
		f.CreatedAt = storage.ParseTime(createdAt, "favorite", "created_at", f.AccountID+"/"+f.CourseID)
		out = append(out, f)
	}
	return out, rows.Err()
}
