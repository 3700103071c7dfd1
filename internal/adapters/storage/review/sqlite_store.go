package review

import (
	"context"
	"database/sql"

	"formations/internal/adapters/storage"
	domain "formations/internal/domain/review"
)

const reviewColumns = "id, course_id, account_id, rating, comment, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new review store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Upsert inserts or updates the account's review of the course.
// PRE: r has been validated
// POST: Exactly one row exists for (r.AccountID, r.CourseID); the stored review is returned
func (s *SQLiteStore) Upsert(ctx context.Context, r domain.Review) (domain.Review, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_id, course_id) DO UPDATE SET
		   rating=excluded.rating, comment=excluded.comment, updated_at=excluded.updated_at`,
		r.ID, r.CourseID, r.AccountID, r.Rating, r.Comment,
		storage.FormatTime(r.CreatedAt), storage.NullTime(r.UpdatedAt))
	if err != nil {
		return domain.Review{}, err
	}
	return s.GetByAccountAndCourse(ctx, r.AccountID, r.CourseID)
}

// GetByAccountAndCourse returns the account's review of a course, or storage.ErrNotFound.
func (s *SQLiteStore) GetByAccountAndCourse(ctx context.Context, accountID, courseID string) (domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM review WHERE account_id = ? AND course_id = ?", accountID, courseID)
	r, err := scanReview(row.Scan)
	if err != nil {
		return domain.Review{}, storage.NotFound(err)
	}
	return r, nil
}

// ListByCourse returns the reviews of a course, newest first.
func (s *SQLiteStore) ListByCourse(ctx context.Context, courseID string) ([]domain.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM review WHERE course_id = ? ORDER BY created_at DESC", courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		r, err := scanReview(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summaries returns count and mean rating per reviewed course.
func (s *SQLiteStore) Summaries(ctx context.Context) (map[string]domain.Summary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT course_id, COUNT(*), AVG(rating) FROM review GROUP BY course_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Summary)
	for rows.Next() {
		var courseID string
		var sum domain.Summary
		if err := rows.Scan(&courseID, &sum.Count, &sum.Average); err != nil {
			return nil, err
		}
		out[courseID] = sum
	}
	return out, rows.Err()
}

// Delete removes a review.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM review WHERE id = ?", id)
	return err
}

func scanReview(scan func(dest ...any) error) (domain.Review, error) {
	var r domain.Review
	var createdAt string
	var updatedAt sql.NullString
	if err := scan(&r.ID, &r.CourseID, &r.AccountID, &r.Rating, &r.Comment, &createdAt, &updatedAt); err != nil {
		return domain.Review{}, err
	}
	r.CreatedAt = storage.ParseTime(createdAt, "review", "created_at", r.ID)
	r.UpdatedAt = storage.ParseNullTime(updatedAt, "review", "updated_at", r.ID)
	return r, nil
}
