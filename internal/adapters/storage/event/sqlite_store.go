package event

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"formations/internal/adapters/storage"
	domain "formations/internal/domain/event"
	"formations/internal/domain/moderation"
)

const eventColumns = "id, kind, title, description, starts_at, ends_at, location, url, organization_id, status, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an event.
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM event WHERE id = ?", id)
	e, err := scanEvent(row.Scan)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s: %w", id, storage.NotFound(err))
	}
	return e, nil
}

// Save inserts or updates an event.
// PRE: e has been validated
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   kind=excluded.kind, title=excluded.title, description=excluded.description,
		   starts_at=excluded.starts_at, ends_at=excluded.ends_at, location=excluded.location,
		   url=excluded.url, organization_id=excluded.organization_id, status=excluded.status,
		   updated_at=excluded.updated_at`,
		e.ID, string(e.Kind), e.Title, e.Description, storage.FormatTime(e.StartsAt), storage.NullTime(e.EndsAt),
		e.Location, e.URL, storage.NullString(e.OrganizationID), string(e.Status),
		storage.FormatTime(e.CreatedAt), storage.NullTime(e.UpdatedAt))
	return err
}

// Delete removes an event.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM event WHERE id = ?", id)
	return err
}

// List returns matching events, soonest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	var conds []string
	var args []any
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.OrganizationID != "" {
		conds = append(conds, "organization_id = ?")
		args = append(args, filter.OrganizationID)
	}

	query := "SELECT " + eventColumns + " FROM event"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY starts_at ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var kind, status, startsAt, createdAt string
	var endsAt, orgID, updatedAt sql.NullString
	if err := scan(&e.ID, &kind, &e.Title, &e.Description, &startsAt, &endsAt, &e.Location, &e.URL,
		&orgID, &status, &createdAt, &updatedAt); err != nil {
		return domain.Event{}, err
	}
	e.Kind = domain.Kind(kind)
	e.Status = moderation.Status(status)
	e.OrganizationID = orgID.String
	e.StartsAt = storage.ParseTime(startsAt, "event", "starts_at", e.ID)
	e.EndsAt = storage.ParseNullTime(endsAt, "event", "ends_at", e.ID)
	e.CreatedAt = storage.ParseTime(createdAt, "event", "created_at", e.ID)
	e.UpdatedAt = storage.ParseNullTime(updatedAt, "event", "updated_at", e.ID)
	return e, nil
}
