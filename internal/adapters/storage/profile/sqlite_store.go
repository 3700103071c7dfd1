package profile

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"formations/internal/adapters/storage"
	domain "formations/internal/domain/profile"
)

const profileColumns = "id, kind, name, bio, photo_url, gender, account_id, organization_id, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new profile store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a profile by ID.
// PRE: id is non-empty
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profile WHERE id = ?", id)
	p, err := scanProfile(row.Scan)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", id, storage.NotFound(err))
	}
	return p, nil
}

// GetByAccount returns the profile of kind linked to accountID.
// PRE: accountID is non-empty
// POST: Returns the linked profile or storage.ErrNotFound
func (s *SQLiteStore) GetByAccount(ctx context.Context, kind domain.Kind, accountID string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profile WHERE kind = ? AND account_id = ?", string(kind), accountID)
	p, err := scanProfile(row.Scan)
	if err != nil {
		return domain.Profile{}, storage.NotFound(err)
	}
	return p, nil
}

// Save inserts or updates a profile.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, p domain.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   kind=excluded.kind, name=excluded.name, bio=excluded.bio, photo_url=excluded.photo_url,
		   gender=excluded.gender, account_id=excluded.account_id, organization_id=excluded.organization_id`,
		p.ID, string(p.Kind), p.Name, p.Bio, p.PhotoURL, p.Gender,
		storage.NullString(p.AccountID), storage.NullString(p.OrganizationID),
		storage.FormatTime(p.CreatedAt))
	return err
}

// Delete removes a profile. Courses it owned lose that owner.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM profile WHERE id = ?", id)
	return err
}

// List returns profiles ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching profiles
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profile WHERE 1=1"
	var args []any
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += " ORDER BY name COLLATE NOCASE LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)
	return s.query(ctx, query, args...)
}

// ListUnlinked returns every orphan of kind, oldest first.
func (s *SQLiteStore) ListUnlinked(ctx context.Context, kind domain.Kind) ([]domain.Profile, error) {
	return s.query(ctx,
		"SELECT "+profileColumns+" FROM profile WHERE kind = ? AND account_id IS NULL ORDER BY created_at ASC, id ASC",
		string(kind))
}

// ListUnlinkedOwners returns orphans of kind owning at least one course.
// PRE: kind is valid
// POST: Returns orphans with their course counts, by name
func (s *SQLiteStore) ListUnlinkedOwners(ctx context.Context, kind domain.Kind) ([]Orphan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.kind, p.name, p.bio, p.photo_url, p.gender, p.account_id, p.organization_id, p.created_at,
		        COUNT(c.id)
		 FROM profile p
		 JOIN course c ON c.trainer_id = p.id OR c.organization_id = p.id
		 WHERE p.kind = ? AND p.account_id IS NULL
		 GROUP BY p.id
		 HAVING COUNT(c.id) >= 1
		 ORDER BY p.name COLLATE NOCASE`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Orphan
	for rows.Next() {
		var o Orphan
		var p domain.Profile
		var kindRaw, createdAt string
		var accountID, orgID sql.NullString
		if err := rows.Scan(&p.ID, &kindRaw, &p.Name, &p.Bio, &p.PhotoURL, &p.Gender, &accountID, &orgID, &createdAt, &o.CourseCount); err != nil {
			return nil, err
		}
		fillProfile(&p, kindRaw, accountID, orgID, createdAt)
		o.Profile = p
		out = append(out, o)
	}
	return out, rows.Err()
}

// MergeInto reassigns every course, event and trainer affiliation owned by
// orphanID to targetID, then deletes the orphan. All or nothing.
// PRE: orphanID is unlinked; both profiles share a kind
// POST: Returns the number of courses moved; the orphan no longer exists
func (s *SQLiteStore) MergeInto(ctx context.Context, orphanID, targetID string) (int, error) {
	var moved int
	err := storage.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var orphanKind, targetKind string
		var orphanAccount sql.NullString
		err := tx.QueryRowContext(ctx, "SELECT kind, account_id FROM profile WHERE id = ?", orphanID).Scan(&orphanKind, &orphanAccount)
		if err != nil {
			return fmt.Errorf("orphan %s: %w", orphanID, storage.NotFound(err))
		}
		if orphanAccount.Valid && orphanAccount.String != "" {
			return domain.ErrNotOrphan
		}
		if err := tx.QueryRowContext(ctx, "SELECT kind FROM profile WHERE id = ?", targetID).Scan(&targetKind); err != nil {
			return fmt.Errorf("merge target %s: %w", targetID, storage.NotFound(err))
		}
		if orphanKind != targetKind {
			return domain.ErrKindMismatch
		}

		column := "trainer_id"
		if domain.Kind(orphanKind) == domain.KindOrganization {
			column = "organization_id"
		}
		res, err := tx.ExecContext(ctx, "UPDATE course SET "+column+" = ? WHERE "+column+" = ?", targetID, orphanID)
		if err != nil {
			return fmt.Errorf("reassign courses: %w", err)
		}
		n, _ := res.RowsAffected()
		moved = int(n)

		if domain.Kind(orphanKind) == domain.KindOrganization {
			if _, err := tx.ExecContext(ctx, "UPDATE event SET organization_id = ? WHERE organization_id = ?", targetID, orphanID); err != nil {
				return fmt.Errorf("reassign events: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "UPDATE profile SET organization_id = ? WHERE organization_id = ?", targetID, orphanID); err != nil {
				return fmt.Errorf("reassign affiliations: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM profile WHERE id = ?", orphanID); err != nil {
			return fmt.Errorf("delete orphan: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.Debug("profile_merged", "orphan_id", orphanID, "target_id", targetID, "courses", moved)
	return moved, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Profile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var p domain.Profile
	var kindRaw, createdAt string
	var accountID, orgID sql.NullString
	if err := scan(&p.ID, &kindRaw, &p.Name, &p.Bio, &p.PhotoURL, &p.Gender, &accountID, &orgID, &createdAt); err != nil {
		return domain.Profile{}, err
	}
	fillProfile(&p, kindRaw, accountID, orgID, createdAt)
	return p, nil
}

func fillProfile(p *domain.Profile, kindRaw string, accountID, orgID sql.NullString, createdAt string) {
	p.Kind = domain.Kind(kindRaw)
	p.AccountID = accountID.String
	p.OrganizationID = orgID.String
	p.CreatedAt = storage.ParseTime(createdAt, "profile", "created_at", p.ID)
}
