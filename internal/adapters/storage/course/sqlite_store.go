package course

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"formations/internal/adapters/storage"
	domain "formations/internal/domain/course"
	"formations/internal/domain/moderation"
)

const courseColumns = `id, title, subtitle, description, domain, modality, prices, funding, keywords,
		populations, status, affiche_order, trainer_id, organization_id, photo_url, created_at, updated_at`

const publishedOrder = " ORDER BY affiche_order IS NULL, affiche_order ASC, created_at DESC, id ASC"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new course store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a course and its sessions.
// PRE: id is non-empty
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Course, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+courseColumns+" FROM course WHERE id = ?", id)
	c, err := scanCourse(row.Scan)
	if err != nil {
		return domain.Course{}, fmt.Errorf("course %s: %w", id, storage.NotFound(err))
	}
	courses := []domain.Course{c}
	if err := s.attachSessions(ctx, courses); err != nil {
		return domain.Course{}, err
	}
	return courses[0], nil
}

// Save upserts the course row and replaces its sessions in one transaction.
// PRE: entity has been validated
// POST: Course and sessions persisted; a failure leaves the stored course unchanged
func (s *SQLiteStore) Save(ctx context.Context, c domain.Course) error {
	prices, err := storage.EncodeJSON(c.Prices)
	if err != nil {
		return fmt.Errorf("encode prices: %w", err)
	}
	funding, _ := storage.EncodeJSON(c.Funding)
	keywords, _ := storage.EncodeJSON(c.Keywords)
	populations, _ := storage.EncodeJSON(c.Populations)

	var affiche any
	if c.AfficheOrder != nil {
		affiche = *c.AfficheOrder
	}

	return storage.InTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO course (`+courseColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   title=excluded.title, subtitle=excluded.subtitle, description=excluded.description,
			   domain=excluded.domain, modality=excluded.modality, prices=excluded.prices,
			   funding=excluded.funding, keywords=excluded.keywords, populations=excluded.populations,
			   status=excluded.status, affiche_order=excluded.affiche_order, trainer_id=excluded.trainer_id,
			   organization_id=excluded.organization_id, photo_url=excluded.photo_url,
			   updated_at=excluded.updated_at`,
			c.ID, c.Title, c.Subtitle, c.Description, c.Domain, c.Modality,
			prices, funding, keywords, populations, string(c.Status), affiche,
			storage.NullString(c.TrainerID), storage.NullString(c.OrganizationID), c.PhotoURL,
			storage.FormatTime(c.CreatedAt), storage.NullTime(c.UpdatedAt))
		if err != nil {
			return fmt.Errorf("save course: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM course_session WHERE course_id = ?", c.ID); err != nil {
			return fmt.Errorf("clear sessions: %w", err)
		}
		for i, sess := range c.Sessions {
			id := sess.ID
			if id == "" {
				id = c.ID + "-" + strconv.Itoa(i)
			}
			parts, err := storage.EncodeJSON(sess.Parts)
			if err != nil {
				return fmt.Errorf("encode session parts: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO course_session (id, course_id, position, parts) VALUES (?, ?, ?, ?)",
				id, c.ID, i, parts); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a course. Sessions, reviews and favorites cascade.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM course WHERE id = ?", id)
	return err
}

// List returns courses matching the filter, newest first, sessions attached.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Course, error) {
	where, args := filter.where()
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	return s.query(ctx, "SELECT "+courseColumns+" FROM course"+where+" ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?", args...)
}

// Count returns the number of courses matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filter.where()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM course"+where, args...).Scan(&n)
	return n, err
}

// ListByOwner returns all courses owned by ownerID with no page bound.
func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Course, error) {
	where, args := ListFilter{OwnerID: ownerID}.where()
	return s.query(ctx, "SELECT "+courseColumns+" FROM course"+where+" ORDER BY created_at DESC, id ASC", args...)
}

// ListPublished returns the published catalog in relevance input order.
func (s *SQLiteStore) ListPublished(ctx context.Context) ([]domain.Course, error) {
	return s.query(ctx, "SELECT "+courseColumns+" FROM course WHERE status = ?"+publishedOrder, string(moderation.StatusPublished))
}

func (f ListFilter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.OwnerID != "" {
		clauses = append(clauses, "(trainer_id = ? OR organization_id = ?)")
		args = append(args, f.OwnerID, f.OwnerID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []domain.Course
	for rows.Next() {
		c, err := scanCourse(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := s.attachSessions(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachSessions loads the sessions of every course in one query.
func (s *SQLiteStore) attachSessions(ctx context.Context, courses []domain.Course) error {
	if len(courses) == 0 {
		return nil
	}
	index := make(map[string]int, len(courses))
	args := make([]any, 0, len(courses))
	for i, c := range courses {
		index[c.ID] = i
		args = append(args, c.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, course_id, position, parts FROM course_session WHERE course_id IN ("+placeholders+") ORDER BY course_id, position",
		args...)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sess domain.Session
		var parts string
		if err := rows.Scan(&sess.ID, &sess.CourseID, &sess.Position, &parts); err != nil {
			return err
		}
		storage.DecodeJSON(parts, "course_session", "parts", sess.ID, &sess.Parts)
		i := index[sess.CourseID]
		courses[i].Sessions = append(courses[i].Sessions, sess)
	}
	return rows.Err()
}

func scanCourse(scan func(dest ...any) error) (domain.Course, error) {
	var c domain.Course
	var prices, funding, keywords, populations, status, createdAt string
	var affiche sql.NullInt64
	var trainerID, orgID, updatedAt sql.NullString
	err := scan(&c.ID, &c.Title, &c.Subtitle, &c.Description, &c.Domain, &c.Modality,
		&prices, &funding, &keywords, &populations, &status, &affiche,
		&trainerID, &orgID, &c.PhotoURL, &createdAt, &updatedAt)
	if err != nil {
		return domain.Course{}, err
	}
	storage.DecodeJSON(prices, "course", "prices", c.ID, &c.Prices)
	storage.DecodeJSON(funding, "course", "funding", c.ID, &c.Funding)
	storage.DecodeJSON(keywords, "course", "keywords", c.ID, &c.Keywords)
	storage.DecodeJSON(populations, "course", "populations", c.ID, &c.Populations)
	c.Status = moderation.Status(status)
	if affiche.Valid {
		v := int(affiche.Int64)
		c.AfficheOrder = &v
	}
	c.TrainerID = trainerID.String
	c.OrganizationID = orgID.String
	c.CreatedAt = storage.ParseTime(createdAt, "course", "created_at", c.ID)
	c.UpdatedAt = storage.ParseNullTime(updatedAt, "course", "updated_at", c.ID)
	return c, nil
}
