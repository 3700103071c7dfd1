package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

// migrations is the ordered schema history. Never edit a released step; append a new one.
var migrations = []migration{
	{1, "baseline schema", migrateBaseline},
	{2, "catalog indexes", migrateCatalogIndexes},
}

// LatestSchemaVersion returns the version reached after all migrations.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// OpenDSN returns the SQLite DSN used by the server for a database file.
func OpenDSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
}

// SchemaVersion returns the applied schema version, 0 for an untracked database.
// PRE: db is a valid database connection
// POST: Returns the highest applied version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid database connection
// POST: Schema is at LatestSchemaVersion; foreign keys enforced
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", m.version, err)
		}
		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version, description) VALUES (?, ?)", m.version, m.description); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", m.version, err)
		}
		slog.Info("schema_migrated", "version", m.version, "description", m.description, "db", dbPath)
	}
	return nil
}

func migrateBaseline(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS profile (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		account_id TEXT REFERENCES account(id) ON DELETE SET NULL,
		organization_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS course (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		subtitle TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		domain TEXT NOT NULL,
		modality TEXT NOT NULL DEFAULT '',
		prices TEXT NOT NULL DEFAULT '[]',
		funding TEXT NOT NULL DEFAULT '[]',
		keywords TEXT NOT NULL DEFAULT '[]',
		populations TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'pending',
		affiche_order INTEGER,
		trainer_id TEXT REFERENCES profile(id) ON DELETE SET NULL,
		organization_id TEXT REFERENCES profile(id) ON DELETE SET NULL,
		photo_url TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS course_session (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL REFERENCES course(id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		parts TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS review (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL REFERENCES course(id) ON DELETE CASCADE,
		account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT,
		UNIQUE (account_id, course_id)
	);

	CREATE TABLE IF NOT EXISTS favorite (
		account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
		course_id TEXT NOT NULL REFERENCES course(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (account_id, course_id)
	);

	CREATE TABLE IF NOT EXISTS admin_notification (
		id TEXT PRIMARY KEY,
		message TEXT NOT NULL,
		course_id TEXT,
		read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		read_at TEXT
	);

	CREATE TABLE IF NOT EXISTS event (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		starts_at TEXT NOT NULL,
		ends_at TEXT,
		location TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		organization_id TEXT REFERENCES profile(id) ON DELETE SET NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := tx.Exec(schema)
	return err
}

func migrateCatalogIndexes(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE INDEX IF NOT EXISTS idx_course_status ON course(status);
	CREATE INDEX IF NOT EXISTS idx_course_trainer ON course(trainer_id);
	CREATE INDEX IF NOT EXISTS idx_course_organization ON course(organization_id);
	CREATE INDEX IF NOT EXISTS idx_course_session_course ON course_session(course_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_profile_kind_account ON profile(kind, account_id) WHERE account_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_review_course ON review(course_id);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);
	`)
	return err
}
