package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// TimeLayout is the on-disk format of every timestamp column.
const TimeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// ErrNotFound is returned by stores when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// NotFound maps sql.ErrNoRows to ErrNotFound and passes other errors through.
func NotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// FormatTime renders t in TimeLayout, UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp, logging a warning on failure.
func ParseTime(raw, table, field, id string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimeLayout, raw)
	if err != nil {
		slog.Warn("store: failed to parse time", "table", table, "field", field, "id", id, "raw", raw, "error", err)
	}
	return t
}

// ParseNullTime parses a nullable timestamp column.
func ParseNullTime(ns sql.NullString, table, field, id string) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	return ParseTime(ns.String, table, field, id)
}

// NullString stores "" as NULL.
func NullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NullTime stores the zero time as NULL.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// BoolToInt maps a bool to SQLite's 0/1.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EncodeJSON marshals a list column. A nil slice is stored as "[]".
func EncodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

// DecodeJSON unmarshals a list column, logging a warning on malformed data.
func DecodeJSON(raw, table, field, id string, v any) {
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		slog.Warn("store: failed to decode json column", "table", table, "field", field, "id", id, "error", err)
	}
}
