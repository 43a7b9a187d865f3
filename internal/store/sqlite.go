package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	session_id TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore persists records in a single-table sqlite database, one JSON
// document per session.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the artifacts table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database at %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save upserts the record under its session ID.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	if record.SessionID == "" {
		return fmt.Errorf("record has no session ID")
	}
	copied := clone(record)
	copied.UpdatedAt = time.Now().UTC()

	// Overwrites keep the original creation time.
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM artifacts WHERE session_id = ?`, record.SessionID).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if copied.CreatedAt.IsZero() {
			copied.CreatedAt = copied.UpdatedAt
		}
	case err != nil:
		return fmt.Errorf("failed to read existing record from sqlite: %w", err)
	default:
		if parsed, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			copied.CreatedAt = parsed
		}
	}

	payload, err := json.Marshal(copied)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (session_id, record, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			record = excluded.record,
			updated_at = excluded.updated_at`,
		record.SessionID,
		string(payload),
		copied.CreatedAt.Format(time.RFC3339Nano),
		copied.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write record to sqlite: %w", err)
	}
	return nil
}

// Load reads and decodes the record for a session, or returns ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM artifacts WHERE session_id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record from sqlite: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &record, nil
}

// List returns all stored session IDs in lexical order.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM artifacts ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sqlite records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
