package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spigell/hh-screener/internal/interview"

	_ "modernc.org/sqlite" // SQLite driver
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	stage      TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	record     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS sessions_email ON sessions (email) WHERE email <> ''`,
	`CREATE INDEX IF NOT EXISTS sessions_phone ON sessions (phone) WHERE phone <> ''`,
}

const sqliteUpsert = `
INSERT INTO sessions (session_id, stage, email, phone, record, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	stage = excluded.stage,
	email = excluded.email,
	phone = excluded.phone,
	record = excluded.record,
	updated_at = excluded.updated_at`

const sqliteFindByContact = `
SELECT session_id FROM sessions
WHERE (? <> '' AND email = ?) OR (? <> '' AND phone = ?)
ORDER BY created_at, session_id`

// SQLite keeps one row per session with the record as a JSON column.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates when missing) a database at path. Use
// ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// A single connection serializes writers and keeps an in-memory database alive.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create sessions schema: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Save(ctx context.Context, rec *interview.Record) error {
	if rec == nil {
		return errors.New("record is required")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", rec.SessionID, err)
	}

	email, phone := contactOf(rec)
	_, err = s.db.ExecContext(ctx, sqliteUpsert,
		rec.SessionID, rec.Stage.Tag(), email, phone, string(payload), rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if err != nil {
		return classify("sqlite save "+rec.SessionID, err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, sessionID string) (*interview.Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM sessions WHERE session_id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, classify("sqlite load "+sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, classify("sqlite load "+sessionID, err)
	}

	var rec interview.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &rec, nil
}

func (s *SQLite) FindByContact(ctx context.Context, email, phone string) ([]string, error) {
	email, phone = normalizeEmail(email), normalizePhone(phone)
	if email == "" && phone == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, sqliteFindByContact, email, email, phone, phone)
	if err != nil {
		return nil, classify("sqlite find", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify("sqlite find", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("sqlite find", err)
	}
	return ids, nil
}

// Count returns the number of stored sessions.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, classify("sqlite count", err)
	}
	return n, nil
}
