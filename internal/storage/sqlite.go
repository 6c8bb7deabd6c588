package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	api_token TEXT UNIQUE,
	name TEXT,
	conversation_history TEXT
);`

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath and ensures the
// users table exists. Connectivity checks are left to Ping.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer is all a single bot process needs; it also keeps
	// the read-then-write in AppendHistory on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Create inserts rec with an empty history. Unique violations are reported
// through the result, not the error.
func (s *SQLiteStore) Create(ctx context.Context, rec UserRecord) (CreateResult, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, api_token, name, conversation_history) VALUES (?, ?, ?, ?)`,
		rec.Email, rec.Token, rec.Name, "")
	if err == nil {
		return Created, nil
	}
	if res, ok := classifyCreate(err); ok {
		slog.Debug("insert rejected by unique constraint", "email", rec.Email, "result", res.String())
		return res, nil
	}
	return 0, fmt.Errorf("insert user: %w", err)
}

// AppendHistory adds message to the history of email. Unknown emails are a
// silent no-op.
func (s *SQLiteStore) AppendHistory(ctx context.Context, email, message string) error {
	var history sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_history FROM users WHERE email = ?`, email).Scan(&history)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Warn("history append for unknown email", "email", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET conversation_history = ? WHERE email = ?`,
		EncodeHistory(history.String, message), email)
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
