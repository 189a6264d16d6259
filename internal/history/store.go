// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists chat messages in SQLite and pages older ones
// back in for batch fetch.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabase  = errors.New("history database error")
	ErrEmptyBody = errors.New("message body is empty")
	ErrNotFound  = errors.New("message not found")
)

// =============================================================================
// RECORD
// =============================================================================

// Record is one stored message.
type Record struct {
	ID       int64
	Sender   string
	Incoming bool
	Kind     string
	Language string
	Body     string
	SentAt   time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store is the message history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrDatabase, err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: pragma: %v", ErrDatabase, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema: %v", ErrDatabase, err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: metadata: %v", ErrDatabase, err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores r and returns its ID. A zero SentAt is stamped now.
func (s *Store) Append(ctx context.Context, r Record) (int64, error) {
	if r.Body == "" {
		return 0, ErrEmptyBody
	}
	if r.SentAt.IsZero() {
		r.SentAt = time.Now()
	}
	if r.Kind == "" {
		r.Kind = "text"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (sender, incoming, kind, language, body, sent_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Sender, boolToInt(r.Incoming), r.Kind, r.Language, r.Body, r.SentAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: append: %v", ErrDatabase, err)
	}
	return res.LastInsertId()
}

// UpdateBody replaces the text of message id.
func (s *Store) UpdateBody(ctx context.Context, id int64, body string) error {
	if body == "" {
		return ErrEmptyBody
	}
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET body = ? WHERE id = ?`, body, id)
	if err != nil {
		return fmt.Errorf("%w: update: %v", ErrDatabase, err)
	}
	return expectOne(res)
}

// Delete removes message id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete: %v", ErrDatabase, err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored messages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrDatabase, err)
	}
	return n, nil
}

// Latest returns up to limit newest messages, oldest first.
func (s *Store) Latest(ctx context.Context, limit int) ([]Record, error) {
	return s.Before(ctx, 0, limit)
}

// Before returns up to limit messages with an ID below cursor, oldest
// first. A cursor of 0 starts from the newest message.
func (s *Store) Before(ctx context.Context, cursor int64, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT id, sender, incoming, kind, language, body, sent_at FROM messages`
	args := []any{}
	if cursor > 0 {
		query += ` WHERE id < ?`
		args = append(args, cursor)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var incoming int
		var sentAt int64
		if err := rows.Scan(&r.ID, &r.Sender, &incoming, &r.Kind, &r.Language, &r.Body, &sentAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrDatabase, err)
		}
		r.Incoming = incoming != 0
		r.SentAt = time.UnixMilli(sentAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrDatabase, err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
