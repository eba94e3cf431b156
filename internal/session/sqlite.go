package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// noExpiry stands in for a zero TTL in SQL backends.
const noExpiry = 100 * 365 * 24 * time.Hour

// SQLiteStore keeps sessions in an embedded SQLite file for single-node
// deployments. Timestamps are stored as Unix nanoseconds.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	ttl    time.Duration
}

// NewSQLiteStore creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if ttl <= 0 {
		ttl = noExpiry
	}
	return &SQLiteStore{db: db, dbPath: dbPath, ttl: ttl}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		instrument_id TEXT NOT NULL,
		answers TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		requires_human_review INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func encodeAnswers(answers []*int) ([]byte, error) {
	if answers == nil {
		answers = []*int{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	return data, nil
}

func decodeAnswers(data []byte) ([]*int, error) {
	var answers []*int
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return answers, nil
}

func scanSQLiteSession(s scanner) (*Session, error) {
	var (
		sess               Session
		answers            string
		created, updated   int64
		completed, reviews bool
	)
	err := s.Scan(&sess.ID, &sess.InstrumentID, &answers, &completed, &reviews, &created, &updated)
	if err != nil {
		return nil, err
	}
	if sess.Answers, err = decodeAnswers([]byte(answers)); err != nil {
		return nil, err
	}
	sess.Completed = completed
	sess.RequiresHumanReview = reviews
	sess.CreatedAt = time.Unix(0, created).UTC()
	sess.UpdatedAt = time.Unix(0, updated).UTC()
	return &sess, nil
}

// Create inserts the session. Expired rows are purged first so their ids
// can be reused.
func (s *SQLiteStore) Create(ctx context.Context, sess *Session) error {
	now := time.Now()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UnixNano()); err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	answers, err := encodeAnswers(sess.Answers)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, instrument_id, answers, completed, requires_human_review,
			created_at, updated_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.InstrumentID,
		string(answers),
		sess.Completed,
		sess.RequiresHumanReview,
		sess.CreatedAt.UnixNano(),
		sess.UpdatedAt.UnixNano(),
		now.Add(s.ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

// Get returns a live session.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, instrument_id, answers, completed, requires_human_review,
			created_at, updated_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`, id, time.Now().UnixNano())

	sess, err := scanSQLiteSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return sess, nil
}

// Put updates a live session and extends its expiry.
func (s *SQLiteStore) Put(ctx context.Context, sess *Session) error {
	now := time.Now()
	answers, err := encodeAnswers(sess.Answers)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			answers = ?,
			completed = ?,
			requires_human_review = ?,
			updated_at = ?,
			expires_at = ?
		WHERE id = ? AND expires_at > ?
	`,
		string(answers),
		sess.Completed,
		sess.RequiresHumanReview,
		sess.UpdatedAt.UnixNano(),
		now.Add(s.ttl).UnixNano(),
		sess.ID,
		now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a live session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ? AND expires_at > ?", id, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of live sessions.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE expires_at > ?", time.Now().UnixNano()).Scan(&count)
	return count, err
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
