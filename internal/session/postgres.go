package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// PostgresStore keeps sessions in PostgreSQL. It expects the schema to
// already exist (created via migrations).
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresStore wraps an open database and verifies the connection.
func NewPostgresStore(ctx context.Context, db *sql.DB, ttl time.Duration) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if ttl <= 0 {
		ttl = noExpiry
	}
	return &PostgresStore{db: db, ttl: ttl}, nil
}

// NewPostgresStoreFromConfig opens a pgx-backed pool from the configured URL.
func NewPostgresStoreFromConfig(ctx context.Context, config domain.PostgresConfig, ttl time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("pgx", config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(orDefault(config.MaxOpenConns, 25))
	db.SetMaxIdleConns(orDefault(config.MaxIdleConns, 5))
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	store, err := NewPostgresStore(ctx, db, ttl)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Create inserts the session after purging expired rows.
func (s *PostgresStore) Create(ctx context.Context, sess *Session) error {
	now := time.Now()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= $1", now); err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	answers, err := encodeAnswers(sess.Answers)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO sessions (
			id, instrument_id, answers, completed, requires_human_review,
			created_at, updated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		sess.ID,
		sess.InstrumentID,
		string(answers),
		sess.Completed,
		sess.RequiresHumanReview,
		sess.CreatedAt,
		sess.UpdatedAt,
		now.Add(s.ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

// Get returns a live session.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, instrument_id, answers, completed, requires_human_review,
			created_at, updated_at
		FROM sessions
		WHERE id = $1 AND expires_at > $2
	`

	var (
		sess    Session
		answers []byte
	)
	err := s.db.QueryRowContext(ctx, query, id, time.Now()).Scan(
		&sess.ID, &sess.InstrumentID, &answers, &sess.Completed,
		&sess.RequiresHumanReview, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess.Answers, err = decodeAnswers(answers); err != nil {
		return nil, err
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	sess.UpdatedAt = sess.UpdatedAt.UTC()
	return &sess, nil
}

// Put updates a live session and extends its expiry.
func (s *PostgresStore) Put(ctx context.Context, sess *Session) error {
	now := time.Now()
	answers, err := encodeAnswers(sess.Answers)
	if err != nil {
		return err
	}
	query := `
		UPDATE sessions SET
			answers = $1,
			completed = $2,
			requires_human_review = $3,
			updated_at = $4,
			expires_at = $5
		WHERE id = $6 AND expires_at > $7
	`
	result, err := s.db.ExecContext(ctx, query,
		string(answers),
		sess.Completed,
		sess.RequiresHumanReview,
		sess.UpdatedAt,
		now.Add(s.ttl),
		sess.ID,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
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
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1 AND expires_at > $2", id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
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

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
