// Package session stores in-flight answer vectors for multi-step
// questionnaires. Sessions carry only answers and review flags; results are
// recomputed from the answers on demand and never persisted.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Backend names accepted by session.backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var (
	// ErrNotFound is returned for unknown and expired sessions.
	ErrNotFound = fmt.Errorf("session %w", domain.ErrNotFound)
	// ErrExists is returned when Create collides with a live session.
	ErrExists = errors.New("session already exists")
	// ErrUnavailable is returned while a remote store's breaker is open.
	ErrUnavailable = errors.New("session store unavailable")
)

// Session is one respondent's progress through one instrument. IDs are
// pseudonymous and the struct holds no personal data. A nil answer has not
// been given yet.
type Session struct {
	ID                  string    `json:"id"`
	InstrumentID        string    `json:"instrument_id"`
	Answers             []*int    `json:"answers"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	Completed           bool      `json:"completed"`
	RequiresHumanReview bool      `json:"requires_human_review"`
}

// Store persists sessions. Implementations must be safe for concurrent use
// and must return copies, never shared memory.
type Store interface {
	// Create stores a new session. It fails with ErrExists on an id collision.
	Create(ctx context.Context, s *Session) error

	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Put replaces an existing session and refreshes its TTL. It fails with
	// ErrNotFound when the session is gone.
	Put(ctx context.Context, s *Session) error

	// Delete removes the session or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}

// NewID returns a fresh pseudonymous session id.
func NewID() string {
	return "s_" + uuid.NewString()
}

// New creates an empty session for an instrument with the given number of
// questions.
func New(instrumentID string, questions int) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           NewID(),
		InstrumentID: instrumentID,
		Answers:      make([]*int, questions),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Answered counts the answers given so far.
func (s *Session) Answered() int {
	n := 0
	for _, a := range s.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

// Vector returns the answers as a plain vector once every question has been
// answered.
func (s *Session) Vector() ([]int, bool) {
	out := make([]int, len(s.Answers))
	for i, a := range s.Answers {
		if a == nil {
			return nil, false
		}
		out[i] = *a
	}
	return out, true
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = make([]*int, len(s.Answers))
	for i, a := range s.Answers {
		if a != nil {
			v := *a
			c.Answers[i] = &v
		}
	}
	return &c
}
