package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxEntries bounds the memory store when no size is configured.
const DefaultMaxEntries = 10000

// MemoryStore keeps sessions in a size-bounded LRU whose entries expire
// after the configured TTL. It is the default backend and does not survive
// restarts.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]
}

// NewMemoryStore creates a memory store. A non-positive size falls back to
// DefaultMaxEntries; a zero TTL disables expiry.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{cache: expirable.NewLRU[string, *Session](maxEntries, nil, ttl)}
}

// Create stores a copy of s.
func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache.Peek(s.ID); ok {
		return ErrExists
	}
	m.cache.Add(s.ID, s.Clone())
	return nil
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Put replaces the stored session and restarts its TTL.
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache.Peek(s.ID); !ok {
		return ErrNotFound
	}
	m.cache.Add(s.ID, s.Clone())
	return nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	if _, ok := m.cache.Peek(id); !ok {
		return ErrNotFound
	}
	m.cache.Remove(id)
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close drops every session.
func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}
