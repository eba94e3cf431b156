package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// BreakerStore guards a remote store with a circuit breaker. While the
// breaker is open every call fails fast with ErrUnavailable. Not-found and
// collision results are answers, not failures, and never trip it.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps next.
func NewBreakerStore(next Store, config domain.BreakerConfig, logger *logrus.Logger) *BreakerStore {
	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        "session-store",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker changed state")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists)
		},
	}
	if settings.Timeout == 0 {
		settings.Timeout = 30 * time.Second
	}
	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerStore) exec(fn func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, err
}

// Create implements Store.
func (b *BreakerStore) Create(ctx context.Context, s *Session) error {
	_, err := b.exec(func() (interface{}, error) {
		return nil, b.next.Create(ctx, s)
	})
	return err
}

// Get implements Store.
func (b *BreakerStore) Get(ctx context.Context, id string) (*Session, error) {
	res, err := b.exec(func() (interface{}, error) {
		return b.next.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Session), nil
}

// Put implements Store.
func (b *BreakerStore) Put(ctx context.Context, s *Session) error {
	_, err := b.exec(func() (interface{}, error) {
		return nil, b.next.Put(ctx, s)
	})
	return err
}

// Delete implements Store.
func (b *BreakerStore) Delete(ctx context.Context, id string) error {
	_, err := b.exec(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, id)
	})
	return err
}

// State reports the breaker state for health checks.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

// Close closes the wrapped store.
func (b *BreakerStore) Close() error {
	return b.next.Close()
}
