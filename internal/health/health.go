// Package health aggregates component checks into the status served by the
// health endpoint.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rishicodesforfun/menta-question/internal/session"
)

type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateWarning   HealthState = "warning"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Name     string        `json:"name"`
	Status   HealthState   `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// HealthStatus is the aggregate of every registered check
type HealthStatus struct {
	Overall    HealthState                `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

type HealthCheck interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

// HealthChecker runs the registered checks on demand.
type HealthChecker struct {
	timeout time.Duration
	logger  *logrus.Logger
	mutex   sync.RWMutex
	checks  []HealthCheck
}

func NewHealthChecker(timeout time.Duration, logger *logrus.Logger) *HealthChecker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{timeout: timeout, logger: logger}
}

func (h *HealthChecker) RegisterCheck(check HealthCheck) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.checks = append(h.checks, check)
}

// Run executes every check in parallel under a shared timeout. The overall
// state is the worst component state.
func (h *HealthChecker) Run(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mutex.RLock()
	checks := append([]HealthCheck(nil), h.checks...)
	h.mutex.RUnlock()

	results := make(chan ComponentHealth, len(checks))
	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(c HealthCheck) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Name = c.Name()
			result.Duration = time.Since(start)
			results <- result
		}(check)
	}
	wg.Wait()
	close(results)

	status := &HealthStatus{
		Overall:    HealthStateHealthy,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]ComponentHealth, len(checks)),
	}
	for result := range results {
		status.Components[result.Name] = result
		switch result.Status {
		case HealthStateUnhealthy:
			status.Overall = HealthStateUnhealthy
		case HealthStateWarning:
			if status.Overall == HealthStateHealthy {
				status.Overall = HealthStateWarning
			}
		}
		if result.Status != HealthStateHealthy {
			h.logger.WithFields(logrus.Fields{
				"component": result.Name,
				"status":    result.Status,
				"error":     result.Error,
			}).Warn("Health check degraded")
		}
	}
	return status
}

// CatalogHealthCheck reports unhealthy when no instrument is loaded.
type CatalogHealthCheck struct {
	count func() int
}

func NewCatalogHealthCheck(count func() int) *CatalogHealthCheck {
	return &CatalogHealthCheck{count: count}
}

func (c *CatalogHealthCheck) Name() string { return "catalog" }

func (c *CatalogHealthCheck) Check(context.Context) ComponentHealth {
	n := c.count()
	if n == 0 {
		return ComponentHealth{Status: HealthStateUnhealthy, Message: "no instruments loaded"}
	}
	return ComponentHealth{Status: HealthStateHealthy, Message: fmt.Sprintf("%d instruments loaded", n)}
}

// probeSessionID is never issued by session.NewID.
const probeSessionID = "health-probe"

// SessionStoreHealthCheck looks up a session that cannot exist; a
// not-found answer proves the backend is reachable. A failing store only
// degrades the service since stateless scoring keeps working.
type SessionStoreHealthCheck struct {
	store session.Store
}

func NewSessionStoreHealthCheck(store session.Store) *SessionStoreHealthCheck {
	return &SessionStoreHealthCheck{store: store}
}

func (c *SessionStoreHealthCheck) Name() string { return "session_store" }

func (c *SessionStoreHealthCheck) Check(ctx context.Context) ComponentHealth {
	_, err := c.store.Get(ctx, probeSessionID)
	if err == nil || errors.Is(err, session.ErrNotFound) {
		return ComponentHealth{Status: HealthStateHealthy, Message: "session store reachable"}
	}
	return ComponentHealth{
		Status:  HealthStateWarning,
		Message: "session store unavailable",
		Error:   err.Error(),
	}
}
