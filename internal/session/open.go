package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Open builds the store selected by config.Backend. Remote backends are
// wrapped in a BreakerStore when the breaker is enabled.
func Open(ctx context.Context, config domain.SessionConfig, logger *logrus.Logger) (Store, error) {
	var (
		store  Store
		err    error
		remote bool
	)

	switch config.Backend {
	case "", BackendMemory:
		store = NewMemoryStore(config.MaxEntries, config.TTL)
	case BackendRedis:
		store, err = NewRedisStore(ctx, config.Redis, config.TTL)
		remote = true
	case BackendSQLite:
		store, err = NewSQLiteStore(config.SQLite.Path, config.TTL)
	case BackendPostgres:
		if config.Postgres.MigrateOnStart {
			if err := Migrate(ctx, config.Postgres.URL, logger); err != nil {
				return nil, fmt.Errorf("failed to migrate session store: %w", err)
			}
		}
		store, err = NewPostgresStoreFromConfig(ctx, config.Postgres, config.TTL)
		remote = true
	default:
		return nil, fmt.Errorf("unknown session backend %q", config.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s session store: %w", config.Backend, err)
	}

	if remote && config.Breaker.Enabled {
		store = NewBreakerStore(store, config.Breaker, logger)
	}

	logger.WithFields(logrus.Fields{
		"backend": backendName(config.Backend),
		"ttl":     config.TTL.String(),
		"breaker": remote && config.Breaker.Enabled,
	}).Info("Session store ready")

	return store, nil
}

func backendName(b string) string {
	if b == "" {
		return BackendMemory
	}
	return b
}
