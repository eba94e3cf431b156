package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rishicodesforfun/menta-question/internal/catalog"
	"github.com/rishicodesforfun/menta-question/internal/domain"
	"github.com/rishicodesforfun/menta-question/internal/engine"
	"github.com/rishicodesforfun/menta-question/internal/session"
)

// NewFromConfig loads the catalog, compiles the registry and opens the
// session store described by cfg. Catalog errors are fatal: no instrument
// is served from a catalog that failed validation. The caller closes the
// returned store.
func NewFromConfig(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*ScreeningService, session.Store, error) {
	registry, err := NewRegistry(cfg.Catalog, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := session.Open(ctx, cfg.Session, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return NewScreeningService(logger, registry, store), store, nil
}

// NewRegistry loads and compiles the configured catalog.
func NewRegistry(cfg domain.CatalogConfig, logger *logrus.Logger) (*engine.Registry, error) {
	instruments, err := catalog.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load instrument catalog: %w", err)
	}
	registry, err := engine.NewRegistry(instruments...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile instrument catalog: %w", err)
	}

	source := cfg.Dir
	if source == "" {
		source = "embedded"
	}
	logger.WithFields(logrus.Fields{
		"source":      source,
		"instruments": len(registry.IDs()),
	}).Info("Instrument catalog loaded")
	return registry, nil
}
