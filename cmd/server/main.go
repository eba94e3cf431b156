package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/rishicodesforfun/menta-question/internal/api"
	"github.com/rishicodesforfun/menta-question/internal/config"
	"github.com/rishicodesforfun/menta-question/internal/logging"
	"github.com/rishicodesforfun/menta-question/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}
	if file := configManager.ConfigFileUsed(); file != "" {
		logger.WithField("config_file", file).Info("Configuration loaded")
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	screening, store, err := service.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize screening service")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Error("Failed to close session store")
		}
	}()

	logger.WithFields(logrus.Fields{
		"host":            cfg.Server.Host,
		"port":            cfg.Server.Port,
		"session_backend": cfg.Session.Backend,
	}).Info("Starting menta-question API server")

	server := api.NewServer(configManager, screening, logger)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}
