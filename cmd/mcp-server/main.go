package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/rishicodesforfun/menta-question/internal/config"
	"github.com/rishicodesforfun/menta-question/internal/logging"
	"github.com/rishicodesforfun/menta-question/internal/mcp"
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

	// stdout carries the protocol, so logs never go there
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Scoring over MCP is stateless; no session store is opened
	registry, err := service.NewRegistry(cfg.Catalog, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load instrument catalog")
	}
	screening := service.NewScreeningService(logger, registry, nil)

	mcpServer, err := mcp.NewServer(cfg.MCP, screening, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	if err := mcpServer.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server stopped with error")
		return
	}

	logger.Info("MCP server stopped")
}
