package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/api"
	"github.com/analisavet/hemogram-server/internal/config"
	"github.com/analisavet/hemogram-server/internal/logging"
	"github.com/analisavet/hemogram-server/internal/reference"
	"github.com/analisavet/hemogram-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := reference.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open reference source")
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close reference source")
		}
	}()

	svc := service.NewHemogramService(provider.Source, service.HemogramServiceConfig{
		DefaultSpecies: cfg.Reference.DefaultSpecies,
		StrictSpecies:  cfg.Reference.StrictSpecies,
	}, logger)

	logger.WithFields(logrus.Fields{
		"host":             cfg.Server.Host,
		"port":             cfg.Server.Port,
		"reference_source": provider.Kind,
	}).Info("Starting hemogram server")

	server := api.NewServer(configManager, svc, provider, logger)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}
