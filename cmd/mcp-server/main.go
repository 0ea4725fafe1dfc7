package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/analisavet/hemogram-server/internal/config"
	"github.com/analisavet/hemogram-server/internal/logging"
	"github.com/analisavet/hemogram-server/internal/mcp"
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
	// stdout carries the protocol on the stdio transport
	if cfg.MCP.TransportType == "" || cfg.MCP.TransportType == "stdio" {
		cfg.Logging.Output = "stderr"
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := reference.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open reference source")
	}
	defer provider.Close()

	svc := service.NewHemogramService(provider.Source, service.HemogramServiceConfig{
		DefaultSpecies: cfg.Reference.DefaultSpecies,
		StrictSpecies:  cfg.Reference.StrictSpecies,
	}, logger)

	mcpServer, err := mcp.NewServer(configManager, svc, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	if err := mcpServer.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("Hemogram MCP server stopped")
}
