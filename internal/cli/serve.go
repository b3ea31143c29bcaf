package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aific/finances-backend/internal/api"
	"github.com/aific/finances-backend/internal/application/service"
	"github.com/aific/finances-backend/internal/infrastructure/config"
	"github.com/aific/finances-backend/internal/infrastructure/storage"
	"github.com/aific/finances-backend/internal/observability"
)

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := observability.NewLogger(loggingCfg)

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Build the document service and load the persisted document
	svc := service.NewDocumentService(store, logger, cfg.Detection.MatchingWindowDays)
	if err := svc.Load(); err != nil {
		return err
	}

	// Create API config
	apiCfg := api.Config{
		Port:           flags.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
	}
	if len(apiCfg.AllowedOrigins) == 0 {
		apiCfg.AllowedOrigins = api.DefaultConfig().AllowedOrigins
	}

	// Create and start server
	server := api.NewServer(apiCfg, svc, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done

	// Persist the document on the way out
	if err := svc.Save(); err != nil {
		logger.Error("save on shutdown failed", slog.Any("error", err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
