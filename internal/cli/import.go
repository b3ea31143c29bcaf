package cli

import (
	"fmt"

	"github.com/aific/finances-backend/internal/application/service"
	"github.com/aific/finances-backend/internal/infrastructure/config"
	"github.com/aific/finances-backend/internal/infrastructure/storage"
	"github.com/aific/finances-backend/internal/observability"
)

// RunImport imports a statement file into the persisted document.
func RunImport(cfg *config.Config, flags *ImportFlags) error {
	if flags.File == "" {
		return fmt.Errorf("no statement file given, use -file")
	}

	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := observability.NewLogger(loggingCfg)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := service.NewDocumentService(store, logger, cfg.Detection.MatchingWindowDays)
	if err := svc.Load(); err != nil {
		return err
	}

	result, err := svc.ImportFile(flags.File, flags.Account)
	if err != nil {
		return err
	}

	PrintImportSummary(flags.File, result, svc)

	if flags.DryRun {
		fmt.Println("\nDry run, nothing saved.")
		return nil
	}
	return svc.Save()
}
