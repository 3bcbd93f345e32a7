package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lenskeep/lenskeep/internal/api"
	"github.com/lenskeep/lenskeep/internal/backup"
	"github.com/lenskeep/lenskeep/internal/config"
	"github.com/lenskeep/lenskeep/internal/database"
	"github.com/lenskeep/lenskeep/internal/database/migrations"
	"github.com/lenskeep/lenskeep/internal/utils"
	"github.com/rs/zerolog"
)

const version = "v1.2.0"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)
	logger.Info().Str("version", version).Msg("Starting lenskeep")

	db := database.NewDatabase(cfg.Store.Path, cfg.Store.LogLevel)
	if err := db.Connect(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close store")
		}
	}()

	if err := database.RunBaselineMigrations(db.DB()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run baseline migrations")
	}

	// One-time import of the old flat-file migration ledger
	if err := database.ImportLegacyLedger(db.DB(), cfg.Backup.LegacyLedgerFile, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to import legacy migration ledger")
	}

	runner := database.NewMigrationRunner(db.DB(), logger)
	for _, migration := range migrations.GetMigrations() {
		runner.Register(migration)
	}
	if err := runner.Run(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	manager := backup.NewManager(db, cfg.Photos.Dir, cfg.Backup.Dir, cfg.Backup.RetentionBytes, logger)

	server, err := api.NewServer(cfg, db, manager, runner, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create HTTP server")
	}

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.HTTP.Port); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErrChan:
		logger.Error().Err(err).Msg("HTTP server error")
	}

	logger.Info().Msg("Starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("Shutdown complete")
}

// setupLogging configures the application logger
func setupLogging(cfg *config.Config) zerolog.Logger {
	logConfig := utils.LoggerConfig{
		Level:  cfg.Server.LogLevel,
		Pretty: cfg.Server.Debug,
	}
	if cfg.Server.Debug {
		logConfig.CallerInfo = true
	}
	return utils.NewLogger(logConfig)
}
