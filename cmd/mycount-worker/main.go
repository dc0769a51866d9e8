package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/darkha03/MyCount/internal/amqp"
	"github.com/darkha03/MyCount/internal/config"
	"github.com/darkha03/MyCount/internal/export/google"
	applog "github.com/darkha03/MyCount/internal/log"
	"github.com/darkha03/MyCount/internal/storage"
	"github.com/darkha03/MyCount/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	slog.Info("Starting mycount-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		slog.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sheets, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		slog.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	slog.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(store, sheets, cfg.ExportBatchSize)

	// Catch up on anything missed while the worker was down.
	if err := exportWorker.StartupCheck(ctx); err != nil {
		slog.Error("Startup export check failed", "error", err)
		// Keep going; the periodic loop retries pending expenses.
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumePlanActivity(gctx, func(msg *amqp.PlanActivityMessage) error {
			return exportWorker.HandleActivity(gctx, msg)
		})
	})
	g.Go(func() error {
		return exportWorker.Run(gctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker shutdown complete")
}
