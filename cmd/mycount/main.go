package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/darkha03/MyCount/internal/amqp"
	"github.com/darkha03/MyCount/internal/config"
	apphttp "github.com/darkha03/MyCount/internal/http"
	applog "github.com/darkha03/MyCount/internal/log"
	"github.com/darkha03/MyCount/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// AMQP is optional: without a broker the server runs standalone and
	// the export worker simply never hears about new expenses.
	var publisher apphttp.ActivityPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to initialize AMQP client", "error", err, "url", cfg.AMQPURL)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		slog.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		slog.Info("AMQP disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, publisher)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("Starting mycount server", "port", cfg.Port, "db_path", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Server stopped gracefully")
}
