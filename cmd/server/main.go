package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/config"
	"github.com/bonkboard/backend/internal/database"
	"github.com/bonkboard/backend/internal/db"
	"github.com/bonkboard/backend/internal/filestore"
	"github.com/bonkboard/backend/internal/logging"
	"github.com/bonkboard/backend/internal/router"
	scrub "github.com/bonkboard/backend/internal/sentry"
	"github.com/bonkboard/backend/internal/services"
)

func main() {
	// Initialize structured logging (reads LOGGING_LEVEL env var)
	logging.Initialize()

	// Load configuration
	cfg := config.Load()

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:                   cfg.SentryDSN,
			Environment:           cfg.SentryEnvironment,
			BeforeSend:            scrub.ScrubEvent,
			BeforeSendTransaction: scrub.ScrubTransaction,
		})
		if err != nil {
			slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database
	sqlDB, err := database.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(sqlDB); err != nil {
		slog.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize queries and the audio file store
	queries := db.New(sqlDB)
	files, err := filestore.New(cfg.AudioDir)
	if err != nil {
		slog.Error("failed to open audio dir", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load durable state into memory
	state, err := services.LoadState(ctx, queries, files, time.Now())
	if err != nil {
		slog.Error("failed to load state", slog.String("error", err.Error()))
		os.Exit(1)
	}

	hub := broker.NewHub()
	clicks := services.NewClickService(state.Stats, state.Milestones, state.Sounds, hub)

	// Periodic flush and window rollovers
	scheduler := services.NewScheduler(state.Stats, state.Sounds, queries, hub, cfg.FlushInterval)
	scheduler.Start(ctx)

	// Create router
	r := router.New(cfg, state, hub, clicks)

	addr := ":" + cfg.Port
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		slog.Info("starting server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", slog.String("error", err.Error()))
	}

	// Final flush so disk catches up with memory before exit.
	if err := scheduler.Flush(shutdownCtx); err != nil {
		slog.Error("final flush failed", slog.Any("error", err))
	}
}
