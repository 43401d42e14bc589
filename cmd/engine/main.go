package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chihung93/kotlinconf-app/internal/api"
	"github.com/chihung93/kotlinconf-app/internal/config"
	"github.com/chihung93/kotlinconf-app/internal/engine"
	"github.com/chihung93/kotlinconf-app/internal/logging"
	"github.com/chihung93/kotlinconf-app/internal/notify"
	"github.com/chihung93/kotlinconf-app/internal/server"
	"github.com/chihung93/kotlinconf-app/internal/storage"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStorage(cfg *config.Config) *storage.Store {
	store, err := storage.Open(cfg.StoragePath)
	if err != nil {
		slog.Error("Failed to open local storage", "path", cfg.StoragePath, "error", err)
		os.Exit(1)
	}
	return store
}

func runGracefulShutdown(srv *server.Server, eng *engine.Engine, store *storage.Store) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		eng.Stop()

		if err := store.Close(); err != nil {
			slog.Error("Storage close error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "endpoint", cfg.APIEndpoint)

	store := setupStorage(cfg)

	client := api.NewClient(cfg.APIEndpoint, cfg.RequestTimeout)
	notifier := notify.NewLocalScheduler(clock, func(title, body string) {
		slog.Info("Reminder fired", "title", title, "body", body)
	})

	eng := engine.New(engine.Options{
		API:          client,
		Store:        store,
		Notifier:     notifier,
		Clock:        clock,
		Location:     cfg.Location(),
		FrozenTime:   cfg.FrozenAt(),
		SyncInterval: cfg.SyncInterval,
		ReminderLead: cfg.ReminderLead,
	})
	eng.Start()

	srv := server.NewServer(cfg, eng, store)

	done := runGracefulShutdown(srv, eng, store)

	slog.Info("Diagnostics server starting", "port", cfg.DiagnosticsPort)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
