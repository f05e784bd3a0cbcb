// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/affipub/affipub/internal/ai"
	"github.com/affipub/affipub/internal/config"
	"github.com/affipub/affipub/internal/handler"
	"github.com/affipub/affipub/internal/imaging"
	"github.com/affipub/affipub/internal/logging"
	"github.com/affipub/affipub/internal/scheduler"
	"github.com/affipub/affipub/internal/service"
	"github.com/affipub/affipub/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data and upload directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	st := store.New(db)

	// Upgrade logger to also mirror WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, st))
	slog.SetDefault(logger)

	ctx := context.Background()
	user, err := st.EnsureDefaultUser(ctx)
	if err != nil {
		return fmt.Errorf("seeding default user: %w", err)
	}
	slog.Info("default user ready", "user_id", user.ID)

	events := service.NewEventService(st)
	generator := ai.NewClient(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ClaudeMaxTokens)
	publisher := service.NewPublisher(st, generator, nil, events, logger)
	media := service.NewMediaService(st, imaging.NewProcessor(cfg.UploadsDir), events)

	sched := scheduler.New(st, logger, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	h := handler.NewHandler(st, publisher, media, logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           h.Routes(cfg.GenerateRateLimit),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      180 * time.Second, // generation calls wait on the model API
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
