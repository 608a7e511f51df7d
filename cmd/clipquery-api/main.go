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

	"github.com/clipquery/clipquery/internal/analytics"
	"github.com/clipquery/clipquery/internal/api"
	"github.com/clipquery/clipquery/internal/auth"
	"github.com/clipquery/clipquery/internal/config"
	"github.com/clipquery/clipquery/internal/nl2sql"
	"github.com/clipquery/clipquery/internal/observability"
	"github.com/clipquery/clipquery/internal/query"
	"github.com/clipquery/clipquery/internal/schema"
	"github.com/clipquery/clipquery/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv("clipquery-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	// The server starts without a database; analyze requests then fail as unavailable.
	manager := store.Open(context.Background(), cfg.Database, logger)
	defer func() { _ = manager.Close() }()

	translator, err := nl2sql.NewTranslator(cfg.AI)
	if err != nil {
		logger.Error("failed to initialize sql translator", slog.Any("error", err))
		os.Exit(1)
	}
	if translator == nil {
		logger.Warn("no sql translator configured, every question yields the fallback statement")
	}

	descriptor := schema.Videos()
	generator := nl2sql.NewGenerator(translator, descriptor, nl2sql.GeneratorOptions{
		MaxConcurrent: cfg.AI.MaxConcurrent,
		Logger:        logger,
	})
	executor := query.NewExecutor(manager, logger)
	service := analytics.NewService(generator, executor, manager, logger)

	deps := api.Dependencies{
		Logger:            logger,
		Readiness:         api.PoolReadiness(manager),
		DependencyTimeout: time.Second,
		Analyzer:          service,
		Generator:         generator,
		Schema:            descriptor,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.NewHandler(cfg, deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address), slog.Bool("database_available", manager.Available()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
	}
}
