package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tokencap/tokencap/internal/config"
	"github.com/tokencap/tokencap/internal/database"
	"github.com/tokencap/tokencap/internal/logger"
	"github.com/tokencap/tokencap/internal/router"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/estimator"
	"github.com/tokencap/tokencap/internal/services/events"
	"github.com/tokencap/tokencap/internal/services/ledger"
	"github.com/tokencap/tokencap/internal/services/pricing"
	"github.com/tokencap/tokencap/internal/services/providers"
	"github.com/tokencap/tokencap/internal/services/tokenizer"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Initialize(cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := database.Initialize(&database.Config{
		Path:         cfg.Database.Path,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer func() {
		_ = database.Close()
	}()

	log.Info("Database ready", zap.String("path", cfg.Database.Path))

	tok := tokenizer.New()
	defer tok.Close()

	catalog := pricing.Default()
	store := ledger.New(database.GetDB())

	client := providers.NewHTTPClient(cfg.Upstream.ConnectTimeout, cfg.Upstream.IdleTimeout)

	deps := router.Dependencies{
		Config:     cfg,
		Logger:     log,
		Catalog:    catalog,
		Estimator:  estimator.New(catalog, cfg.Estimate.DefaultMaxTokens),
		Controller: budget.New(store, cfg.Budget.WarnThreshold),
		Store:      store,
		Sink:       events.Multi(events.NewLogSink(log), events.NewMetricsSink()),
		OpenAI: providers.NewOpenAIAdapter(providers.Options{
			BaseURL: cfg.Upstream.OpenAI.BaseURL,
			APIKey:  cfg.Upstream.OpenAI.APIKey,
			Client:  client,
			Counter: tok,
		}),
		Anthropic: providers.NewAnthropicAdapter(providers.Options{
			BaseURL: cfg.Upstream.Anthropic.BaseURL,
			APIKey:  cfg.Upstream.Anthropic.APIKey,
			Client:  client,
			Counter: tok,
		}),
	}

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      router.New(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Gateway listening",
			zap.String("address", srv.Addr),
			zap.String("default_project", cfg.Project.DefaultID),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Gateway stopped")
}
