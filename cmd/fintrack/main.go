package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	opts, err := cli.AggregateOptions(cfg)
	if err != nil {
		logger.Error("Invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	store, err := cli.OpenRepository(startCtx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Optional collaborators stay nil interfaces when disabled.
	var (
		syncPublisher services.SyncPublisher
		tipsPublisher services.TipsPublisher
		tipsGen       services.TipsGenerator
		insightsGen   services.InsightsGenerator
		amqpClient    *amqp.Client
	)

	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, tips will be generated inline", "error", err)
		} else {
			syncPublisher, tipsPublisher = amqpClient, amqpClient
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	cacheManager := cache.NewManager()
	if cfg.AIEnabled() {
		aiClient, err := ai.New(startCtx, ai.Config{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.GeminiModel,
			CacheSize: cfg.AICacheSize,
			CacheTTL:  cfg.AICacheTTL,
		})
		if err != nil {
			logger.Warn("AI client unavailable", "error", err)
		} else {
			tipsGen, insightsGen = aiClient, aiClient
			cacheManager.Register(aiClient.Cache())
			logger.Info("AI client initialized", "model", cfg.GeminiModel)
		}
	} else {
		logger.Info("AI features disabled - no GEMINI_API_KEY provided")
	}
	cacheManager.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: services.NewTransactionService(store.Repository, syncPublisher, opts.Location),
		Budgets:      services.NewBudgetService(store.Repository, opts),
		Savings:      services.NewSavingsService(store.Repository, tipsPublisher, tipsGen),
		Dashboard:    services.NewDashboardService(store.Repository, opts),
		Insights:     services.NewInsightsService(store.Repository, insightsGen, opts.Location),
		Storage:      store.Repository,
		Location:     opts.Location,
		Logger:       applog.New(applog.Config{Component: applog.ComponentHTTP, Handler: logger.Handler()}),
		RateLimit:    ratelimit.DefaultConfig(),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", opts.Location.String(),
		"amqp", amqpClient != nil,
		"ai", tipsGen != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	slog.Info("Server stopped gracefully")
}
