package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	loc, err := cfg.Location()
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

	var mirror sheets.TransactionMirror
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(startCtx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			Location:        loc,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var tipsGen services.TipsGenerator
	if cfg.AIEnabled() {
		aiClient, err := ai.New(startCtx, ai.Config{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.GeminiModel,
			CacheSize: cfg.AICacheSize,
			CacheTTL:  cfg.AICacheTTL,
		})
		if err != nil {
			logger.Error("Failed to initialize AI client", "error", err)
			os.Exit(1)
		}
		tipsGen = aiClient
	} else {
		logger.Info("AI disabled - savings tips requests will be dropped")
	}
	savings := services.NewSavingsService(store.Repository, nil, tipsGen)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	w := worker.New(store.Repository, mirror, savings)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	})

	go func() {
		if err := amqpClient.Consume(ctx, w.Handlers()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Worker started", "queue", cfg.AMQPQueue, "sheets", mirror != nil, "ai", tipsGen != nil)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
