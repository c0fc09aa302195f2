package main

import (
	"context"
	"os"
	"time"

	"footprint/internal/amqp"
	"footprint/internal/cli"
	applog "footprint/internal/log"
	"footprint/internal/services"
	gsheet "footprint/internal/sheets/google"
	"footprint/internal/storage"
	"footprint/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig(true)
	logger := cli.SetupLogger(applog.ComponentWorker, os.Getenv("LOG_LEVEL"), os.Stdout)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	logger.Info("Starting footprint-worker", applog.FieldOperation, applog.OpStartup)

	// The worker reads activities back from the API's database.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize SQLite repository", err)
	}
	defer repo.Close()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	sheetsClient, err := gsheet.New(bootCtx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	if err := sheetsClient.EnsureHeader(bootCtx); err != nil {
		logger.Warn("Could not verify sheet header", applog.FieldError, err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	processor := services.NewExportProcessor(repo, sheetsClient)
	w := worker.NewExportWorker(amqpClient, processor, cfg.RetryDelay, cfg.StatsInterval)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)

	if err := w.Run(ctx); err != nil {
		cli.Fatal(logger, "Export worker failed", err)
	}

	<-done
	st := processor.Stats()
	logger.Info("Worker stopped gracefully",
		"exported", st.Exported,
		"deleted", st.Deleted,
		"skipped", st.Skipped,
		"failed", st.Failed)
}
