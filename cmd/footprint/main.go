package main

import (
	"context"
	"os"
	"time"

	"footprint/internal/amqp"
	"footprint/internal/backend"
	"footprint/internal/cache"
	"footprint/internal/cli"
	apphttp "footprint/internal/http"
	applog "footprint/internal/log"
	"footprint/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig(false)
	logger := cli.SetupLogger(applog.ComponentApp, os.Getenv("LOG_LEVEL"), os.Stdout)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger).Create(bootCtx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	// Factor lookups go through a TTL cache; activity reads never do.
	cacheManager := cache.NewManager()
	factorCache := cache.NewFactors(res.Store, cfg.FactorCacheSize, cfg.FactorCacheTTL)
	factorCache.Register(cacheManager)
	cacheManager.StartCleanup(cfg.FactorCacheTTL)

	// Event publishing is optional: without AMQP the API still serves.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without activity events", applog.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(cli.Addr(cfg.Port), apphttp.Deps{
		Factors:            factorCache,
		Activities:         services.NewActivityService(factorCache, res.Store, publisher),
		Summaries:          services.NewSummaryService(res.Store),
		Ready:              res.Ready,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			amqpClient.Close()
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
		st := factorCache.Stats()
		logger.Info("Server stopped",
			"requests", srv.Metrics().TotalRequests,
			"factor_cache_hits", st.Hits,
			"factor_cache_misses", st.Misses)
	})

	logger.Info("Starting footprint server", applog.FieldOperation, applog.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !apphttp.IsServerClosed(err) {
		cli.Fatal(logger, "Server error", err)
	}

	<-ctx.Done()
	<-done
}
