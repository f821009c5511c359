package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/stockflowhq/stockflow-backend/api/routes"
	"github.com/stockflowhq/stockflow-backend/internal/bom"
	"github.com/stockflowhq/stockflow-backend/internal/catalog"
	"github.com/stockflowhq/stockflow-backend/internal/orders"
	"github.com/stockflowhq/stockflow-backend/internal/scans"
	"github.com/stockflowhq/stockflow-backend/internal/stockledger"
	"github.com/stockflowhq/stockflow-backend/pkg/config"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
	"github.com/stockflowhq/stockflow-backend/pkg/metrics"
	"github.com/stockflowhq/stockflow-backend/pkg/migrate"
	"github.com/stockflowhq/stockflow-backend/pkg/outbox"
	"github.com/stockflowhq/stockflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	defer func() {
		closeErr := multierr.Combine(
			redisClient.Close(),
			dbClient.Close(),
		)
		if closeErr != nil {
			logg.Error(context.Background(), "error closing clients", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	scanMetrics := metrics.NewScanMetrics(registry)

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ledgerService, err := stockledger.NewService(dbClient, stockledger.NewRepository(dbClient.DB()), outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock ledger service", err)
		os.Exit(1)
	}

	bomService, err := bom.NewService(bom.NewRepository(dbClient.DB()), ledgerService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create bom service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), ledgerService, bomService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	scansService, err := scans.NewService(dbClient, scans.NewRepository(dbClient.DB()), ledgerService, redisClient, outboxSvc, scanMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create scans service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(dbClient, orders.NewRepository(dbClient.DB()), scansService, outboxSvc, scanMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			ledgerService,
			bomService,
			catalogService,
			ordersService,
			scansService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
