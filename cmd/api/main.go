package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/uneedslabs/uneeds-backend/api/routes"
	"github.com/uneedslabs/uneeds-backend/internal/disputes"
	"github.com/uneedslabs/uneeds-backend/internal/escrow"
	"github.com/uneedslabs/uneeds-backend/internal/ledger"
	"github.com/uneedslabs/uneeds-backend/internal/requests"
	"github.com/uneedslabs/uneeds-backend/internal/users"
	"github.com/uneedslabs/uneeds-backend/internal/wallet"
	"github.com/uneedslabs/uneeds-backend/pkg/config"
	"github.com/uneedslabs/uneeds-backend/pkg/db"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
	"github.com/uneedslabs/uneeds-backend/pkg/metrics"
	"github.com/uneedslabs/uneeds-backend/pkg/migrate"
	"github.com/uneedslabs/uneeds-backend/pkg/redis"
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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

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
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	commandMetrics := metrics.NewCommandMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	requestRepo := requests.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	alertsRepo := disputes.NewRepository(dbClient.DB())

	if err := escrow.ProvisionPlatformAccount(context.Background(), usersRepo, cfg.Escrow); err != nil {
		logg.Error(context.Background(), "failed to provision platform account", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	disputesService, err := disputes.NewService(alertsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create disputes service", err)
		os.Exit(1)
	}

	escrowService, err := escrow.NewService(escrow.Deps{
		Tx:       dbClient,
		Requests: requestRepo,
		Ledger:   ledgerService,
		Users:    usersRepo,
		Alerts:   disputesService,
		Escrow:   cfg.Escrow,
		Logger:   logg,
		Metrics:  commandMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}

	walletService, err := wallet.NewService(dbClient, ledgerService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			UsersRepo:   usersRepo,
			RequestRepo: requestRepo,
			Escrow:      escrowService,
			Wallet:      walletService,
			Ledger:      ledgerService,
			Disputes:    disputesService,
			Registry:    registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
