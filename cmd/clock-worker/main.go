package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bidhaus/bidhaus-backend/internal/clock"
	"github.com/bidhaus/bidhaus-backend/internal/ledger"
	"github.com/bidhaus/bidhaus-backend/internal/registry"
	"github.com/bidhaus/bidhaus-backend/pkg/config"
	"github.com/bidhaus/bidhaus-backend/pkg/db"
	"github.com/bidhaus/bidhaus-backend/pkg/logger"
	"github.com/bidhaus/bidhaus-backend/pkg/metrics"
	"github.com/bidhaus/bidhaus-backend/pkg/migrate"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox"
	"github.com/bidhaus/bidhaus-backend/pkg/redis"
)

const lockKeyFormat = "bh:clock-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "clock-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "clock-worker"

	logg = logger.New(logger.Options{
		ServiceName: "clock-worker",
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

	sweepMetrics := metrics.NewSweepJobMetrics(prometheus.DefaultRegisterer)
	lock, err := clock.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Clock.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create clock lock", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	registryRepo := registry.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	startJob, err := clock.NewStartJob(clock.StartJobParams{
		Logger:    logg,
		DB:        dbClient,
		Items:     registryRepo,
		Outbox:    outboxService,
		BatchSize: cfg.Clock.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create start job", err)
		os.Exit(1)
	}

	closeJob, err := clock.NewCloseJob(clock.CloseJobParams{
		Logger:    logg,
		DB:        dbClient,
		Items:     registryRepo,
		Bids:      ledgerRepo,
		Outbox:    outboxService,
		BatchSize: cfg.Clock.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create close job", err)
		os.Exit(1)
	}

	service, err := clock.NewService(clock.ServiceParams{
		Logger:   logg,
		Registry: clock.NewRegistry(startJob, closeJob),
		Lock:     lock,
		Metrics:  sweepMetrics,
		Interval: cfg.Clock.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create clock service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting clock worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "clock worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "clock worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
