package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zepzep/zepzep-backend/internal/cron"
	"github.com/zepzep/zepzep-backend/internal/trustscore"
	"github.com/zepzep/zepzep-backend/internal/users"
	"github.com/zepzep/zepzep-backend/pkg/config"
	"github.com/zepzep/zepzep-backend/pkg/db"
	"github.com/zepzep/zepzep-backend/pkg/instance"
	"github.com/zepzep/zepzep-backend/pkg/logger"
	"github.com/zepzep/zepzep-backend/pkg/metrics"
	"github.com/zepzep/zepzep-backend/pkg/migrate"
	"github.com/zepzep/zepzep-backend/pkg/outbox"
	"github.com/zepzep/zepzep-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.ForService("cron-worker", cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	if err := run(ctx, cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	if !cfg.Redis.Enabled() {
		return errors.New("cron worker requires redis for its lock")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	trustService, err := trustscore.NewService(trustscore.ServiceParams{
		Tx:      dbClient,
		Repo:    trustscore.NewRepository(conn),
		Users:   users.NewRepository(conn),
		Outbox:  outbox.NewService(outbox.NewRepository(conn), logg),
		Metrics: metrics.NewTrustScoreMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	trustJob, err := cron.NewTrustScoreRefreshJob(cron.TrustScoreRefreshJobParams{
		Logger:    logg,
		Refresher: trustService,
		BatchSize: cfg.TrustScore.RefreshBatch,
	})
	if err != nil {
		return err
	}
	outboxRetention, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Name:        "outbox-retention",
		Logger:      logg,
		Prune:       outbox.NewRepository(conn).DeletePublishedBefore,
		Days:        cfg.Outbox.RetentionDays,
		DefaultDays: 30,
	})
	if err != nil {
		return err
	}
	dlqRetention, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Name:        "outbox-dlq-retention",
		Logger:      logg,
		Prune:       outbox.NewDeadLetters(conn).DeleteFailedBefore,
		Days:        cfg.Outbox.DLQRetentionDays,
		DefaultDays: 90,
	})
	if err != nil {
		return err
	}
	registry, err := cron.NewRegistry(trustJob, outboxRetention, dlqRetention)
	if err != nil {
		return err
	}

	// The lock outlives one interval so a slow cycle is never doubled up.
	lockTTL := cfg.TrustScore.RefreshInterval + cfg.TrustScore.RefreshInterval/24
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+cfg.App.Env), lockTTL)
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.TrustScore.RefreshInterval,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting cron worker")
	if once {
		return service.RunOnce(ctx)
	}
	return service.Run(ctx)
}
