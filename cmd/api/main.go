package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zepzep/zepzep-backend/api/routes"
	"github.com/zepzep/zepzep-backend/internal/inventory"
	"github.com/zepzep/zepzep-backend/internal/loyalty"
	"github.com/zepzep/zepzep-backend/internal/orders"
	"github.com/zepzep/zepzep-backend/internal/shops"
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
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.ForService("api", cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
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

	deps := routes.Dependencies{Config: cfg, Logger: logg, DB: dbClient}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		deps.Redis = redisClient
		deps.Idempotency = redisClient
		deps.RateLimiter = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and rate limiting disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Gatherer = reg
	deps.HTTPMetrics = metrics.NewHTTPMetrics(reg)

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	shopsRepo := shops.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	fee, err := cfg.Orders.Fee()
	if err != nil {
		return err
	}
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn), cfg.Ledger.MaxCASAttempts)
	if err != nil {
		return err
	}
	deps.Orders, err = orders.NewService(orders.ServiceParams{
		Tx:                dbClient,
		Orders:            orders.NewRepository(conn),
		Ledger:            ledger,
		Users:             usersRepo,
		Shops:             shopsRepo,
		Outbox:            emitter,
		Metrics:           metrics.NewOrderMetrics(reg),
		Logger:            logg,
		DeliveryFee:       fee,
		PlacementTimeout:  cfg.Orders.PlacementTimeout,
		EstimatedDelivery: cfg.Orders.EstimatedDelivery,
	})
	if err != nil {
		return err
	}
	deps.TrustScore, err = trustscore.NewService(trustscore.ServiceParams{
		Tx:      dbClient,
		Repo:    trustscore.NewRepository(conn),
		Users:   usersRepo,
		Outbox:  emitter,
		Metrics: metrics.NewTrustScoreMetrics(reg),
		Logger:  logg,
	})
	if err != nil {
		return err
	}
	deps.Loyalty, err = loyalty.NewService(loyalty.ServiceParams{
		Tx:          dbClient,
		Users:       usersRepo,
		Redemptions: loyalty.NewRepository(conn),
		Outbox:      emitter,
		Logger:      logg,
	})
	if err != nil {
		return err
	}
	deps.Users, err = users.NewService(usersRepo)
	if err != nil {
		return err
	}
	deps.Shops, err = shops.NewService(shopsRepo)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:         addr,
		Handler:      routes.NewRouter(deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
