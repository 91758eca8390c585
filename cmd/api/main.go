package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/releasedesk/api/controllers"
	"github.com/angelmondragon/releasedesk/api/routes"
	"github.com/angelmondragon/releasedesk/internal/identifiers"
	"github.com/angelmondragon/releasedesk/internal/intake"
	"github.com/angelmondragon/releasedesk/internal/releases"
	"github.com/angelmondragon/releasedesk/internal/review"
	"github.com/angelmondragon/releasedesk/internal/submission"
	"github.com/angelmondragon/releasedesk/internal/users"
	"github.com/angelmondragon/releasedesk/pkg/config"
	"github.com/angelmondragon/releasedesk/pkg/db"
	"github.com/angelmondragon/releasedesk/pkg/logger"
	"github.com/angelmondragon/releasedesk/pkg/metrics"
	"github.com/angelmondragon/releasedesk/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "releasedesk-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "releasedesk-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	releaseMetrics := metrics.NewReleaseMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	readiness := map[string]controllers.Pinger{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	repo, err := buildRepository(ctx, cfg, logg, readiness, &closers)
	if err != nil {
		return err
	}

	releaseService, err := releases.NewService(repo, identifiers.NewGenerator(cfg.Identifiers), logg,
		releases.WithMetrics(releaseMetrics))
	if err != nil {
		return err
	}
	if _, ok := readiness["store"]; !ok {
		readiness["store"] = releaseService
	}

	validator := intake.NewValidator(intake.LimitsFromConfig(cfg.Intake),
		intake.WithMetrics(releaseMetrics),
		intake.WithLogger(logg),
	)
	wizardService, err := submission.NewService(submission.Deps{
		Intake:   validator,
		Releases: releaseService,
		Logger:   logg,
		Metrics:  releaseMetrics,
	}, releaseService, submission.NewSessionStore(cfg.Wizard.SessionTTL, nil))
	if err != nil {
		return err
	}

	reviewService, err := review.NewService(releaseService, logg)
	if err != nil {
		return err
	}

	var idempotencyStore redis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		readiness["redis"] = redisClient
		idempotencyStore = redisClient
	} else {
		logg.Info(ctx, "redis not configured, idempotency keys are ignored")
	}

	handler := routes.NewRouter(cfg, logg, reg, httpMetrics, readiness, idempotencyStore,
		users.NewStore(users.DefaultProfile(), logg),
		releaseService, wizardService, reviewService, validator.Limits())

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"store": cfg.Store.Driver,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildRepository(ctx context.Context, cfg *config.Config, logg *logger.Logger, readiness map[string]controllers.Pinger, closers *[]func() error) (releases.Repository, error) {
	if !cfg.Store.UsesSQLite() {
		return releases.NewMemoryRepository(), nil
	}
	dbClient, err := db.New(ctx, cfg.Store, logg)
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, dbClient.Close)
	readiness["store"] = dbClient

	repo, err := releases.NewGormRepository(ctx, dbClient)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
