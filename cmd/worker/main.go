// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/jewelry-be/internal/bootstrap"
	"github.com/ammerola/jewelry-be/internal/pkg/config"
	"github.com/ammerola/jewelry-be/internal/pkg/logger"
	"github.com/ammerola/jewelry-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json").Logger

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.Setup(logger.Options{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		AddSource:   true,
		Service:     cfg.App.Name + "-worker",
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}).Logger
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()

	sm, err := config.NewSecretsManager(ctx, cfg, slogger)
	if err == nil {
		err = config.ApplySecrets(ctx, cfg, sm)
	}
	if err != nil {
		slogger.Error("failed to load secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisClient, err := bootstrap.NewRedisClient(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// Fewer connections for the worker
	cfg.Database.MaxConnections = 10
	cfg.Database.MinConnections = 2
	// Migrations belong to the API process
	cfg.Database.AutoMigrate = false

	backend, err := bootstrap.OpenBackend(ctx, cfg, redisClient, slogger)
	if err != nil {
		slogger.Error("failed to open store backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     cfg.Asynq.Concurrency,
			Queues:          cfg.Asynq.Queues,
			StrictPriority:  cfg.Asynq.StrictPriority,
			ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
			RetryDelayFunc:  exponentialBackoff,
			ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
			HealthCheckFunc: healthCheck,
			Logger:          newAsynqLogger(slogger),
		},
	)

	mux := asynq.NewServeMux()

	notificationProcessor := workers.NewNotificationProcessor(redisClient, workers.DefaultNotificationChannel, slogger)
	mux.HandleFunc(workers.TypeSaleNotify, notificationProcessor.DeliverSaleNotification)

	cleanupProcessor := workers.NewCleanupProcessor(backend.Sales, cfg.Commit.StagedMaxAge, slogger)
	mux.HandleFunc(workers.TypeSweepStagedSales, cleanupProcessor.SweepStagedSales)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: newAsynqLogger(slogger),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				slogger.Warn("failed to enqueue scheduled task", slog.String("error", err.Error()))
			}
		},
	})
	entryID, err := scheduler.Register(cfg.Commit.SweepSchedule, workers.NewSweepStagedSalesTask())
	if err != nil {
		slogger.Error("failed to register staged sale sweep",
			slog.String("schedule", cfg.Commit.SweepSchedule),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger.Info("staged sale sweep scheduled",
		slog.String("entry_id", entryID),
		slog.String("schedule", cfg.Commit.SweepSchedule),
		slog.Duration("max_age", cfg.Commit.StagedMaxAge))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			slogger.Error("failed to run scheduler", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.Int("retry", retried),
		slog.Int("max_retry", maxRetry),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
