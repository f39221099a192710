// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	asynq_a "github.com/ammerola/jewelry-be/internal/adapters/asynq_adapter"
	redis_a "github.com/ammerola/jewelry-be/internal/adapters/redis_adapter"
	"github.com/ammerola/jewelry-be/internal/bootstrap"
	"github.com/ammerola/jewelry-be/internal/core/services"
	"github.com/ammerola/jewelry-be/internal/handlers"
	"github.com/ammerola/jewelry-be/internal/handlers/middleware"
	"github.com/ammerola/jewelry-be/internal/pkg/config"
	"github.com/ammerola/jewelry-be/internal/pkg/logger"
	"github.com/ammerola/jewelry-be/internal/pkg/telemetry"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json").Logger

	slogger.Info("starting jewelry sales API",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

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
		Service:     cfg.App.Name,
		Version:     Version,
		Environment: cfg.App.Environment,
	}).Logger
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	if err := loadSecrets(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to load secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, Version, slogger)
	if err != nil {
		slogger.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		if err := shutdownTracing(shutdownCtx); err != nil {
			slogger.Error("failed to flush traces", slog.String("error", err.Error()))
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	backend          *bootstrap.Backend
	redisClient      *redis.Client
	asynqClient      *asynq.Client
	asynqInspector   *asynq.Inspector
	inventoryHandler *handlers.InventoryHandler
	saleHandler      *handlers.SaleHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.backend != nil {
		d.backend.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
}

func loadSecrets(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	sm, err := config.NewSecretsManager(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return config.ApplySecrets(ctx, cfg, sm)
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	redisClient, err := bootstrap.NewRedisClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.redisClient = redisClient

	backend, err := bootstrap.OpenBackend(ctx, cfg, redisClient, logger)
	if err != nil {
		deps.cleanup()
		return nil, err
	}
	deps.backend = backend

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)
	invalidator := redis_a.NewInvalidator(cache, logger)

	logger.Info("initializing Asynq client")
	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	inventoryService := services.NewInventoryService(backend.Inventory, cache, invalidator, logger)
	saleService := services.NewSaleService(services.SaleServiceDeps{
		Inventory:   backend.Inventory,
		Sales:       backend.Sales,
		Transactor:  backend.Transactor,
		Notifier:    asynq_a.NewTaskNotifier(deps.asynqClient, logger),
		Invalidator: invalidator,
	}, cfg.Commit.RepositoryTimeout, logger)

	deps.inventoryHandler = handlers.NewInventoryHandler(inventoryService, logger)
	deps.saleHandler = handlers.NewSaleHandler(saleService, logger)
	deps.healthHandler = handlers.NewHealthHandler(
		backend.Store,
		redisClient,
		deps.asynqInspector,
		cfg,
		logger,
	)

	logger.Info("all dependencies initialized successfully",
		slog.String("store_backend", backend.Name))
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Tracing(cfg.Telemetry.ServiceName),
		middleware.Logger(logger),
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if cfg.Server.WriteTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Server.WriteTimeout))
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout + cfg.Server.ReadTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)
	}

	mux.HandleFunc("GET "+apiV1+"/inventory", deps.inventoryHandler.ListInventory)
	mux.HandleFunc("GET "+apiV1+"/inventory/{id}", deps.inventoryHandler.GetInventory)
	mux.HandleFunc("POST "+apiV1+"/inventory", deps.inventoryHandler.CreateInventory)

	mux.HandleFunc("POST "+apiV1+"/sales", deps.saleHandler.CommitSale)
	mux.HandleFunc("GET "+apiV1+"/sales", deps.saleHandler.ListSales)
	mux.HandleFunc("GET "+apiV1+"/sales/{id}", deps.saleHandler.GetSale)
}
