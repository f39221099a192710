// internal/bootstrap/backend.go

// Package bootstrap builds the shared infrastructure used by the binaries:
// the redis client and the persistence backend selected in configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/jewelry-be/internal/adapters/db"
	"github.com/ammerola/jewelry-be/internal/adapters/localstore"
	"github.com/ammerola/jewelry-be/internal/core/ports"
	"github.com/ammerola/jewelry-be/internal/pkg/config"
)

// Pinger is implemented by both backends for health checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend is the persistence backend chosen once at startup. Every service
// in the process shares the same repositories.
type Backend struct {
	Name       string
	Inventory  ports.InventoryRepository
	Sales      ports.SaleRepository
	Transactor ports.Transactor
	Store      Pinger

	// Database is nil for the local backend
	Database ports.Database
}

// Close releases the backend's connections
func (b *Backend) Close() {
	if b.Database != nil {
		b.Database.Close()
	}
}

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	client := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddress(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// OpenBackend builds the repositories of the configured backend. The local
// backend stores its collections in redisClient.
func OpenBackend(ctx context.Context, cfg *config.Config, redisClient redis.UniversalClient, logger *slog.Logger) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.BackendLocal:
		store := localstore.NewStore(redisClient, cfg.Store.LocalNamespace, cfg.Commit.StockRetries, logger)
		logger.Info("using local store backend",
			slog.String("namespace", cfg.Store.LocalNamespace))

		return &Backend{
			Name:       config.BackendLocal,
			Inventory:  store.Inventory(),
			Sales:      store.Sales(),
			Transactor: store,
			Store:      store,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations")
		err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			TableName:   "schema_migrations",
			SchemaName:  "public",
		}, logger, 3)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &Backend{
		Name:       config.BackendPostgres,
		Inventory:  db.NewInventoryRepository(database, cfg.Commit.StockRetries, logger),
		Sales:      db.NewSaleRepository(database, logger),
		Transactor: database,
		Store:      database,
		Database:   database,
	}, nil
}
