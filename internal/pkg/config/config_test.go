package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "jewelry", cfg.Store.LocalNamespace)
	assert.Equal(t, 5*time.Second, cfg.Commit.RepositoryTimeout)
	assert.Equal(t, 3, cfg.Commit.StockRetries)
	assert.Equal(t, 15*time.Minute, cfg.Commit.StagedMaxAge)
	assert.Equal(t, SecretsProviderEnv, cfg.Secrets.Provider)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, "localhost:6379", cfg.Asynq.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORE_BACKEND", "LOCAL")
	t.Setenv("LOCAL_STORE_NAMESPACE", "shop1")
	t.Setenv("COMMIT_REPOSITORY_TIMEOUT", "750ms")
	t.Setenv("COMMIT_STOCK_RETRIES", "5")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")

	cfg, err := Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Store.Backend)
	assert.False(t, cfg.UsesPostgres())
	assert.Equal(t, "shop1", cfg.Store.LocalNamespace)
	assert.Equal(t, 750*time.Millisecond, cfg.Commit.RepositoryTimeout)
	assert.Equal(t, 5, cfg.Commit.StockRetries)
	assert.Equal(t, "collector:4318", cfg.Telemetry.OTLPEndpoint)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORE_BACKEND", "sqlite")

	_, err := Load(discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}

func validConfig() *Config {
	return &Config{
		App:   AppConfig{Name: "jewelry-api", Environment: "test"},
		Store: StoreConfig{Backend: BackendLocal, LocalNamespace: "jewelry"},
		Commit: CommitConfig{
			RepositoryTimeout: time.Second,
			StockRetries:      3,
			StagedMaxAge:      time.Minute,
			SweepSchedule:     "@every 5m",
		},
		Database: DatabaseConfig{Host: "localhost", Name: "jewelry", MaxConnections: 5, MinConnections: 1},
		Redis:    RedisConfig{PoolSize: 10},
		Secrets:  SecretsConfig{Provider: SecretsProviderEnv},
		Telemetry: TelemetryConfig{
			SampleRatio: 1,
		},
		Security: SecurityConfig{RateLimitRequests: 100, AllowedOrigins: []string{"*"}},
		Server:   ServerConfig{Port: "8080"},
	}
}

func TestBasicValidator(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid_config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing_server_port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "Server.Port",
		},
		{
			name:    "zero_timeout",
			mutate:  func(c *Config) { c.Commit.RepositoryTimeout = 0 },
			wantErr: "timeout must be positive",
		},
		{
			name:    "negative_retries",
			mutate:  func(c *Config) { c.Commit.StockRetries = -1 },
			wantErr: "retries cannot be negative",
		},
		{
			name:    "bad_sweep_schedule",
			mutate:  func(c *Config) { c.Commit.SweepSchedule = "whenever" },
			wantErr: "sweep schedule",
		},
		{
			name:    "unknown_secrets_provider",
			mutate:  func(c *Config) { c.Secrets.Provider = "vault" },
			wantErr: "unknown secrets provider",
		},
		{
			name: "postgres_pool_bounds",
			mutate: func(c *Config) {
				c.Store.Backend = BackendPostgres
				c.Database.MinConnections = 10
			},
			wantErr: "max_connections",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := (&BasicValidator{}).Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProductionValidator(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "production"
	cfg.Security.SecureHeaders = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wildcard origin")

	cfg.Security.AllowedOrigins = []string{"https://shop.example.com"}
	assert.NoError(t, cfg.Validate())

	cfg.Store.Backend = BackendPostgres
	cfg.Database.Password = "MISSING_PASSWORD"
	assert.ErrorIs(t, cfg.Validate(), ErrMissingRequiredConfig)
}

type fakeSecrets struct {
	value string
	err   error
	calls int
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

func TestAWSSecretsManager_ApplySecrets(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSecrets{value: `{"DB_PASSWORD":"s3cret","REDIS_PASSWORD":"r3dis"}`}
	sm := newAWSSecretsManager(fake, "jewelry/test", discardLogger())

	cfg := validConfig()
	require.NoError(t, ApplySecrets(ctx, cfg, sm))
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "r3dis", cfg.Redis.Password)
	assert.Equal(t, "r3dis", cfg.Asynq.RedisPassword)

	// second lookup is served from cache
	_, err := sm.GetSecret(ctx, SecretDatabasePassword)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)
}

func TestAWSSecretsManager_Failure(t *testing.T) {
	sm := newAWSSecretsManager(&fakeSecrets{err: errors.New("access denied")}, "jewelry/test", discardLogger())

	err := ApplySecrets(context.Background(), validConfig(), sm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestEnvSecretsManager(t *testing.T) {
	t.Setenv(SecretDatabasePassword, "from-env")

	cfg := validConfig()
	require.NoError(t, ApplySecrets(context.Background(), cfg, NewEnvSecretsManager()))
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Empty(t, cfg.Redis.Password)
}
