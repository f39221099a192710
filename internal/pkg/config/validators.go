// internal/pkg/config/validators.go
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validator checks one aspect of a loaded configuration
type Validator interface {
	Validate(cfg *Config) error
}

// BasicValidator performs basic configuration validation
type BasicValidator struct{}

// Validate performs basic validation
func (v *BasicValidator) Validate(cfg *Config) error {
	// Validate required fields using reflection
	if err := validateRequiredFields(cfg); err != nil {
		return err
	}

	switch cfg.Store.Backend {
	case BackendPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("%w: database host and name", ErrMissingRequiredConfig)
		}
		if cfg.Database.MaxConnections < cfg.Database.MinConnections {
			return fmt.Errorf("database max_connections must be >= min_connections")
		}
	case BackendLocal:
	default:
		return fmt.Errorf("unknown store backend %q, expected %s or %s",
			cfg.Store.Backend, BackendPostgres, BackendLocal)
	}

	switch cfg.Secrets.Provider {
	case SecretsProviderEnv, SecretsProviderAWS:
	default:
		return fmt.Errorf("unknown secrets provider %q", cfg.Secrets.Provider)
	}

	if cfg.Commit.RepositoryTimeout <= 0 {
		return fmt.Errorf("commit repository timeout must be positive")
	}
	if cfg.Commit.StockRetries < 0 {
		return fmt.Errorf("commit stock retries cannot be negative")
	}
	if cfg.Commit.StagedMaxAge <= 0 {
		return fmt.Errorf("staged sale max age must be positive")
	}
	if _, err := cron.ParseStandard(cfg.Commit.SweepSchedule); err != nil {
		return fmt.Errorf("invalid staged sale sweep schedule %q: %w", cfg.Commit.SweepSchedule, err)
	}

	if cfg.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis pool_size must be positive")
	}

	if cfg.Security.RateLimitRequests <= 0 {
		return fmt.Errorf("rate_limit_requests must be positive")
	}

	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("otel sample ratio must be within [0, 1]")
	}

	return nil
}

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	if cfg.UsesPostgres() {
		// Check for placeholder values
		if cfg.Database.Password == "" || strings.Contains(cfg.Database.Password, "MISSING_") {
			return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
		}

		// Ensure secure defaults in production
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("database SSL must be enabled in production")
		}
	}

	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}

	if len(cfg.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed origins must be configured in production")
	}
	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}

	return nil
}

// validateRequiredFields uses reflection to check required struct tags
func validateRequiredFields(cfg interface{}) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	return validateStruct(v, "")
}

func validateStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name

		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		// Check for required tag
		if required := fieldType.Tag.Get("required"); required == "true" {
			if isZeroValue(field) {
				return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, fieldName)
			}
		}

		// Recursively check nested structs
		if field.Kind() == reflect.Struct {
			if err := validateStruct(field, fieldName); err != nil {
				return err
			}
		}
	}

	return nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == "" || strings.HasPrefix(v.String(), "MISSING_")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
