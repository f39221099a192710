// internal/core/ports/cache.go
package ports

import (
	"context"
	"time"
)

// CacheRepository defines the interface for cache operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)

	GetOrSet(ctx context.Context, key string, dest interface{},
		fetch func() (interface{}, error), ttl time.Duration) error

	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Ping(ctx context.Context) error
}

// QueryInvalidator drops cached read views after a write so clients refetch
type QueryInvalidator interface {
	InvalidateInventory(ctx context.Context, itemIDs ...string) error
	InvalidateSales(ctx context.Context, saleIDs ...string) error
}

// Cache key prefixes shared by read services and the invalidator
const (
	CachePrefixInventory = "inv"
	CachePrefixSales     = "sales"
)
