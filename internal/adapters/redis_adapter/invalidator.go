// internal/adapters/redis_adapter/invalidator.go
package redis_a

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// Invalidator drops cached inventory and sales views after a write.
// Item views live under "<prefix>:item:<id>", list views under "<prefix>:list:*".
type Invalidator struct {
	cache  ports.CacheRepository
	logger *slog.Logger
}

// Statically assert that *Invalidator implements the QueryInvalidator interface.
var _ ports.QueryInvalidator = (*Invalidator)(nil)

// NewInvalidator creates a new cache invalidator
func NewInvalidator(cache ports.CacheRepository, logger *slog.Logger) *Invalidator {
	return &Invalidator{
		cache:  cache,
		logger: logger.With(slog.String("component", "invalidator")),
	}
}

// InvalidateInventory drops the given item views and every inventory list view
func (i *Invalidator) InvalidateInventory(ctx context.Context, itemIDs ...string) error {
	return i.invalidate(ctx, ports.CachePrefixInventory, itemIDs)
}

// InvalidateSales drops the given sale views and every sales list view
func (i *Invalidator) InvalidateSales(ctx context.Context, saleIDs ...string) error {
	return i.invalidate(ctx, ports.CachePrefixSales, saleIDs)
}

func (i *Invalidator) invalidate(ctx context.Context, prefix string, ids []string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, BuildKey(prefix, "item", id))
	}

	var errs []error
	if err := i.cache.Delete(ctx, keys...); err != nil {
		errs = append(errs, err)
	}
	if err := i.cache.DeletePattern(ctx, BuildKey(prefix, "list", "*")); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		i.logger.WarnContext(ctx, "failed to invalidate cached views",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()))
		return err
	}

	i.logger.DebugContext(ctx, "invalidated cached views",
		slog.String("prefix", prefix),
		slog.Int("items", len(ids)))
	return nil
}
