// internal/adapters/localstore/inventory.go
package localstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// inventoryRepository implements ports.InventoryRepository over the store
type inventoryRepository struct {
	store  *Store
	logger *slog.Logger
}

// Statically assert that *inventoryRepository implements the InventoryRepository interface.
var _ ports.InventoryRepository = (*inventoryRepository)(nil)

func (r *inventoryRepository) key() string {
	return r.store.Key(collectionInventory)
}

func (r *inventoryRepository) all(ctx context.Context) ([]domain.InventoryItem, error) {
	return load[domain.InventoryItem](ctx, r.store.client, r.key())
}

// Save inserts the item, or replaces its catalog fields when the id exists
func (r *inventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	version, createdAt := item.Version, item.CreatedAt
	err := update(ctx, r.store, r.key(), func(items []domain.InventoryItem) ([]domain.InventoryItem, error) {
		for i := range items {
			if items[i].ID != item.ID {
				continue
			}
			saved := *item
			saved.CreatedAt = items[i].CreatedAt
			saved.Version = items[i].Version + 1
			items[i] = saved
			version, createdAt = saved.Version, saved.CreatedAt
			return items, nil
		}

		saved := *item
		saved.Version = 1
		version, createdAt = saved.Version, saved.CreatedAt
		return append(items, saved), nil
	})
	if err != nil {
		return err
	}
	item.Version, item.CreatedAt = version, createdAt

	r.logger.DebugContext(ctx, "inventory item saved",
		slog.String("item_id", item.ID),
		slog.Int("stock", item.Stock))
	return nil
}

// FindByID retrieves one item
func (r *inventoryRepository) FindByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	items, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// FindByIDs retrieves the items that exist among ids
func (r *inventoryRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.InventoryItem, error) {
	result := make(map[string]*domain.InventoryItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	items, err := r.all(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for i := range items {
		if _, ok := wanted[items[i].ID]; ok {
			result[items[i].ID] = &items[i]
		}
	}
	return result, nil
}

// List returns items ordered by name
func (r *inventoryRepository) List(ctx context.Context, params ports.InventoryListParams) ([]*domain.InventoryItem, error) {
	items, err := r.all(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.InventoryItem, 0, len(items))
	for i := range items {
		if params.InStockOnly && items[i].Stock <= 0 {
			continue
		}
		if params.Category != "" && items[i].Category != params.Category {
			continue
		}
		out = append(out, &items[i])
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return out[a].ID < out[b].ID
	})

	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

// FetchStockSnapshot reads stock and status for ids
func (r *inventoryRepository) FetchStockSnapshot(ctx context.Context, ids []string) (map[string]domain.StockLevel, error) {
	items, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make(map[string]domain.StockLevel, len(items))
	for id, item := range items {
		result[id] = item.Level()
	}
	return result, nil
}

// ApplyStockDeltas reduces stock one item at a time, each under its own
// watched write. Inside WithinTransaction the removed units are recorded on
// the staged sale in that same write. Items whose write keeps conflicting, or
// fails after an earlier item already landed, are reported in a
// PartialFailureError carrying each item's cause.
func (r *inventoryRepository) ApplyStockDeltas(ctx context.Context, deltas domain.StockDelta) ([]domain.StockLevel, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	var levels []domain.StockLevel
	var failed []string
	var causes []error
	written := false

	for _, id := range deltas.IDs() {
		level, found, err := r.reduce(ctx, id, deltas[id])
		if err != nil {
			if !written && !errors.Is(err, domain.ErrVersionConflict) {
				return nil, err
			}
			r.logger.WarnContext(ctx, "stock write did not land",
				slog.String("item_id", id),
				slog.String("error", err.Error()))
			failed = append(failed, id)
			causes = append(causes, fmt.Errorf("%s: %w", id, err))
			continue
		}
		if !found {
			r.logger.DebugContext(ctx, "skipping stock write for unknown item", slog.String("item_id", id))
			continue
		}

		written = true
		if level.Shortfall > 0 {
			r.logger.WarnContext(ctx, "stock clamped at zero",
				slog.String("item_id", id),
				slog.Int("shortfall", level.Shortfall))
		}
		levels = append(levels, level)
	}

	if len(failed) > 0 {
		return levels, &domain.PartialFailureError{FailedIDs: failed, Err: errors.Join(causes...)}
	}
	return levels, nil
}

// reduce lowers one item's stock. When a sale is staged on ctx the units
// actually removed are added to its Restock in the same transaction.
func (r *inventoryRepository) reduce(ctx context.Context, id string, quantity int) (domain.StockLevel, bool, error) {
	itemsKey := r.key()
	salesKey := r.store.Key(collectionSales)
	saleID := stagedSaleID(ctx)

	keys := []string{itemsKey}
	if saleID != "" {
		keys = append(keys, salesKey)
	}

	var level domain.StockLevel
	var found bool

	err := watch(ctx, r.store, func(tx *redis.Tx) error {
		found = false

		items, err := load[domain.InventoryItem](ctx, tx, itemsKey)
		if err != nil {
			return err
		}
		idx := -1
		for i := range items {
			if items[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}

		next := domain.Reduce(items[idx].Level(), quantity)
		next.Version = items[idx].Version + 1
		removed := items[idx].Stock - next.Stock

		var sales []domain.Sale
		if saleID != "" {
			sales, err = load[domain.Sale](ctx, tx, salesKey)
			if err != nil {
				return err
			}
			sale := findStaged(sales, saleID)
			if sale == nil {
				return fmt.Errorf("staged sale %s: %w", saleID, domain.ErrNotFound)
			}
			if sale.Restock == nil {
				sale.Restock = make(map[string]int)
			}
			sale.Restock[id] += removed
		}

		items[idx].Stock = next.Stock
		items[idx].Status = next.Status
		items[idx].Version = next.Version
		items[idx].UpdatedAt = time.Now().UTC()

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := set(ctx, pipe, itemsKey, items); err != nil {
				return err
			}
			if saleID != "" {
				return set(ctx, pipe, salesKey, sales)
			}
			return nil
		})
		if err != nil {
			return err
		}

		level = next
		found = true
		return nil
	}, keys...)
	if err != nil {
		return domain.StockLevel{}, false, err
	}
	return level, found, nil
}
