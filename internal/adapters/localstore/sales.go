// internal/adapters/localstore/sales.go
package localstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// sweepLockTTL bounds how long one sweeper may hold the sweep lock
const sweepLockTTL = 30 * time.Second

// saleRepository implements ports.SaleRepository over the store
type saleRepository struct {
	store  *Store
	logger *slog.Logger
}

// Statically assert that *saleRepository implements the SaleRepository interface.
var _ ports.SaleRepository = (*saleRepository)(nil)

func (r *saleRepository) salesKey() string {
	return r.store.Key(collectionSales)
}

func (r *saleRepository) linesKey() string {
	return r.store.Key(collectionSaleItems)
}

// SaveHeader appends a staged sale header
func (r *saleRepository) SaveHeader(ctx context.Context, sale *domain.Sale) error {
	header := *sale
	header.Status = domain.SaleStaged
	header.Lines = nil

	err := update(ctx, r.store, r.salesKey(), func(sales []domain.Sale) ([]domain.Sale, error) {
		for _, existing := range sales {
			if existing.ID == header.ID {
				return nil, fmt.Errorf("sale %s: %w", header.ID, domain.ErrIdempotencyConflict)
			}
			if header.IdempotencyKey != "" && existing.IdempotencyKey == header.IdempotencyKey {
				return nil, domain.ErrIdempotencyConflict
			}
		}
		return append(sales, header), nil
	})
	if err != nil {
		return err
	}

	if j := journalFrom(ctx); j != nil {
		j.saleID = header.ID
	}

	r.logger.DebugContext(ctx, "sale header staged", slog.String("sale_id", sale.ID))
	return nil
}

// SaveLines appends all lines of a sale in one write
func (r *saleRepository) SaveLines(ctx context.Context, lines []domain.SaleLineRecord) error {
	if len(lines) == 0 {
		return nil
	}

	err := update(ctx, r.store, r.linesKey(), func(stored []domain.SaleLineRecord) ([]domain.SaleLineRecord, error) {
		return append(stored, lines...), nil
	})
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "sale lines saved",
		slog.String("sale_id", lines[0].SaleID),
		slog.Int("count", len(lines)))
	return nil
}

// Finalize marks a staged sale committed. Its stock can no longer be
// returned by a sweep.
func (r *saleRepository) Finalize(ctx context.Context, saleID string) error {
	return update(ctx, r.store, r.salesKey(), func(sales []domain.Sale) ([]domain.Sale, error) {
		sale := findStaged(sales, saleID)
		if sale == nil {
			return nil, fmt.Errorf("staged sale %s: %w", saleID, domain.ErrNotFound)
		}
		sale.Status = domain.SaleCommitted
		sale.Restock = nil
		return sales, nil
	})
}

// findStaged returns a pointer into sales to the staged sale with id
func findStaged(sales []domain.Sale, id string) *domain.Sale {
	for i := range sales {
		if sales[i].ID == id && sales[i].Status == domain.SaleStaged {
			return &sales[i]
		}
	}
	return nil
}

// FindByID returns a committed sale with its lines
func (r *saleRepository) FindByID(ctx context.Context, id string) (*domain.Sale, error) {
	return r.findOne(ctx, func(s domain.Sale) bool { return s.ID == id })
}

// FindByIdempotencyKey returns the committed sale created with key
func (r *saleRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, func(s domain.Sale) bool { return s.IdempotencyKey == key })
}

func (r *saleRepository) findOne(ctx context.Context, match func(domain.Sale) bool) (*domain.Sale, error) {
	sales, err := load[domain.Sale](ctx, r.store.client, r.salesKey())
	if err != nil {
		return nil, err
	}

	for i := range sales {
		if sales[i].Status != domain.SaleCommitted || !match(sales[i]) {
			continue
		}
		sale := sales[i]

		lines, err := load[domain.SaleLineRecord](ctx, r.store.client, r.linesKey())
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if line.SaleID == sale.ID {
				sale.Lines = append(sale.Lines, line)
			}
		}
		return &sale, nil
	}

	return nil, domain.ErrNotFound
}

// List returns committed sale headers, newest first
func (r *saleRepository) List(ctx context.Context, params ports.SaleListParams) ([]*domain.Sale, error) {
	for _, bound := range []string{params.From, params.To} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, bound); err != nil {
			return nil, fmt.Errorf("invalid date bound %q: %w", bound, err)
		}
	}

	sales, err := load[domain.Sale](ctx, r.store.client, r.salesKey())
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Sale, 0, len(sales))
	for i := range sales {
		sale := &sales[i]
		if sale.Status != domain.SaleCommitted {
			continue
		}
		if params.From != "" && sale.Date < params.From {
			continue
		}
		if params.To != "" && sale.Date > params.To {
			continue
		}
		out = append(out, sale)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Date != out[b].Date {
			return out[a].Date > out[b].Date
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})

	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

// SweepStaged removes staged sales created before olderThan and their lines,
// returning the stock recorded on each to inventory in the same write that
// drops the header. Only one sweeper runs at a time; a sweep that finds the
// lock held is a no-op.
func (r *saleRepository) SweepStaged(ctx context.Context, olderThan time.Time) (int, error) {
	lock, err := r.store.locker.Obtain(ctx, r.store.Key(lockSweep), sweepLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		r.logger.DebugContext(ctx, "sweep already running elsewhere")
		return 0, nil
	}
	if err != nil {
		return 0, classify("obtain sweep lock", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.WarnContext(ctx, "failed to release sweep lock", slog.String("error", err.Error()))
		}
	}()

	swept := make(map[string]struct{})
	restocked := 0
	salesKey, itemsKey := r.salesKey(), r.store.Key(collectionInventory)

	err = watch(ctx, r.store, func(tx *redis.Tx) error {
		clear(swept)
		restocked = 0

		sales, err := load[domain.Sale](ctx, tx, salesKey)
		if err != nil {
			return err
		}
		items, err := load[domain.InventoryItem](ctx, tx, itemsKey)
		if err != nil {
			return err
		}
		byID := make(map[string]*domain.InventoryItem, len(items))
		for i := range items {
			byID[items[i].ID] = &items[i]
		}

		kept := make([]domain.Sale, 0, len(sales))
		for _, sale := range sales {
			if sale.Status != domain.SaleStaged || !sale.CreatedAt.Before(olderThan) {
				kept = append(kept, sale)
				continue
			}
			swept[sale.ID] = struct{}{}
			for itemID, units := range sale.Restock {
				item, ok := byID[itemID]
				if !ok || units <= 0 {
					continue
				}
				item.Stock += units
				item.Status = domain.DeriveStatus(item.Stock)
				item.Version++
				item.UpdatedAt = time.Now().UTC()
				restocked++
			}
		}
		if len(swept) == 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := set(ctx, pipe, salesKey, kept); err != nil {
				return err
			}
			if restocked > 0 {
				return set(ctx, pipe, itemsKey, items)
			}
			return nil
		})
		return err
	}, salesKey, itemsKey)
	if err != nil {
		return 0, err
	}
	if len(swept) == 0 {
		return 0, nil
	}

	err = update(ctx, r.store, r.linesKey(), func(lines []domain.SaleLineRecord) ([]domain.SaleLineRecord, error) {
		kept := lines[:0]
		for _, line := range lines {
			if _, ok := swept[line.SaleID]; !ok {
				kept = append(kept, line)
			}
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "swept staged sales",
		slog.Int("count", len(swept)),
		slog.Int("items_restocked", restocked))
	return len(swept), nil
}
