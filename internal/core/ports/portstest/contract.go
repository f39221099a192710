// internal/core/ports/portstest/contract.go

// Package portstest holds the behavioral contract every persistence backend
// must satisfy. Adapter packages run it against their own setup.
package portstest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// Backend is one wired set of repositories sharing a store
type Backend struct {
	Inventory  ports.InventoryRepository
	Sales      ports.SaleRepository
	Transactor ports.Transactor
}

// Factory returns a fresh, empty backend for one subtest
type Factory func(t *testing.T) Backend

// Run executes the whole contract
func Run(t *testing.T, newBackend Factory) {
	t.Run("Inventory", func(t *testing.T) { RunInventoryContract(t, newBackend) })
	t.Run("Sales", func(t *testing.T) { RunSaleContract(t, newBackend) })
}

// NewItem returns a valid, storage-ready item with the given name and stock
func NewItem(name string, stock int) *domain.InventoryItem {
	item := &domain.InventoryItem{
		ID:           uuid.NewString(),
		Name:         name,
		Category:     "rings",
		Karat:        "18K",
		Weight:       decimal.RequireFromString("3.5"),
		PricePerGram: decimal.RequireFromString("61.25"),
		Stock:        stock,
		Condition:    domain.ConditionNew,
	}
	item.PrepareForStorage()
	return item
}

func seed(t *testing.T, repo ports.InventoryRepository, items ...*domain.InventoryItem) {
	t.Helper()
	for _, item := range items {
		require.NoError(t, repo.Save(context.Background(), item))
	}
}

// RunInventoryContract checks the inventory repository behavior
func RunInventoryContract(t *testing.T, newBackend Factory) {
	t.Run("save and find", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		item := NewItem("Gold Band", 4)
		seed(t, b.Inventory, item)
		assert.Equal(t, int64(1), item.Version)

		got, err := b.Inventory.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gold Band", got.Name)
		assert.Equal(t, 4, got.Stock)
		assert.Equal(t, domain.StatusAvailable, got.Status)
		assert.True(t, item.Weight.Equal(got.Weight))
		assert.True(t, item.PricePerGram.Equal(got.PricePerGram))

		item.Name = "Gold Band II"
		require.NoError(t, b.Inventory.Save(ctx, item))
		assert.Equal(t, int64(2), item.Version)
	})

	t.Run("find missing item", func(t *testing.T) {
		b := newBackend(t)

		_, err := b.Inventory.FindByID(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("find by ids omits unknown", func(t *testing.T) {
		b := newBackend(t)
		a, c := NewItem("A", 1), NewItem("C", 1)
		seed(t, b.Inventory, a, c)

		found, err := b.Inventory.FindByIDs(context.Background(), []string{a.ID, "missing", c.ID})
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Contains(t, found, a.ID)
		assert.Contains(t, found, c.ID)
	})

	t.Run("list filters and orders by name", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		seed(t, b.Inventory, NewItem("Pendant", 2), NewItem("Anklet", 0), NewItem("Bracelet", 7))

		all, err := b.Inventory.List(ctx, ports.InventoryListParams{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Anklet", all[0].Name)
		assert.Equal(t, "Bracelet", all[1].Name)
		assert.Equal(t, "Pendant", all[2].Name)

		inStock, err := b.Inventory.List(ctx, ports.InventoryListParams{InStockOnly: true})
		require.NoError(t, err)
		require.Len(t, inStock, 2)
		assert.Equal(t, "Bracelet", inStock[0].Name)

		limited, err := b.Inventory.List(ctx, ports.InventoryListParams{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("snapshot of empty and unknown ids", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		levels, err := b.Inventory.FetchStockSnapshot(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, levels)

		levels, err = b.Inventory.FetchStockSnapshot(ctx, []string{"nope"})
		require.NoError(t, err)
		assert.Empty(t, levels)
	})

	t.Run("apply deltas", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		ring, chain, coin := NewItem("Ring", 10), NewItem("Chain", 2), NewItem("Coin", 1)
		seed(t, b.Inventory, ring, chain, coin)

		levels, err := b.Inventory.ApplyStockDeltas(ctx, domain.StockDelta{
			ring.ID:  3,
			chain.ID: 2,
			coin.ID:  4,
			"ghost":  1,
		})
		require.NoError(t, err)
		require.Len(t, levels, 3)

		byID := make(map[string]domain.StockLevel, len(levels))
		for _, level := range levels {
			byID[level.ItemID] = level
		}

		assert.Equal(t, 7, byID[ring.ID].Stock)
		assert.Equal(t, domain.StatusAvailable, byID[ring.ID].Status)
		assert.Equal(t, 0, byID[chain.ID].Stock)
		assert.Equal(t, domain.StatusOut, byID[chain.ID].Status)
		assert.Equal(t, 0, byID[coin.ID].Stock)
		assert.Equal(t, 3, byID[coin.ID].Shortfall)
		assert.NotContains(t, byID, "ghost")

		snapshot, err := b.Inventory.FetchStockSnapshot(ctx, []string{ring.ID, chain.ID, coin.ID})
		require.NoError(t, err)
		assert.Equal(t, 7, snapshot[ring.ID].Stock)
		assert.Equal(t, ring.Version+1, snapshot[ring.ID].Version)
		assert.Equal(t, domain.StatusOut, snapshot[chain.ID].Status)
		assert.Equal(t, domain.StatusOut, snapshot[coin.ID].Status)
	})

	t.Run("apply empty deltas", func(t *testing.T) {
		b := newBackend(t)

		levels, err := b.Inventory.ApplyStockDeltas(context.Background(), domain.StockDelta{})
		require.NoError(t, err)
		assert.Empty(t, levels)
	})

	t.Run("concurrent decrements never go negative", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		const initial, writers = 5, 8
		item := NewItem("Hoop", initial)
		seed(t, b.Inventory, item)

		var mu sync.Mutex
		taken := 0
		var wg sync.WaitGroup
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				levels, err := b.Inventory.ApplyStockDeltas(ctx, domain.StockDelta{item.ID: 1})
				var partial *domain.PartialFailureError
				if err != nil && !errors.As(err, &partial) {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				defer mu.Unlock()
				for _, level := range levels {
					taken += 1 - level.Shortfall
				}
			}()
		}
		wg.Wait()

		got, err := b.Inventory.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Stock, 0)
		assert.Equal(t, initial-taken, got.Stock)
		assert.Equal(t, domain.DeriveStatus(got.Stock), got.Status)
	})
}

// NewStagedSale returns a header and two lines ready to be written
func NewStagedSale(date, key string, createdAt time.Time) (*domain.Sale, []domain.SaleLineRecord) {
	lines := []domain.SaleLineRecord{
		{
			ItemName:     "first",
			Category:     "rings",
			Condition:    domain.ConditionNew,
			Weight:       decimal.RequireFromString("2"),
			PricePerGram: decimal.RequireFromString("10"),
			Quantity:     1,
			Amount:       decimal.RequireFromString("20"),
		},
		{
			ItemName:     "second",
			Category:     "chains",
			Condition:    domain.ConditionUsed,
			Weight:       decimal.RequireFromString("1.5"),
			PricePerGram: decimal.RequireFromString("4"),
			Quantity:     2,
			Amount:       decimal.RequireFromString("12"),
		},
	}

	sale := domain.NewSale(domain.SaleDraft{
		Date:           date,
		Description:    domain.DefaultSaleDescription,
		PaymentMethod:  domain.DefaultPaymentMethod,
		IdempotencyKey: key,
	}, decimal.RequireFromString("32"))
	sale.CreatedAt = createdAt.UTC().Truncate(time.Microsecond)
	sale.AttachLines(lines)
	return sale, sale.Lines
}

func commit(t *testing.T, repo ports.SaleRepository, sale *domain.Sale, lines []domain.SaleLineRecord) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.SaveHeader(ctx, sale))
	require.NoError(t, repo.SaveLines(ctx, lines))
	require.NoError(t, repo.Finalize(ctx, sale.ID))
}

// RunSaleContract checks the sale repository behavior
func RunSaleContract(t *testing.T, newBackend Factory) {
	t.Run("staged sale is invisible until finalized", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		sale, lines := NewStagedSale("2024-03-01", "", time.Now())

		require.NoError(t, b.Sales.SaveHeader(ctx, sale))
		require.NoError(t, b.Sales.SaveLines(ctx, lines))

		_, err := b.Sales.FindByID(ctx, sale.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		listed, err := b.Sales.List(ctx, ports.SaleListParams{})
		require.NoError(t, err)
		assert.Empty(t, listed)

		require.NoError(t, b.Sales.Finalize(ctx, sale.ID))

		got, err := b.Sales.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SaleCommitted, got.Status)
		assert.Equal(t, "2024-03-01", got.Date)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("32")))
		require.Len(t, got.Lines, 2)
		assert.Equal(t, "first", got.Lines[0].ItemName)
		assert.Equal(t, "second", got.Lines[1].ItemName)
		assert.Equal(t, sale.ID, got.Lines[1].SaleID)
	})

	t.Run("finalize unknown sale", func(t *testing.T) {
		b := newBackend(t)

		err := b.Sales.Finalize(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("idempotency key lookup and reuse", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		sale, lines := NewStagedSale("2024-03-02", "till-1-0001", time.Now())
		commit(t, b.Sales, sale, lines)

		got, err := b.Sales.FindByIdempotencyKey(ctx, "till-1-0001")
		require.NoError(t, err)
		assert.Equal(t, sale.ID, got.ID)

		again, _ := NewStagedSale("2024-03-02", "till-1-0001", time.Now())
		err = b.Sales.SaveHeader(ctx, again)
		assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)

		_, err = b.Sales.FindByIdempotencyKey(ctx, "other")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("sales without key never collide", func(t *testing.T) {
		b := newBackend(t)
		first, firstLines := NewStagedSale("2024-03-02", "", time.Now())
		second, secondLines := NewStagedSale("2024-03-02", "", time.Now())
		commit(t, b.Sales, first, firstLines)
		commit(t, b.Sales, second, secondLines)

		listed, err := b.Sales.List(context.Background(), ports.SaleListParams{})
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	t.Run("list orders newest first and filters dates", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		base := time.Now().Add(-time.Hour)
		for i, date := range []string{"2024-01-10", "2024-02-10", "2024-02-10", "2024-03-10"} {
			sale, lines := NewStagedSale(date, fmt.Sprintf("k-%d", i), base.Add(time.Duration(i)*time.Minute))
			commit(t, b.Sales, sale, lines)
		}

		listed, err := b.Sales.List(ctx, ports.SaleListParams{})
		require.NoError(t, err)
		require.Len(t, listed, 4)
		assert.Equal(t, "2024-03-10", listed[0].Date)
		assert.Equal(t, "k-2", listed[1].IdempotencyKey)
		assert.Equal(t, "k-1", listed[2].IdempotencyKey)
		assert.Equal(t, "2024-01-10", listed[3].Date)

		february, err := b.Sales.List(ctx, ports.SaleListParams{From: "2024-02-01", To: "2024-02-29"})
		require.NoError(t, err)
		assert.Len(t, february, 2)

		limited, err := b.Sales.List(ctx, ports.SaleListParams{Limit: 3})
		require.NoError(t, err)
		assert.Len(t, limited, 3)
	})

	t.Run("sweep removes old staged sales only", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		now := time.Now()

		stale, staleLines := NewStagedSale("2024-04-01", "stale", now.Add(-2*time.Hour))
		require.NoError(t, b.Sales.SaveHeader(ctx, stale))
		require.NoError(t, b.Sales.SaveLines(ctx, staleLines))

		fresh, freshLines := NewStagedSale("2024-04-01", "fresh", now)
		require.NoError(t, b.Sales.SaveHeader(ctx, fresh))
		require.NoError(t, b.Sales.SaveLines(ctx, freshLines))

		done, doneLines := NewStagedSale("2024-04-01", "done", now.Add(-3*time.Hour))
		commit(t, b.Sales, done, doneLines)

		swept, err := b.Sales.SweepStaged(ctx, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, swept)

		assert.ErrorIs(t, b.Sales.Finalize(ctx, stale.ID), domain.ErrNotFound)
		require.NoError(t, b.Sales.Finalize(ctx, fresh.ID))

		got, err := b.Sales.FindByID(ctx, done.ID)
		require.NoError(t, err)
		assert.Len(t, got.Lines, 2)

		// the swept key can be used again
		retry, retryLines := NewStagedSale("2024-04-01", "stale", now)
		commit(t, b.Sales, retry, retryLines)
	})

	t.Run("transactor runs the unit of work", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		sale, lines := NewStagedSale("2024-05-01", "", time.Now())

		err := b.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := b.Sales.SaveHeader(ctx, sale); err != nil {
				return err
			}
			if err := b.Sales.SaveLines(ctx, lines); err != nil {
				return err
			}
			return b.Sales.Finalize(ctx, sale.ID)
		})
		require.NoError(t, err)

		got, err := b.Sales.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Len(t, got.Lines, 2)
	})
}
