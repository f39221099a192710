package localstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/jewelry-be/internal/adapters/localstore"
	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
	"github.com/ammerola/jewelry-be/internal/core/ports/portstest"
	"github.com/ammerola/jewelry-be/internal/core/services"
	"github.com/ammerola/jewelry-be/test/helpers"
)

func newStore(t *testing.T) (*localstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return localstore.NewStore(client, "test", localstore.DefaultRetries, helpers.TestLogger()), mr
}

func TestStore_Contract(t *testing.T) {
	portstest.Run(t, func(t *testing.T) portstest.Backend {
		store, _ := newStore(t)
		return portstest.Backend{
			Inventory:  store.Inventory(),
			Sales:      store.Sales(),
			Transactor: store,
		}
	})
}

func TestStore_Key(t *testing.T) {
	store, _ := newStore(t)
	assert.Equal(t, "test:inventory", store.Key("inventory"))
}

func TestStore_DefaultNamespace(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := localstore.NewStore(client, "", -1, helpers.TestLogger())

	require.NoError(t, store.Inventory().Save(context.Background(), portstest.NewItem("Ring", 1)))
	assert.True(t, mr.Exists("jewelry:inventory"))
}

func TestStore_CollectionsAreJSONArrays(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	item := portstest.NewItem("Signet", 3)
	require.NoError(t, store.Inventory().Save(ctx, item))

	raw, err := mr.Get("test:inventory")
	require.NoError(t, err)
	assert.Contains(t, raw, `"name":"Signet"`)
	assert.Equal(t, byte('['), raw[0])
}

func TestStore_CorruptCollection(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("test:inventory", "{not json"))

	_, err := store.Inventory().FindByID(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestStore_Unavailable(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	tests := []struct {
		name string
		call func(ctx context.Context) error
	}{
		{
			name: "ping",
			call: store.Ping,
		},
		{
			name: "snapshot",
			call: func(ctx context.Context) error {
				_, err := store.Inventory().FetchStockSnapshot(ctx, []string{"a"})
				return err
			},
		},
		{
			name: "apply_deltas",
			call: func(ctx context.Context) error {
				_, err := store.Inventory().ApplyStockDeltas(ctx, domain.StockDelta{"a": 1})
				return err
			},
		},
		{
			name: "save_header",
			call: func(ctx context.Context) error {
				sale, _ := portstest.NewStagedSale("2024-01-01", "", time.Now())
				return store.Sales().SaveHeader(ctx, sale)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrRepositoryUnavailable)
		})
	}
}

func TestStore_SweepSkipsWhenLocked(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	sale, _ := portstest.NewStagedSale("2024-01-01", "", time.Now().Add(-time.Hour))
	require.NoError(t, store.Sales().SaveHeader(ctx, sale))

	require.NoError(t, mr.Set("test:locks:sweep", "someone-else"))

	swept, err := store.Sales().SweepStaged(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, swept)

	mr.Del("test:locks:sweep")
	swept, err = store.Sales().SweepStaged(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
}

func TestStore_ApplyDeltasSkipsRemovedItem(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	item := portstest.NewItem("Locket", 2)
	require.NoError(t, store.Inventory().Save(ctx, item))
	mr.Del("test:inventory")

	levels, err := store.Inventory().ApplyStockDeltas(ctx, domain.StockDelta{item.ID: 1})
	require.NoError(t, err)
	assert.Empty(t, levels)
}

// failingFinalize is a sale repository whose Finalize never lands
type failingFinalize struct {
	ports.SaleRepository
}

func (failingFinalize) Finalize(context.Context, string) error {
	return domain.Unavailable("finalize", errors.New("connection reset"))
}

func TestStore_SweepRestocksUnfinalizedSale(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	item := portstest.NewItem("Solitaire", 5)
	require.NoError(t, store.Inventory().Save(ctx, item))

	service := services.NewSaleService(services.SaleServiceDeps{
		Inventory:  store.Inventory(),
		Sales:      failingFinalize{SaleRepository: store.Sales()},
		Transactor: store,
	}, time.Second, helpers.TestLogger())

	draft := helpers.CreateTestDraft(item)
	draft.Lines[0].Quantity = 2

	result, err := service.CommitSale(ctx, draft)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrFinalizeFailed)

	var commitErr *domain.CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.False(t, commitErr.Retryable())
	assert.False(t, commitErr.RolledBack)
	require.NotEmpty(t, commitErr.HeaderID)

	got, err := store.Inventory().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	raw, err := mr.Get("test:sales")
	require.NoError(t, err)
	assert.Contains(t, raw, `"restock":{"`+item.ID+`":2}`)

	swept, err := store.Sales().SweepStaged(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err = store.Inventory().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	assert.Equal(t, domain.DeriveStatus(5), got.Status)

	_, err = store.Sales().FindByID(ctx, commitErr.HeaderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RestockRecordsUnitsActuallyRemoved(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	item := portstest.NewItem("Bangle", 1)
	require.NoError(t, store.Inventory().Save(ctx, item))
	sale, lines := portstest.NewStagedSale("2024-01-01", "", time.Now().Add(-time.Hour))

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := store.Sales().SaveHeader(ctx, sale); err != nil {
			return err
		}
		if err := store.Sales().SaveLines(ctx, lines); err != nil {
			return err
		}
		levels, err := store.Inventory().ApplyStockDeltas(ctx, domain.StockDelta{item.ID: 3})
		if err != nil {
			return err
		}
		require.Len(t, levels, 1)
		assert.Equal(t, 2, levels[0].Shortfall)
		return nil
	})
	require.NoError(t, err)

	raw, err := mr.Get("test:sales")
	require.NoError(t, err)
	assert.Contains(t, raw, `"restock":{"`+item.ID+`":1}`)

	swept, err := store.Sales().SweepStaged(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := store.Inventory().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestStore_FinalizeClearsRestock(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	item := portstest.NewItem("Pendant", 4)
	require.NoError(t, store.Inventory().Save(ctx, item))
	sale, lines := portstest.NewStagedSale("2024-01-01", "", time.Now().Add(-time.Hour))

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := store.Sales().SaveHeader(ctx, sale); err != nil {
			return err
		}
		if err := store.Sales().SaveLines(ctx, lines); err != nil {
			return err
		}
		if _, err := store.Inventory().ApplyStockDeltas(ctx, domain.StockDelta{item.ID: 1}); err != nil {
			return err
		}
		return store.Sales().Finalize(ctx, sale.ID)
	})
	require.NoError(t, err)

	raw, err := mr.Get("test:sales")
	require.NoError(t, err)
	assert.NotContains(t, raw, "restock")

	swept, err := store.Sales().SweepStaged(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, swept)

	got, err := store.Inventory().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestStore_StockUntouchedWhenStagedSaleMissing(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	item := portstest.NewItem("Cuff", 2)
	require.NoError(t, store.Inventory().Save(ctx, item))
	sale, _ := portstest.NewStagedSale("2024-01-01", "", time.Now())

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := store.Sales().SaveHeader(ctx, sale); err != nil {
			return err
		}
		mr.Del("test:sales")
		_, err := store.Inventory().ApplyStockDeltas(ctx, domain.StockDelta{item.ID: 1})
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.Inventory().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}
