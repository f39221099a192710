// internal/core/ports/inventory_repository.go
package ports

import (
	"context"

	"github.com/ammerola/jewelry-be/internal/core/domain"
)

// InventoryRepository defines the persistence port for inventory.
// It is implemented by the PostgreSQL adapter and the local store adapter,
// and both must pass the contract suite in portstest.
type InventoryRepository interface {
	Save(ctx context.Context, item *domain.InventoryItem) error
	FindByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	// FindByIDs returns the items that exist; unknown ids are absent from the map
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.InventoryItem, error)
	List(ctx context.Context, params InventoryListParams) ([]*domain.InventoryItem, error)

	// FetchStockSnapshot reads stock and status for ids. Unknown ids are absent.
	FetchStockSnapshot(ctx context.Context, ids []string) (map[string]domain.StockLevel, error)
	// ApplyStockDeltas reduces stock by each delta, clamping at zero, and
	// returns the resulting levels. Ids that no longer exist are skipped.
	// Writes that could not land are reported in a *domain.PartialFailureError
	// alongside the levels that did.
	ApplyStockDeltas(ctx context.Context, deltas domain.StockDelta) ([]domain.StockLevel, error)
}

// InventoryListParams filters inventory listings
type InventoryListParams struct {
	InStockOnly bool
	Category    string
	Limit       int
}
