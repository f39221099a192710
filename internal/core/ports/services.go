// internal/core/ports/services.go
package ports

import (
	"context"
	"fmt"

	"github.com/ammerola/jewelry-be/internal/core/domain"
)

// SaleService defines the application service port for recording sales
type SaleService interface {
	CommitSale(ctx context.Context, draft domain.SaleDraft) (*CommitResult, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, params SaleListParams) ([]*domain.Sale, error)
}

// InventoryService defines the application service port for inventory
type InventoryService interface {
	CreateItem(ctx context.Context, item *domain.InventoryItem) error
	GetByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	List(ctx context.Context, params InventoryListParams) ([]*domain.InventoryItem, error)
}

// CommitResult is the outcome of a committed sale. Warning is set, with kind
// domain.ErrStockReconciliationPartial, when the sale landed but some stock
// writes did not.
type CommitResult struct {
	Sale       *domain.Sale           `json:"sale"`
	Rejections []domain.LineRejection `json:"rejections,omitempty"`
	Levels     []domain.StockLevel    `json:"stock,omitempty"`
	Warning    *domain.CommitError    `json:"-"`
	Replayed   bool                   `json:"replayed,omitempty"`
}

// Warnings renders the operator-facing warnings for the result
func (r *CommitResult) Warnings() []string {
	var out []string
	if r.Warning != nil {
		out = append(out, r.Warning.Error())
	}
	for _, level := range r.Levels {
		if level.Shortfall > 0 {
			out = append(out, fmt.Sprintf("item %s oversold by %d", level.ItemID, level.Shortfall))
		}
	}
	return out
}
