// internal/core/ports/sale_repository.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/jewelry-be/internal/core/domain"
)

// SaleRepository defines the persistence port for sale headers and lines
type SaleRepository interface {
	// SaveHeader writes a staged header. A reused idempotency key yields
	// domain.ErrIdempotencyConflict.
	SaveHeader(ctx context.Context, sale *domain.Sale) error
	SaveLines(ctx context.Context, lines []domain.SaleLineRecord) error
	// Finalize marks a staged sale committed, making it visible to readers
	Finalize(ctx context.Context, saleID string) error

	FindByID(ctx context.Context, id string) (*domain.Sale, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, error)
	List(ctx context.Context, params SaleListParams) ([]*domain.Sale, error)

	// SweepStaged removes sales still staged and created before olderThan,
	// together with their lines, and returns how many were removed
	SweepStaged(ctx context.Context, olderThan time.Time) (int, error)
}

// SaleListParams filters sale listings
type SaleListParams struct {
	From  string
	To    string
	Limit int
}
