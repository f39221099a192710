// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// CleanupProcessor removes staged sale headers that were never finalized
type CleanupProcessor struct {
	sales  ports.SaleRepository
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(sales ports.SaleRepository, maxAge time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		sales:  sales,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// SweepStagedSales deletes staged sales older than the configured max age
func (p *CleanupProcessor) SweepStagedSales(ctx context.Context, _ *asynq.Task) error {
	cutoff := p.now().UTC().Add(-p.maxAge)

	removed, err := p.sales.SweepStaged(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to sweep staged sales: %w", err)
	}

	p.logger.InfoContext(ctx, "staged sales swept",
		slog.Time("cutoff", cutoff),
		slog.Int("removed", removed))

	return nil
}
