// internal/core/services/sale_commit.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
	"github.com/ammerola/jewelry-be/internal/pkg/logger"
)

const tracerName = "github.com/ammerola/jewelry-be/internal/core/services"

// DefaultRepositoryTimeout bounds every repository call made during a commit
const DefaultRepositoryTimeout = 5 * time.Second

// CommitStage names the steps of a sale commit
type CommitStage string

const (
	StageDrafting         CommitStage = "drafting"
	StageValidating       CommitStage = "validating"
	StagePersistingHeader CommitStage = "persisting_header"
	StagePersistingLines  CommitStage = "persisting_lines"
	StageReconcilingStock CommitStage = "reconciling_stock"
	StageCommitted        CommitStage = "committed"
)

// SaleServiceDeps holds the collaborators of the sale service.
// Notifier and Invalidator are optional.
type SaleServiceDeps struct {
	Inventory   ports.InventoryRepository
	Sales       ports.SaleRepository
	Transactor  ports.Transactor
	Notifier    ports.Notifier
	Invalidator ports.QueryInvalidator
}

// SaleService records sales and reconciles inventory stock
type SaleService struct {
	inventory   ports.InventoryRepository
	sales       ports.SaleRepository
	tx          ports.Transactor
	notifier    ports.Notifier
	invalidator ports.QueryInvalidator
	composer    *SaleComposer
	timeout     time.Duration
	tracer      trace.Tracer
	now         func() time.Time
	logger      *slog.Logger
}

// Statically assert that *SaleService implements the SaleService interface.
var _ ports.SaleService = (*SaleService)(nil)

// NewSaleService creates a new sale service
func NewSaleService(deps SaleServiceDeps, timeout time.Duration, logger *slog.Logger) *SaleService {
	if timeout <= 0 {
		timeout = DefaultRepositoryTimeout
	}

	return &SaleService{
		inventory:   deps.Inventory,
		sales:       deps.Sales,
		tx:          deps.Transactor,
		notifier:    deps.Notifier,
		invalidator: deps.Invalidator,
		composer:    NewSaleComposer(),
		timeout:     timeout,
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
		logger:      logger.With(slog.String("service", "sale")),
	}
}

// CommitSale validates the draft, persists the sale and its lines, and
// reduces stock for every linked item.
func (s *SaleService) CommitSale(ctx context.Context, draft domain.SaleDraft) (*ports.CommitResult, error) {
	ctx, span := s.tracer.Start(ctx, "sale.commit",
		trace.WithAttributes(attribute.Int("sale.lines_requested", len(draft.Lines))))
	defer span.End()

	result, err := s.commit(ctx, draft)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.notifyFailure(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("sale.id", result.Sale.ID),
		attribute.Bool("sale.replayed", result.Replayed),
	)

	if !result.Replayed {
		s.afterCommit(ctx, result)
	}

	return result, nil
}

func (s *SaleService) commit(ctx context.Context, draft domain.SaleDraft) (*ports.CommitResult, error) {
	s.stage(ctx, StageDrafting)
	if err := draft.Normalize(s.now()); err != nil {
		return nil, &domain.CommitError{Kind: domain.ErrInvalidDraft, Err: err}
	}

	if draft.IdempotencyKey != "" {
		existing, err := s.findCommitted(ctx, draft.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.InfoContext(ctx, "returning previously committed sale",
				slog.String("sale_id", existing.ID),
				slog.String("idempotency_key", draft.IdempotencyKey))
			return &ports.CommitResult{Sale: existing, Replayed: true}, nil
		}
	}

	items, err := s.resolveItems(ctx, draft.Lines)
	if err != nil {
		return nil, err
	}

	comp := s.composer.Compose(draft.Lines, items)
	for _, rej := range comp.Rejections {
		s.logger.InfoContext(ctx, "sale line rejected",
			slog.Int("index", rej.Index),
			slog.String("reason", rej.Reason))
	}
	if len(comp.Lines) == 0 {
		return nil, &domain.CommitError{Kind: domain.ErrNoValidLines, Rejections: comp.Rejections}
	}

	s.stage(ctx, StageValidating)
	deltas := domain.AggregateDeltas(comp.Lines)
	if err := s.validateStock(ctx, deltas, items); err != nil {
		return nil, err
	}

	sale := domain.NewSale(draft, comp.Total)
	sale.AttachLines(comp.Lines)
	ctx = logger.WithSaleID(ctx, sale.ID)

	result := &ports.CommitResult{Sale: sale, Rejections: comp.Rejections}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.persist(ctx, sale, deltas, result)
	})
	if err != nil {
		if errors.Is(err, domain.ErrIdempotencyConflict) {
			return s.resolveKeyConflict(ctx, draft.IdempotencyKey, err)
		}
		var commitErr *domain.CommitError
		if errors.As(err, &commitErr) {
			return nil, commitErr
		}
		return nil, &domain.CommitError{Kind: domain.ErrRepositoryUnavailable, Err: err}
	}

	sale.Status = domain.SaleCommitted
	s.stage(ctx, StageCommitted)

	s.logger.InfoContext(ctx, "sale committed",
		slog.String("sale_id", sale.ID),
		slog.Int("lines", len(sale.Lines)),
		slog.String("amount", domain.DisplayAmount(sale.Amount)))

	return result, nil
}

// persist runs the write stages. It is called inside the transactor.
func (s *SaleService) persist(ctx context.Context, sale *domain.Sale, deltas domain.StockDelta, result *ports.CommitResult) error {
	s.stage(ctx, StagePersistingHeader)
	err := s.call(ctx, "save sale header", func(ctx context.Context) error {
		return s.sales.SaveHeader(ctx, sale)
	})
	if err != nil {
		if errors.Is(err, domain.ErrIdempotencyConflict) {
			return err
		}
		kind := domain.ErrHeaderWriteFailed
		if errors.Is(err, domain.ErrRepositoryUnavailable) {
			kind = domain.ErrRepositoryUnavailable
		}
		s.logger.ErrorContext(ctx, "failed to write sale header", slog.String("error", err.Error()))
		return &domain.CommitError{Kind: kind, Err: err}
	}

	s.stage(ctx, StagePersistingLines)
	err = s.call(ctx, "save sale lines", func(ctx context.Context) error {
		return s.sales.SaveLines(ctx, sale.Lines)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to write sale lines", slog.String("error", err.Error()))
		return s.writeFailure(domain.ErrLineWriteFailed, sale.ID, err)
	}

	s.stage(ctx, StageReconcilingStock)
	if len(deltas) > 0 {
		var levels []domain.StockLevel
		err = s.call(ctx, "apply stock deltas", func(ctx context.Context) error {
			var applyErr error
			levels, applyErr = s.inventory.ApplyStockDeltas(ctx, deltas)
			return applyErr
		})
		result.Levels = levels

		var partial *domain.PartialFailureError
		switch {
		case errors.As(err, &partial):
			result.Warning = &domain.CommitError{
				Kind:      domain.ErrStockReconciliationPartial,
				HeaderID:  sale.ID,
				FailedIDs: partial.FailedIDs,
				Err:       partial.Err,
			}
			s.logger.WarnContext(ctx, "stock reconciliation partial",
				slog.Any("failed_ids", partial.FailedIDs),
				slog.String("error", partial.Error()))
		case err != nil:
			s.logger.ErrorContext(ctx, "failed to apply stock deltas", slog.String("error", err.Error()))
			return &domain.CommitError{Kind: domain.ErrRepositoryUnavailable, Err: err}
		}

		for _, level := range levels {
			if level.Shortfall > 0 {
				s.logger.WarnContext(ctx, "stock clamped at zero",
					slog.String("item_id", level.ItemID),
					slog.Int("shortfall", level.Shortfall))
			}
		}
	}

	err = s.call(ctx, "finalize sale", func(ctx context.Context) error {
		return s.sales.Finalize(ctx, sale.ID)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to finalize sale",
			slog.Any("stock", result.Levels),
			slog.Bool("rolled_back", s.tx.Atomic()),
			slog.String("error", err.Error()))
		return s.writeFailure(domain.ErrFinalizeFailed, sale.ID, err)
	}

	return nil
}

// writeFailure builds the error for a write that failed after the header was
// stored. Atomic backends have rolled the header back; otherwise the staged
// header is reported so it can be found until the sweep removes it.
func (s *SaleService) writeFailure(kind error, saleID string, err error) *domain.CommitError {
	if s.tx.Atomic() {
		return &domain.CommitError{Kind: kind, RolledBack: true, Err: err}
	}
	return &domain.CommitError{Kind: kind, HeaderID: saleID, Err: err}
}

// validateStock rejects the draft before any write when an item cannot
// cover the total quantity requested for it
func (s *SaleService) validateStock(ctx context.Context, deltas domain.StockDelta, items map[string]*domain.InventoryItem) error {
	if len(deltas) == 0 {
		return nil
	}

	var snapshot map[string]domain.StockLevel
	err := s.call(ctx, "fetch stock snapshot", func(ctx context.Context) error {
		var fetchErr error
		snapshot, fetchErr = s.inventory.FetchStockSnapshot(ctx, deltas.IDs())
		return fetchErr
	})
	if err != nil {
		return &domain.CommitError{Kind: domain.ErrRepositoryUnavailable, Err: err}
	}

	for _, id := range deltas.IDs() {
		level, ok := snapshot[id]
		if !ok {
			continue
		}
		if !domain.CanSatisfy(deltas[id], &level.Stock) {
			name := id
			if item := items[id]; item != nil {
				name = item.Name
			}
			return domain.NewInsufficientStock(name, deltas[id], level.Stock)
		}
	}

	return nil
}

func (s *SaleService) resolveItems(ctx context.Context, lines []domain.SaleLineRequest) (map[string]*domain.InventoryItem, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if !line.Linked() {
			continue
		}
		if _, ok := seen[line.InventoryItemID]; ok {
			continue
		}
		seen[line.InventoryItemID] = struct{}{}
		ids = append(ids, line.InventoryItemID)
	}

	if len(ids) == 0 {
		return map[string]*domain.InventoryItem{}, nil
	}

	var items map[string]*domain.InventoryItem
	err := s.call(ctx, "resolve inventory items", func(ctx context.Context) error {
		var findErr error
		items, findErr = s.inventory.FindByIDs(ctx, ids)
		return findErr
	})
	if err != nil {
		return nil, &domain.CommitError{Kind: domain.ErrRepositoryUnavailable, Err: err}
	}

	return items, nil
}

func (s *SaleService) findCommitted(ctx context.Context, key string) (*domain.Sale, error) {
	var existing *domain.Sale
	err := s.call(ctx, "find sale by idempotency key", func(ctx context.Context) error {
		var findErr error
		existing, findErr = s.sales.FindByIdempotencyKey(ctx, key)
		return findErr
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.CommitError{Kind: domain.ErrRepositoryUnavailable, Err: err}
	}
	return existing, nil
}

// resolveKeyConflict handles a concurrent commit that claimed the same key first
func (s *SaleService) resolveKeyConflict(ctx context.Context, key string, cause error) (*ports.CommitResult, error) {
	existing, err := s.findCommitted(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ports.CommitResult{Sale: existing, Replayed: true}, nil
	}
	return nil, &domain.CommitError{Kind: domain.ErrHeaderWriteFailed, Err: cause}
}

// call runs one repository operation under the per-call timeout
func (s *SaleService) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "repository."+op)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}

	span.RecordError(err)
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrRepositoryUnavailable) {
		return domain.Unavailable(op, err)
	}
	return err
}

func (s *SaleService) stage(ctx context.Context, stage CommitStage) {
	trace.SpanFromContext(ctx).AddEvent(string(stage))
	s.logger.DebugContext(ctx, "sale commit stage", slog.String("stage", string(stage)))
}

func (s *SaleService) afterCommit(ctx context.Context, result *ports.CommitResult) {
	sale := result.Sale

	if s.invalidator != nil {
		ids := make([]string, 0, len(result.Levels))
		for _, level := range result.Levels {
			ids = append(ids, level.ItemID)
		}
		if err := s.invalidator.InvalidateInventory(ctx, ids...); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate inventory views", slog.String("error", err.Error()))
		}
		if err := s.invalidator.InvalidateSales(ctx, sale.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate sales views", slog.String("error", err.Error()))
		}
	}

	n := domain.SaleNotification{
		Level:      domain.NotifySuccess,
		SaleID:     sale.ID,
		Message:    fmt.Sprintf("sale recorded with %d item(s)", len(sale.Lines)),
		Amount:     domain.DisplayAmount(sale.Amount),
		OccurredAt: s.now().UTC(),
	}
	if warnings := result.Warnings(); len(warnings) > 0 {
		n.Level = domain.NotifyWarning
		n.Message = fmt.Sprintf("sale recorded with warnings: %v", warnings)
		if result.Warning != nil {
			n.FailedIDs = result.Warning.FailedIDs
		}
	}
	s.notify(ctx, n)
}

func (s *SaleService) notifyFailure(ctx context.Context, err error) {
	n := domain.SaleNotification{
		Level:      domain.NotifyError,
		Message:    err.Error(),
		OccurredAt: s.now().UTC(),
	}
	var commitErr *domain.CommitError
	if errors.As(err, &commitErr) {
		n.SaleID = commitErr.HeaderID
	}
	s.notify(ctx, n)
}

func (s *SaleService) notify(ctx context.Context, n domain.SaleNotification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to send sale notification",
			slog.String("level", string(n.Level)),
			slog.String("error", err.Error()))
	}
}

// GetSale returns a committed sale with its lines
func (s *SaleService) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("sale %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

// ListSales returns committed sales, newest first
func (s *SaleService) ListSales(ctx context.Context, params ports.SaleListParams) ([]*domain.Sale, error) {
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 100
	}

	sales, err := s.sales.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}
