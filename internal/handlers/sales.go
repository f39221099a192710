// internal/handlers/sales.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// IdempotencyKeyHeader may carry the idempotency key instead of the body
const IdempotencyKeyHeader = "Idempotency-Key"

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	responder
	service ports.SaleService
	logger  *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(service ports.SaleService, logger *slog.Logger) *SaleHandler {
	logger = logger.With(slog.String("handler", "sale"))
	return &SaleHandler{
		responder: newResponder(logger),
		service:   service,
		logger:    logger,
	}
}

// CommitSale handles POST /api/v1/sales
func (h *SaleHandler) CommitSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CommitSaleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	draft := req.ToDomain()
	if draft.IdempotencyKey == "" {
		draft.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)
	}

	result, err := h.service.CommitSale(ctx, draft)
	if err != nil {
		h.respondCommitError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	h.respondJSON(w, status, CommitSaleResponse{
		Sale:       result.Sale,
		Rejections: result.Rejections,
		Stock:      result.Levels,
		Warnings:   result.Warnings(),
		Replayed:   result.Replayed,
	})
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	sale, err := h.service.GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Sale not found")
			return
		}

		h.logger.ErrorContext(ctx, "failed to get sale",
			slog.String("sale_id", id),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve sale")
		return
	}

	h.respondJSON(w, http.StatusOK, sale)
}

// ListSales handles GET /api/v1/sales?from=YYYY-MM-DD&to=YYYY-MM-DD&limit=N
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := ports.SaleListParams{
		From: q.Get("from"),
		To:   q.Get("to"),
	}
	for _, date := range []string{params.From, params.To} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			h.respondError(w, http.StatusBadRequest, "Dates must be formatted as YYYY-MM-DD")
			return
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			params.Limit = l
		}
	}

	sales, err := h.service.ListSales(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sales",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list sales")
		return
	}

	h.respondJSON(w, http.StatusOK, sales)
}

func (h *SaleHandler) respondCommitError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var commitErr *domain.CommitError
	if !errors.As(err, &commitErr) {
		h.logger.ErrorContext(ctx, "sale commit failed",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to record sale")
		return
	}

	status := CommitErrorStatus(commitErr)
	body := CommitErrorResponse{
		Error:      commitErr.Error(),
		Kind:       CommitErrorKind(commitErr),
		Retryable:  commitErr.Retryable(),
		HeaderID:   commitErr.HeaderID,
		Rejections: commitErr.Rejections,
	}
	if errors.Is(commitErr.Kind, domain.ErrInsufficientStock) {
		body.Item = commitErr.Item
		body.Requested = commitErr.Requested
		body.Available = commitErr.Available
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "sale commit failed",
			slog.String("kind", body.Kind),
			slog.String("header_id", commitErr.HeaderID),
			slog.String("error", err.Error()))
	} else {
		h.logger.InfoContext(ctx, "sale commit rejected",
			slog.String("kind", body.Kind),
			slog.String("error", err.Error()))
	}

	h.respondJSON(w, status, body)
}

// CommitErrorStatus maps a commit failure to its HTTP status
func CommitErrorStatus(err *domain.CommitError) int {
	switch err.Kind {
	case domain.ErrInsufficientStock:
		return http.StatusConflict
	case domain.ErrNoValidLines, domain.ErrInvalidDraft:
		return http.StatusUnprocessableEntity
	case domain.ErrRepositoryUnavailable, domain.ErrHeaderWriteFailed:
		return http.StatusServiceUnavailable
	case domain.ErrLineWriteFailed, domain.ErrFinalizeFailed:
		// nothing persisted, the client may resubmit
		if err.RolledBack {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// CommitErrorKind names the failure kind for API clients
func CommitErrorKind(err *domain.CommitError) string {
	switch err.Kind {
	case domain.ErrInsufficientStock:
		return "insufficient_stock"
	case domain.ErrNoValidLines:
		return "no_valid_lines"
	case domain.ErrInvalidDraft:
		return "invalid_draft"
	case domain.ErrRepositoryUnavailable:
		return "repository_unavailable"
	case domain.ErrHeaderWriteFailed:
		return "header_write_failed"
	case domain.ErrLineWriteFailed:
		return "line_write_failed"
	case domain.ErrFinalizeFailed:
		return "finalize_failed"
	case domain.ErrStockReconciliationPartial:
		return "stock_reconciliation_partial"
	default:
		return "internal"
	}
}

// Request/Response DTOs

// SaleLineInput is one row of the sale form
type SaleLineInput struct {
	InventoryItemID string          `json:"inventory_item_id,omitempty" validate:"omitempty,max=64"`
	ItemName        string          `json:"item_name,omitempty" validate:"max=200"`
	Category        string          `json:"category,omitempty" validate:"max=100"`
	Condition       string          `json:"condition,omitempty" validate:"omitempty,oneof=new used recycled"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
	Weight          decimal.Decimal `json:"weight"`
	PricePerGram    decimal.Decimal `json:"price_per_gram"`
}

// CommitSaleRequest represents the request body for recording a sale
type CommitSaleRequest struct {
	Date           string          `json:"date,omitempty"`
	Description    string          `json:"description,omitempty" validate:"max=500"`
	PaymentMethod  string          `json:"payment_method,omitempty" validate:"max=50"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" validate:"max=128"`
	Items          []SaleLineInput `json:"items" validate:"required,min=1,max=200,dive"`
}

// ToDomain converts the request to a sale draft
func (r *CommitSaleRequest) ToDomain() domain.SaleDraft {
	draft := domain.SaleDraft{
		Date:           r.Date,
		Description:    r.Description,
		PaymentMethod:  r.PaymentMethod,
		IdempotencyKey: r.IdempotencyKey,
		Lines:          make([]domain.SaleLineRequest, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		draft.Lines = append(draft.Lines, domain.SaleLineRequest{
			InventoryItemID: item.InventoryItemID,
			ItemName:        item.ItemName,
			Category:        item.Category,
			Condition:       domain.ItemCondition(item.Condition),
			Quantity:        item.Quantity,
			Weight:          item.Weight,
			PricePerGram:    item.PricePerGram,
		})
	}
	return draft
}

// CommitSaleResponse is returned for a recorded (or replayed) sale
type CommitSaleResponse struct {
	Sale       *domain.Sale           `json:"sale"`
	Rejections []domain.LineRejection `json:"rejections,omitempty"`
	Stock      []domain.StockLevel    `json:"stock,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"`
	Replayed   bool                   `json:"replayed,omitempty"`
}

// CommitErrorResponse is returned when a sale could not be recorded
type CommitErrorResponse struct {
	Error      string                 `json:"error"`
	Kind       string                 `json:"kind"`
	Retryable  bool                   `json:"retryable"`
	HeaderID   string                 `json:"header_id,omitempty"`
	Item       string                 `json:"item,omitempty"`
	Requested  int                    `json:"requested,omitempty"`
	Available  int                    `json:"available,omitempty"`
	Rejections []domain.LineRejection `json:"rejections,omitempty"`
}
