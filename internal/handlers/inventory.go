// internal/handlers/inventory.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	responder
	service ports.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service ports.InventoryService, logger *slog.Logger) *InventoryHandler {
	logger = logger.With(slog.String("handler", "inventory"))
	return &InventoryHandler{
		responder: newResponder(logger),
		service:   service,
		logger:    logger,
	}
}

// GetInventory handles GET /api/v1/inventory/{id}
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	item, err := h.service.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Inventory item not found")
			return
		}

		h.logger.ErrorContext(ctx, "failed to get inventory item",
			slog.String("item_id", id),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve inventory item")
		return
	}

	h.respondJSON(w, http.StatusOK, item)
}

// ListInventory handles GET /api/v1/inventory
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.List(ctx, h.parseListParams(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list inventory items",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list inventory items")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// CreateInventory handles POST /api/v1/inventory
func (h *InventoryHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateInventoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	item := req.ToDomain()
	if err := item.Validate(); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.service.CreateItem(ctx, item); err != nil {
		h.logger.ErrorContext(ctx, "failed to create inventory item",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create inventory item")
		return
	}

	h.logger.InfoContext(ctx, "inventory item created",
		slog.String("item_id", item.ID),
		slog.String("name", item.Name))

	h.respondJSON(w, http.StatusCreated, item)
}

// parseListParams parses query parameters for listing inventory
func (h *InventoryHandler) parseListParams(r *http.Request) ports.InventoryListParams {
	q := r.URL.Query()
	params := ports.InventoryListParams{
		Category: strings.TrimSpace(q.Get("category")),
	}

	if inStock := q.Get("in_stock"); inStock != "" {
		if val, err := strconv.ParseBool(inStock); err == nil {
			params.InStockOnly = val
		}
	}

	if limit := q.Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			params.Limit = l
		}
	}

	return params
}

// Request/Response DTOs

// CreateInventoryRequest represents the request body for creating inventory
type CreateInventoryRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Category     string          `json:"category,omitempty" validate:"max=100"`
	Karat        string          `json:"karat" validate:"required,max=20"`
	Weight       decimal.Decimal `json:"weight"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	Stock        int             `json:"stock" validate:"gte=0"`
	Condition    string          `json:"condition,omitempty" validate:"omitempty,oneof=new used recycled"`
}

// ToDomain converts the request to a domain model
func (r *CreateInventoryRequest) ToDomain() *domain.InventoryItem {
	item := &domain.InventoryItem{
		Name:         strings.TrimSpace(r.Name),
		Category:     strings.TrimSpace(r.Category),
		Karat:        strings.TrimSpace(r.Karat),
		Weight:       r.Weight,
		PricePerGram: r.PricePerGram,
		Stock:        r.Stock,
		Condition:    domain.ItemCondition(r.Condition),
	}

	// Set defaults
	if item.Category == "" {
		item.Category = "other"
	}
	if item.Condition == "" {
		item.Condition = domain.ConditionNew
	}

	return item
}
