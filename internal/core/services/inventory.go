// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

const (
	itemCacheTTL = 5 * time.Minute
	listCacheTTL = time.Minute
)

// InventoryService handles inventory entry and lookup
type InventoryService struct {
	repo        ports.InventoryRepository
	cache       ports.CacheRepository
	invalidator ports.QueryInvalidator
	logger      *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. cache and invalidator may be nil.
func NewInventoryService(repo ports.InventoryRepository, cache ports.CacheRepository,
	invalidator ports.QueryInvalidator, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:        repo,
		cache:       cache,
		invalidator: invalidator,
		logger:      logger.With(slog.String("service", "inventory")),
	}
}

// CreateItem validates and stores a new inventory item
func (s *InventoryService) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	item.PrepareForStorage()

	if err := s.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateInventory(ctx, item.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate inventory views",
				slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "saved inventory item",
		slog.String("item_id", item.ID),
		slog.String("name", item.Name),
		slog.Int("stock", item.Stock))

	return nil
}

// GetByID retrieves an inventory item by ID, reading through the cache when present
func (s *InventoryService) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	if s.cache == nil {
		return s.findByID(ctx, id)
	}

	var item domain.InventoryItem
	var fetchErr error
	key := ports.CachePrefixInventory + ":item:" + id
	err := s.cache.GetOrSet(ctx, key, &item, func() (interface{}, error) {
		found, err := s.findByID(ctx, id)
		fetchErr = err
		return found, err
	}, itemCacheTTL)
	if err == nil {
		return &item, nil
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	s.logger.WarnContext(ctx, "cache read failed, falling back to repository",
		slog.String("item_id", id),
		slog.String("error", err.Error()))
	return s.findByID(ctx, id)
}

func (s *InventoryService) findByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("inventory item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

// List returns inventory ordered by name
func (s *InventoryService) List(ctx context.Context, params ports.InventoryListParams) ([]*domain.InventoryItem, error) {
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 500
	}

	if s.cache == nil {
		return s.list(ctx, params)
	}

	var items []*domain.InventoryItem
	var fetchErr error
	key := fmt.Sprintf("%s:list:%t:%s:%d", ports.CachePrefixInventory, params.InStockOnly, params.Category, params.Limit)
	err := s.cache.GetOrSet(ctx, key, &items, func() (interface{}, error) {
		found, err := s.list(ctx, params)
		fetchErr = err
		return found, err
	}, listCacheTTL)
	if err == nil {
		return items, nil
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	s.logger.WarnContext(ctx, "cache read failed, falling back to repository",
		slog.String("key", key),
		slog.String("error", err.Error()))
	return s.list(ctx, params)
}

func (s *InventoryService) list(ctx context.Context, params ports.InventoryListParams) ([]*domain.InventoryItem, error) {
	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}

	return items, nil
}
