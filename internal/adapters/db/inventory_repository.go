// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// DefaultStockRetries is how many times a conflicting stock write is re-read and retried
const DefaultStockRetries = 3

var inventoryColumns = []string{
	"id", "name", "category", "karat", "weight", "price_per_gram",
	"stock", "status", "condition", "version", "created_at", "updated_at",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// inventoryRepository implements ports.InventoryRepository
type inventoryRepository struct {
	db      *Database
	retries int
	logger  *slog.Logger
}

// Statically assert that *inventoryRepository implements the InventoryRepository interface.
var _ ports.InventoryRepository = (*inventoryRepository)(nil)

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *Database, retries int, logger *slog.Logger) ports.InventoryRepository {
	if retries < 0 {
		retries = DefaultStockRetries
	}
	return &inventoryRepository{
		db:      db,
		retries: retries,
		logger:  logger.With(slog.String("repository", "inventory")),
	}
}

// Save inserts the item, or replaces its catalog fields when the id exists
func (r *inventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory (
			id, name, category, karat, weight, price_per_gram,
			stock, status, condition, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			karat = EXCLUDED.karat,
			weight = EXCLUDED.weight,
			price_per_gram = EXCLUDED.price_per_gram,
			stock = EXCLUDED.stock,
			status = EXCLUDED.status,
			condition = EXCLUDED.condition,
			version = inventory.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING version`

	err := r.db.QueryRow(ctx, query,
		item.ID, item.Name, item.Category, item.Karat, item.Weight, item.PricePerGram,
		item.Stock, item.Status, item.Condition, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.Version)
	if err != nil {
		return classify("save inventory item", err)
	}

	r.logger.DebugContext(ctx, "inventory item saved",
		slog.String("item_id", item.ID),
		slog.Int("stock", item.Stock))

	return nil
}

// FindByID retrieves one item
func (r *inventoryRepository) FindByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	query, args, err := psql.Select(inventoryColumns...).
		From("inventory").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, classify("find inventory item", err)
	}

	return item, nil
}

// FindByIDs retrieves the items that exist among ids
func (r *inventoryRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.InventoryItem, error) {
	result := make(map[string]*domain.InventoryItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := psql.Select(inventoryColumns...).
		From("inventory").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("find inventory items", err)
	}

	items, err := ScanMany(rows, func(rows pgx.Rows) (*domain.InventoryItem, error) {
		return scanItem(rows)
	})
	if err != nil {
		return nil, classify("scan inventory items", err)
	}

	for _, item := range items {
		result[item.ID] = item
	}
	return result, nil
}

// List returns items ordered by name
func (r *inventoryRepository) List(ctx context.Context, params ports.InventoryListParams) ([]*domain.InventoryItem, error) {
	query, args, err := buildListQuery(params).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list inventory items", err)
	}

	items, err := ScanMany(rows, func(rows pgx.Rows) (*domain.InventoryItem, error) {
		return scanItem(rows)
	})
	if err != nil {
		return nil, classify("scan inventory items", err)
	}

	return items, nil
}

func buildListQuery(params ports.InventoryListParams) squirrel.SelectBuilder {
	qb := psql.Select(inventoryColumns...).From("inventory")

	if params.InStockOnly {
		qb = qb.Where(squirrel.Gt{"stock": 0})
	}
	if params.Category != "" {
		qb = qb.Where(squirrel.Eq{"category": params.Category})
	}

	qb = qb.OrderBy("name ASC", "id ASC")
	if params.Limit > 0 {
		qb = qb.Limit(uint64(params.Limit))
	}

	return qb
}

// FetchStockSnapshot reads stock and status for ids
func (r *inventoryRepository) FetchStockSnapshot(ctx context.Context, ids []string) (map[string]domain.StockLevel, error) {
	return r.levels(ctx, ids, false)
}

// ApplyStockDeltas reduces stock under a row lock and a version check.
// It joins the caller's transaction when there is one.
func (r *inventoryRepository) ApplyStockDeltas(ctx context.Context, deltas domain.StockDelta) ([]domain.StockLevel, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	var levels []domain.StockLevel
	var failed []string
	var causes []error

	err := r.db.WithinTransaction(ctx, func(ctx context.Context) error {
		ids := deltas.IDs()
		current, err := r.levels(ctx, ids, true)
		if err != nil {
			return err
		}

		for _, id := range ids {
			level, ok := current[id]
			if !ok {
				r.logger.DebugContext(ctx, "skipping stock write for unknown item", slog.String("item_id", id))
				continue
			}

			next, conflict, err := r.reduceWithRetry(ctx, level, deltas[id])
			if err != nil {
				return err
			}
			if conflict != nil {
				failed = append(failed, id)
				causes = append(causes, fmt.Errorf("%s: %w", id, conflict))
				continue
			}
			if next != nil {
				levels = append(levels, *next)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(failed) > 0 {
		return levels, &domain.PartialFailureError{FailedIDs: failed, Err: errors.Join(causes...)}
	}
	return levels, nil
}

// reduceWithRetry applies one conditional write, re-reading the row after a
// version conflict. A non-nil conflict means retries ran out. A nil level
// with a nil conflict means the row disappeared.
func (r *inventoryRepository) reduceWithRetry(ctx context.Context, level domain.StockLevel, quantity int) (*domain.StockLevel, error, error) {
	for attempt := 0; ; attempt++ {
		next := domain.Reduce(level, quantity)

		tag, err := r.db.Exec(ctx, `
			UPDATE inventory
			SET stock = $1, status = $2, version = version + 1, updated_at = NOW()
			WHERE id = $3 AND version = $4`,
			next.Stock, next.Status, level.ItemID, level.Version,
		)
		if err != nil {
			return nil, nil, classify("update stock", err)
		}
		if tag.RowsAffected() == 1 {
			next.Version = level.Version + 1
			if next.Shortfall > 0 {
				r.logger.WarnContext(ctx, "stock clamped at zero",
					slog.String("item_id", level.ItemID),
					slog.Int("shortfall", next.Shortfall))
			}
			return &next, nil, nil
		}

		if attempt >= r.retries {
			r.logger.WarnContext(ctx, "stock write conflict not resolved",
				slog.String("item_id", level.ItemID),
				slog.Int("attempts", attempt+1))
			return nil, fmt.Errorf("%w after %d attempts", domain.ErrVersionConflict, attempt+1), nil
		}

		fresh, err := r.levels(ctx, []string{level.ItemID}, true)
		if err != nil {
			return nil, nil, err
		}
		current, ok := fresh[level.ItemID]
		if !ok {
			return nil, nil, nil
		}
		level = current
	}
}

func (r *inventoryRepository) levels(ctx context.Context, ids []string, lock bool) (map[string]domain.StockLevel, error) {
	result := make(map[string]domain.StockLevel, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	qb := psql.Select("id", "stock", "status", "version").
		From("inventory").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id")
	if lock {
		qb = qb.Suffix("FOR UPDATE")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("fetch stock snapshot", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level domain.StockLevel
		if err := rows.Scan(&level.ItemID, &level.Stock, &level.Status, &level.Version); err != nil {
			return nil, classify("scan stock level", err)
		}
		result[level.ItemID] = level
	}
	if err := rows.Err(); err != nil {
		return nil, classify("fetch stock snapshot", err)
	}

	return result, nil
}

func scanItem(row pgx.Row) (*domain.InventoryItem, error) {
	item := &domain.InventoryItem{}
	err := row.Scan(
		&item.ID, &item.Name, &item.Category, &item.Karat, &item.Weight, &item.PricePerGram,
		&item.Stock, &item.Status, &item.Condition, &item.Version, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}
