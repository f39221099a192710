// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

const idempotencyConstraint = "sales_idempotency_key_key"

var saleColumns = []string{
	"id", "sale_date", "description", "payment_method", "amount",
	"status", "COALESCE(idempotency_key, '')", "created_at",
}

var lineColumns = []string{
	"id", "sale_id", "COALESCE(inventory_item_id, '')", "item_name", "category", "condition",
	"weight", "price_per_gram", "quantity", "amount", "created_at",
}

// saleRepository implements ports.SaleRepository
type saleRepository struct {
	db     *Database
	logger *slog.Logger
}

// Statically assert that *saleRepository implements the SaleRepository interface.
var _ ports.SaleRepository = (*saleRepository)(nil)

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *Database, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

// SaveHeader inserts a staged sale header
func (r *saleRepository) SaveHeader(ctx context.Context, sale *domain.Sale) error {
	saleDate, err := time.Parse(domain.DateLayout, sale.Date)
	if err != nil {
		return fmt.Errorf("invalid sale date %q: %w", sale.Date, err)
	}

	var key interface{}
	if sale.IdempotencyKey != "" {
		key = sale.IdempotencyKey
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO sales (id, sale_date, description, payment_method, amount, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sale.ID, saleDate, sale.Description, sale.PaymentMethod, sale.Amount,
		domain.SaleStaged, key, sale.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, idempotencyConstraint) {
			return domain.ErrIdempotencyConflict
		}
		return classify("insert sale header", err)
	}

	r.logger.DebugContext(ctx, "sale header staged", slog.String("sale_id", sale.ID))
	return nil
}

// SaveLines inserts all lines of a sale in one batch
func (r *saleRepository) SaveLines(ctx context.Context, lines []domain.SaleLineRecord) error {
	if len(lines) == 0 {
		return nil
	}

	qb := psql.Insert("sale_items").Columns(
		"id", "sale_id", "position", "inventory_item_id", "item_name", "category", "condition",
		"weight", "price_per_gram", "quantity", "amount", "created_at",
	)
	for i, line := range lines {
		var itemID interface{}
		if line.Linked() {
			itemID = line.InventoryItemID
		}
		qb = qb.Values(
			line.ID, line.SaleID, i, itemID, line.ItemName, line.Category, line.Condition,
			line.Weight, line.PricePerGram, line.Quantity, line.Amount, line.CreatedAt,
		)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return classify("insert sale lines", err)
	}

	r.logger.DebugContext(ctx, "sale lines saved",
		slog.String("sale_id", lines[0].SaleID),
		slog.Int("count", len(lines)))
	return nil
}

// Finalize marks a staged sale committed
func (r *saleRepository) Finalize(ctx context.Context, saleID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sales SET status = $1 WHERE id = $2 AND status = $3`,
		domain.SaleCommitted, saleID, domain.SaleStaged,
	)
	if err != nil {
		return classify("finalize sale", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("staged sale %s: %w", saleID, domain.ErrNotFound)
	}
	return nil
}

// FindByID returns a committed sale with its lines
func (r *saleRepository) FindByID(ctx context.Context, id string) (*domain.Sale, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByIdempotencyKey returns the committed sale created with key
func (r *saleRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, error) {
	return r.findOne(ctx, squirrel.Eq{"idempotency_key": key})
}

func (r *saleRepository) findOne(ctx context.Context, where squirrel.Eq) (*domain.Sale, error) {
	query, args, err := psql.Select(saleColumns...).
		From("sales").
		Where(where).
		Where(squirrel.Eq{"status": domain.SaleCommitted}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	sale, err := scanSale(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, classify("find sale", err)
	}

	lines, err := r.lines(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Lines = lines

	return sale, nil
}

// List returns committed sale headers, newest first
func (r *saleRepository) List(ctx context.Context, params ports.SaleListParams) ([]*domain.Sale, error) {
	qb := psql.Select(saleColumns...).
		From("sales").
		Where(squirrel.Eq{"status": domain.SaleCommitted})

	if params.From != "" {
		from, err := time.Parse(domain.DateLayout, params.From)
		if err != nil {
			return nil, fmt.Errorf("invalid from date %q: %w", params.From, err)
		}
		qb = qb.Where(squirrel.GtOrEq{"sale_date": from})
	}
	if params.To != "" {
		to, err := time.Parse(domain.DateLayout, params.To)
		if err != nil {
			return nil, fmt.Errorf("invalid to date %q: %w", params.To, err)
		}
		qb = qb.Where(squirrel.LtOrEq{"sale_date": to})
	}

	qb = qb.OrderBy("sale_date DESC", "created_at DESC")
	if params.Limit > 0 {
		qb = qb.Limit(uint64(params.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list sales", err)
	}

	sales, err := ScanMany(rows, func(rows pgx.Rows) (*domain.Sale, error) {
		return scanSale(rows)
	})
	if err != nil {
		return nil, classify("scan sales", err)
	}
	return sales, nil
}

// SweepStaged deletes staged sales older than olderThan; lines go with them by cascade
func (r *saleRepository) SweepStaged(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM sales WHERE status = $1 AND created_at < $2`,
		domain.SaleStaged, olderThan,
	)
	if err != nil {
		return 0, classify("sweep staged sales", err)
	}

	swept := int(tag.RowsAffected())
	if swept > 0 {
		r.logger.InfoContext(ctx, "swept staged sales", slog.Int("count", swept))
	}
	return swept, nil
}

func (r *saleRepository) lines(ctx context.Context, saleID string) ([]domain.SaleLineRecord, error) {
	query, args, err := psql.Select(lineColumns...).
		From("sale_items").
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("find sale lines", err)
	}
	defer rows.Close()

	var lines []domain.SaleLineRecord
	for rows.Next() {
		var line domain.SaleLineRecord
		err := rows.Scan(
			&line.ID, &line.SaleID, &line.InventoryItemID, &line.ItemName, &line.Category, &line.Condition,
			&line.Weight, &line.PricePerGram, &line.Quantity, &line.Amount, &line.CreatedAt,
		)
		if err != nil {
			return nil, classify("scan sale line", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("find sale lines", err)
	}

	return lines, nil
}

func scanSale(row pgx.Row) (*domain.Sale, error) {
	sale := &domain.Sale{}
	var saleDate time.Time
	err := row.Scan(
		&sale.ID, &saleDate, &sale.Description, &sale.PaymentMethod, &sale.Amount,
		&sale.Status, &sale.IdempotencyKey, &sale.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sale.Date = saleDate.Format(domain.DateLayout)
	return sale, nil
}
