// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date used for sale dates
const DateLayout = "2006-01-02"

// Header defaults applied when the operator leaves a field blank
const (
	DefaultSaleDescription = "Sales invoice"
	DefaultPaymentMethod   = "cash"
)

// SaleStatus tracks whether a sale header has been finalized
type SaleStatus string

const (
	SaleStaged    SaleStatus = "staged"
	SaleCommitted SaleStatus = "committed"
)

// Sale is the persisted sale header
type Sale struct {
	ID             string           `json:"id"`
	Date           string           `json:"date"`
	Description    string           `json:"description"`
	PaymentMethod  string           `json:"payment_method"`
	Amount         decimal.Decimal  `json:"amount"`
	Status         SaleStatus       `json:"status"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	Lines          []SaleLineRecord `json:"items,omitempty"`

	// Restock is the stock already removed for a staged sale, by item id.
	// Backends without rollback return it to inventory when the staged sale
	// is swept; it is cleared once the sale is committed.
	Restock map[string]int `json:"restock,omitempty"`
}

// SaleLineRequest is one row entered by the operator
type SaleLineRequest struct {
	InventoryItemID string          `json:"inventory_item_id,omitempty"`
	ItemName        string          `json:"item_name,omitempty"`
	Category        string          `json:"category,omitempty"`
	Condition       ItemCondition   `json:"condition,omitempty"`
	Quantity        int             `json:"quantity"`
	Weight          decimal.Decimal `json:"weight"`
	PricePerGram    decimal.Decimal `json:"price_per_gram"`
}

// Linked reports whether the row references an inventory item
func (r SaleLineRequest) Linked() bool {
	return r.InventoryItemID != ""
}

// SaleLineRecord is one persisted, priced line of a sale
type SaleLineRecord struct {
	ID              string          `json:"id"`
	SaleID          string          `json:"sale_id"`
	InventoryItemID string          `json:"inventory_item_id,omitempty"`
	ItemName        string          `json:"item_name"`
	Category        string          `json:"category"`
	Condition       ItemCondition   `json:"condition"`
	Weight          decimal.Decimal `json:"weight"`
	PricePerGram    decimal.Decimal `json:"price_per_gram"`
	Quantity        int             `json:"quantity"`
	Amount          decimal.Decimal `json:"amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Linked reports whether the line references an inventory item
func (l SaleLineRecord) Linked() bool {
	return l.InventoryItemID != ""
}

// LineAmount computes weight x price per gram x quantity at full precision
func LineAmount(weight, pricePerGram decimal.Decimal, quantity int) decimal.Decimal {
	return weight.Mul(pricePerGram).Mul(decimal.NewFromInt(int64(quantity)))
}

// DisplayAmount rounds an amount to currency precision for presentation
func DisplayAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// SaleDraft is the operator input handed to the commit orchestrator
type SaleDraft struct {
	Date           string            `json:"date"`
	Description    string            `json:"description"`
	PaymentMethod  string            `json:"payment_method"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Lines          []SaleLineRequest `json:"items"`
}

// Normalize fills header defaults and validates the sale date
func (d *SaleDraft) Normalize(now time.Time) error {
	d.Description = strings.TrimSpace(d.Description)
	if d.Description == "" {
		d.Description = DefaultSaleDescription
	}
	d.PaymentMethod = strings.TrimSpace(d.PaymentMethod)
	if d.PaymentMethod == "" {
		d.PaymentMethod = DefaultPaymentMethod
	}
	if d.Date == "" {
		d.Date = now.Format(DateLayout)
		return nil
	}
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return fmt.Errorf("date must be formatted as YYYY-MM-DD: %q", d.Date)
	}
	return nil
}

// NewSale builds a staged sale header for the draft and its priced lines
func NewSale(draft SaleDraft, total decimal.Decimal) *Sale {
	return &Sale{
		ID:             uuid.NewString(),
		Date:           draft.Date,
		Description:    draft.Description,
		PaymentMethod:  draft.PaymentMethod,
		Amount:         total,
		Status:         SaleStaged,
		IdempotencyKey: draft.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}
}

// AttachLines ties the line records to the sale and assigns their identity
func (s *Sale) AttachLines(lines []SaleLineRecord) {
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		lines[i].SaleID = s.ID
		if lines[i].CreatedAt.IsZero() {
			lines[i].CreatedAt = s.CreatedAt
		}
	}
	s.Lines = lines
}
