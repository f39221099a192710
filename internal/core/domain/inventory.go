// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockStatus is the availability label derived from stock
type StockStatus string

// Status constants
const (
	StatusAvailable StockStatus = "available"
	StatusOut       StockStatus = "out_of_stock"
)

// ItemCondition represents the condition label of a piece
type ItemCondition string

// Condition constants
const (
	ConditionNew      ItemCondition = "new"
	ConditionUsed     ItemCondition = "used"
	ConditionRecycled ItemCondition = "recycled"
)

// InventoryItem represents one stocked catalog entry
type InventoryItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Karat        string          `json:"karat"`
	Weight       decimal.Decimal `json:"weight"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	Stock        int             `json:"stock"`
	Status       StockStatus     `json:"status"`
	Condition    ItemCondition   `json:"condition"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StockLevel is the stock+status view of an item used during reconciliation.
// Shortfall is the part of a requested reduction that could not be taken
// because stock would have gone below zero.
type StockLevel struct {
	ItemID    string      `json:"item_id"`
	Stock     int         `json:"stock"`
	Status    StockStatus `json:"status"`
	Version   int64       `json:"version"`
	Shortfall int         `json:"shortfall,omitempty"`
}

// DeriveStatus maps a stock count to its status: OUT iff stock is zero.
func DeriveStatus(stock int) StockStatus {
	if stock <= 0 {
		return StatusOut
	}
	return StatusAvailable
}

// CanSatisfy reports whether the requested quantity fits in the available stock.
// A nil available means the line is not linked to inventory and is never checked.
func CanSatisfy(requested int, available *int) bool {
	if available == nil {
		return true
	}
	return requested > 0 && requested <= *available
}

// Validate performs domain validation on the inventory item
func (i *InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(i.Karat) == "" {
		return fmt.Errorf("karat is required")
	}
	if !i.Weight.IsPositive() {
		return fmt.Errorf("weight must be positive")
	}
	if !i.PricePerGram.IsPositive() {
		return fmt.Errorf("price_per_gram must be positive")
	}
	if i.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	if i.Condition == "" {
		i.Condition = ConditionNew
	}
	return nil
}

// PrepareForStorage assigns identity, timestamps and the derived status
func (i *InventoryItem) PrepareForStorage() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now

	i.Status = DeriveStatus(i.Stock)
}

// Level returns the current stock view of the item
func (i *InventoryItem) Level() StockLevel {
	return StockLevel{
		ItemID:  i.ID,
		Stock:   i.Stock,
		Status:  i.Status,
		Version: i.Version,
	}
}
