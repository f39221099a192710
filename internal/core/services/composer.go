// internal/core/services/composer.go
package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/jewelry-be/internal/core/domain"
)

// Composition is the priced, persistable form of a draft's lines
type Composition struct {
	Lines      []domain.SaleLineRecord
	Rejections []domain.LineRejection
	Total      decimal.Decimal
}

// SaleComposer turns operator rows into priced line records. It performs no I/O.
type SaleComposer struct{}

// NewSaleComposer creates a new sale composer
func NewSaleComposer() *SaleComposer {
	return &SaleComposer{}
}

// BuildLineRecord prices one row. For linked rows the name, category,
// condition and price per gram come from the inventory item; the weight
// falls back to the item's when the row does not carry one.
func (c *SaleComposer) BuildLineRecord(req domain.SaleLineRequest, item *domain.InventoryItem) domain.SaleLineRecord {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	line := domain.SaleLineRecord{
		ItemName:     strings.TrimSpace(req.ItemName),
		Category:     strings.TrimSpace(req.Category),
		Condition:    req.Condition,
		Weight:       req.Weight,
		PricePerGram: req.PricePerGram,
		Quantity:     quantity,
	}

	if item != nil {
		line.InventoryItemID = item.ID
		line.ItemName = item.Name
		line.Category = item.Category
		line.Condition = item.Condition
		line.PricePerGram = item.PricePerGram
		if !line.Weight.IsPositive() {
			line.Weight = item.Weight
		}
	}

	if line.Condition == "" {
		line.Condition = domain.ConditionNew
	}

	line.Amount = domain.LineAmount(line.Weight, line.PricePerGram, line.Quantity)
	return line
}

// BuildSaleTotal sums the line amounts
func (c *SaleComposer) BuildSaleTotal(lines []domain.SaleLineRecord) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}

// Compose prices every row, dropping the ones that cannot be persisted and
// recording why each was dropped. items holds the resolved inventory keyed by id.
func (c *SaleComposer) Compose(requests []domain.SaleLineRequest, items map[string]*domain.InventoryItem) Composition {
	comp := Composition{Lines: make([]domain.SaleLineRecord, 0, len(requests))}

	for i, req := range requests {
		var item *domain.InventoryItem
		if req.Linked() {
			item = items[req.InventoryItemID]
			if item == nil {
				comp.Rejections = append(comp.Rejections, domain.LineRejection{
					Index:  i,
					Reason: fmt.Sprintf("inventory item %s not found", req.InventoryItemID),
				})
				continue
			}
		}

		line := c.BuildLineRecord(req, item)
		if reason := rejectReason(line); reason != "" {
			comp.Rejections = append(comp.Rejections, domain.LineRejection{Index: i, Reason: reason})
			continue
		}

		comp.Lines = append(comp.Lines, line)
	}

	comp.Total = c.BuildSaleTotal(comp.Lines)
	return comp
}

func rejectReason(line domain.SaleLineRecord) string {
	switch {
	case line.ItemName == "":
		return "item name is required"
	case !line.Weight.IsPositive():
		return "weight must be positive"
	case !line.PricePerGram.IsPositive():
		return "price per gram must be positive"
	case line.Quantity <= 0:
		return "quantity must be positive"
	}
	return ""
}
