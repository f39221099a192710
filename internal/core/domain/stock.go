// internal/core/domain/stock.go
package domain

import "sort"

// StockDelta maps an inventory item id to the total quantity a sale removes
type StockDelta map[string]int

// AggregateDeltas groups linked lines by item id and sums their quantities.
// Unlinked lines contribute nothing.
func AggregateDeltas(lines []SaleLineRecord) StockDelta {
	deltas := make(StockDelta)
	for _, line := range lines {
		if !line.Linked() || line.Quantity <= 0 {
			continue
		}
		deltas[line.InventoryItemID] += line.Quantity
	}
	return deltas
}

// IDs returns the item ids in a stable order so writes are applied deterministically
func (d StockDelta) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reduce computes the post-sale stock level. Stock is clamped at zero and the
// unmet part of the reduction is recorded as Shortfall.
func Reduce(current StockLevel, quantity int) StockLevel {
	next := current
	next.Shortfall = 0

	remaining := current.Stock - quantity
	if remaining < 0 {
		next.Shortfall = -remaining
		remaining = 0
	}

	next.Stock = remaining
	next.Status = DeriveStatus(remaining)
	return next
}
