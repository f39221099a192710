package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/services"
	"github.com/ammerola/jewelry-be/test/helpers"
)

func TestSaleComposer_BuildLineRecord(t *testing.T) {
	composer := services.NewSaleComposer()
	item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) {
		i.Condition = domain.ConditionUsed
	})

	tests := []struct {
		name       string
		req        domain.SaleLineRequest
		item       *domain.InventoryItem
		wantName   string
		wantWeight string
		wantQty    int
		wantAmount string
		wantCond   domain.ItemCondition
	}{
		{
			name:       "linked_line_takes_item_fields",
			req:        domain.SaleLineRequest{InventoryItemID: item.ID, ItemName: "ignored", Quantity: 2, PricePerGram: decimal.NewFromInt(1)},
			item:       item,
			wantName:   "Test Gold Ring",
			wantWeight: "4.2",
			wantQty:    2,
			wantAmount: "491.4",
			wantCond:   domain.ConditionUsed,
		},
		{
			name:       "linked_line_keeps_entered_weight",
			req:        domain.SaleLineRequest{InventoryItemID: item.ID, Quantity: 1, Weight: decimal.RequireFromString("3")},
			item:       item,
			wantName:   "Test Gold Ring",
			wantWeight: "3",
			wantQty:    1,
			wantAmount: "175.5",
			wantCond:   domain.ConditionUsed,
		},
		{
			name: "unlinked_line_defaults",
			req: domain.SaleLineRequest{
				ItemName:     "  Loose Pendant ",
				Weight:       decimal.RequireFromString("1.333"),
				PricePerGram: decimal.RequireFromString("60.015"),
			},
			wantName:   "Loose Pendant",
			wantWeight: "1.333",
			wantQty:    1,
			wantAmount: "79.999995",
			wantCond:   domain.ConditionNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := composer.BuildLineRecord(tt.req, tt.item)

			assert.Equal(t, tt.wantName, line.ItemName)
			assert.Equal(t, tt.wantQty, line.Quantity)
			assert.Equal(t, tt.wantCond, line.Condition)
			assert.True(t, decimal.RequireFromString(tt.wantWeight).Equal(line.Weight), line.Weight.String())
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(line.Amount), line.Amount.String())
			if tt.item != nil {
				assert.Equal(t, tt.item.ID, line.InventoryItemID)
				assert.True(t, tt.item.PricePerGram.Equal(line.PricePerGram))
			}
		})
	}
}

func TestSaleComposer_Compose(t *testing.T) {
	composer := services.NewSaleComposer()
	item := helpers.CreateTestInventoryItem()

	requests := []domain.SaleLineRequest{
		{InventoryItemID: item.ID, Quantity: 1},
		{InventoryItemID: "missing", Quantity: 1},
		{ItemName: "Bangle", Weight: decimal.NewFromInt(10), PricePerGram: decimal.NewFromInt(40), Quantity: 1},
		{ItemName: "Bangle", Weight: decimal.NewFromInt(10), Quantity: 1},
		{ItemName: "Bangle", Weight: decimal.NewFromInt(10), PricePerGram: decimal.NewFromInt(40), Quantity: -1},
	}

	comp := composer.Compose(requests, map[string]*domain.InventoryItem{item.ID: item})

	require.Len(t, comp.Lines, 2)
	assert.Equal(t, item.ID, comp.Lines[0].InventoryItemID)
	assert.Equal(t, "Bangle", comp.Lines[1].ItemName)

	require.Len(t, comp.Rejections, 3)
	assert.Equal(t, domain.LineRejection{Index: 1, Reason: "inventory item missing not found"}, comp.Rejections[0])
	assert.Equal(t, domain.LineRejection{Index: 3, Reason: "price per gram must be positive"}, comp.Rejections[1])
	assert.Equal(t, domain.LineRejection{Index: 4, Reason: "quantity must be positive"}, comp.Rejections[2])

	assert.True(t, decimal.RequireFromString("645.7").Equal(comp.Total), comp.Total.String())
	assert.Equal(t, "645.70", domain.DisplayAmount(comp.Total))
}

func TestSaleComposer_BuildSaleTotal_Empty(t *testing.T) {
	total := services.NewSaleComposer().BuildSaleTotal(nil)
	assert.True(t, total.IsZero())
}
