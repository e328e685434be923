package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryItem_Validation(t *testing.T) {
	now := time.Now()

	item, err := NewInventoryItem("A4 Paper 80g", "PAP-A4-80", ItemPaper, "sheet", 500, now)
	require.NoError(t, err)
	assert.Equal(t, 500, item.CurrentQuantity)
	assert.Equal(t, DefaultMaximumThreshold, item.MaximumThreshold)

	testCases := []struct {
		name        string
		itemName    string
		sku         string
		category    ItemCategory
		quantity    int
		expectError string
	}{
		{"empty name", "", "SKU", ItemPaper, 1, "validation failed: item name cannot be empty"},
		{"empty sku", "Ink", "", ItemInk, 1, "validation failed: item sku cannot be empty"},
		{"bad category", "Ink", "SKU", "toner", 1, `validation failed: unknown item category "toner"`},
		{"negative quantity", "Ink", "SKU", ItemInk, -5, "validation failed: quantity cannot be negative, got -5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInventoryItem(tc.itemName, tc.sku, tc.category, "", tc.quantity, now)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.EqualError(t, err, tc.expectError)
		})
	}
}

func TestInventoryItem_Status(t *testing.T) {
	testCases := []struct {
		name     string
		current  int
		minimum  int
		reorder  int
		expected StockStatus
	}{
		{"at minimum", 5, 5, 0, StockCritical},
		{"below minimum", 0, 5, 0, StockCritical},
		{"one above minimum", 6, 5, 0, StockWarning},
		{"at reorder point", 20, 5, 20, StockWarning},
		{"above reorder point", 21, 5, 20, StockOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := &InventoryItem{CurrentQuantity: tc.current, MinimumThreshold: tc.minimum, ReorderPoint: tc.reorder}
			assert.Equal(t, tc.expected, item.Status())
		})
	}
}

func TestInventoryItem_Apply(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	item, err := NewInventoryItem("Cyan Ink", "INK-C", ItemInk, "cartridge", 10, now)
	require.NoError(t, err)

	entry, err := item.Apply(OpIn, 5, "", "restock", "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 15, item.CurrentQuantity)
	assert.Equal(t, 15, entry.BalanceAfter)
	assert.Equal(t, 5, entry.Quantity)
	require.NotNil(t, item.LastRestockedAt)

	entry, err = item.Apply(OpOut, 40, "TP-1", "", "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 0, item.CurrentQuantity, "out floors at zero")
	assert.Equal(t, -40, entry.Quantity)
	assert.Equal(t, 0, entry.BalanceAfter)
	require.NotNil(t, item.LastUsageAt)

	entry, err = item.Apply(OpAdjust, 7, "", "count", "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 7, item.CurrentQuantity)
	assert.Equal(t, 7, entry.BalanceAfter)

	_, err = item.Apply("move", 1, "", "", "u1", now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReorderRequest_Lifecycle(t *testing.T) {
	now := time.Now()
	item, err := NewInventoryItem("Banner Roll", "BAN-1", ItemBanner, "roll", 2, now)
	require.NoError(t, err)

	req, err := NewReorderRequest(item.ID, 10, "u1", "", now)
	require.NoError(t, err)

	_, err = req.Receive(item, "u2", now)
	assert.ErrorIs(t, err, ErrInvalidTransition, "cannot receive before ordering")

	require.NoError(t, req.Approve("u2", now))
	assert.Equal(t, ReorderOrdered, req.Status)
	assert.Equal(t, "u2", req.ApprovedBy)

	entry, err := req.Receive(item, "u2", now)
	require.NoError(t, err)
	assert.Equal(t, ReorderReceived, req.Status)
	assert.Equal(t, 12, item.CurrentQuantity)
	assert.Equal(t, OpIn, entry.Operation)
	assert.Equal(t, "reorder received", entry.Note)

	assert.ErrorIs(t, req.Cancel(), ErrInvalidTransition)
}

func TestSelectPaperItem(t *testing.T) {
	items := []*InventoryItem{
		{ID: "ink", Name: "Black Ink", Category: ItemInk},
		{ID: "plain", Name: "A4 Normal Paper 80g", Category: ItemPaper},
		{ID: "card", Name: "Cardboard 300g", Category: ItemPaper},
		{ID: "coated", Name: "A3 Coated 170g", Category: ItemPaper},
	}

	testCases := []struct {
		name      string
		paperType PaperType
		weight    int
		expected  string
	}{
		{"type match", PaperCoated, 90, "coated"},
		{"weight match", PaperTransparent, 300, "card"},
		{"fallback to first by name", PaperSticker, 120, "coated"},
		{"normal by type", PaperNormal, 120, "plain"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectPaperItem(items, tc.paperType, tc.weight)
			require.NotNil(t, got)
			assert.Equal(t, tc.expected, got.ID)
		})
	}

	assert.Nil(t, SelectPaperItem(items[:1], PaperNormal, 80), "no paper items")
}
