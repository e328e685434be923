package csv

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/domain/entities"
)

const sampleInventory = `name,sku,category,unit,current_quantity,minimum_threshold,min_quantity,maximum_threshold,reorder_point,notes
A4 Paper 80g,PAP-A4-80,paper,sheet,5000,500,1000,,1500,main stock
Cyan Ink,INK-C,ink,cartridge,4,1,2,10,3,
`

func TestLoader_LoadInventory(t *testing.T) {
	loader := NewLoader()
	items, err := loader.LoadInventory(strings.NewReader(sampleInventory))
	require.NoError(t, err)
	require.Len(t, items, 2)

	paper := items[0]
	assert.Equal(t, "PAP-A4-80", paper.SKU)
	assert.Equal(t, entities.ItemPaper, paper.Category)
	assert.Equal(t, 5000, paper.CurrentQuantity)
	assert.Equal(t, 1000, paper.MinQuantity)
	assert.Equal(t, entities.DefaultMaximumThreshold, paper.MaximumThreshold, "blank keeps the default")
	assert.Equal(t, "main stock", paper.Notes)

	assert.Equal(t, 10, items[1].MaximumThreshold)
}

func TestLoader_LoadInventoryErrors(t *testing.T) {
	loader := NewLoader()

	testCases := []struct {
		name        string
		input       string
		expectError string
	}{
		{"header only", "name,sku\n", "inventory CSV must have header and at least one data row"},
		{"bad quantity", strings.Replace(sampleInventory, "5000", "lots", 1), "inventory CSV row 2: invalid current_quantity: lots"},
		{"bad category", strings.Replace(sampleInventory, ",ink,", ",toner,", 1), `inventory CSV row 3: validation failed: unknown item category "toner"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loader.LoadInventory(strings.NewReader(tc.input))
			assert.EqualError(t, err, tc.expectError)
		})
	}

	_, err := loader.LoadInventory(strings.NewReader("item,code\nx,y\n"))
	assert.ErrorContains(t, err, "inventory CSV header mismatch")
}

func TestLoader_RoundTripThroughFile(t *testing.T) {
	loader := NewLoader()
	item, err := entities.NewInventoryItem("Banner Roll", "BAN-1", entities.ItemBanner, "roll", 7, time.Now())
	require.NoError(t, err)
	item.ReorderPoint = 2

	var buf bytes.Buffer
	require.NoError(t, loader.WriteInventory(&buf, []*entities.InventoryItem{item}))

	path := filepath.Join(t.TempDir(), "inventory.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	loaded, err := loader.LoadInventoryFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "BAN-1", loaded[0].SKU)
	assert.Equal(t, 7, loaded[0].CurrentQuantity)
	assert.Equal(t, 2, loaded[0].ReorderPoint)
}
