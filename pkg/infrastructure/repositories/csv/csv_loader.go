package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/printcenter/pkg/domain/entities"
)

var inventoryHeader = []string{
	"name", "sku", "category", "unit", "current_quantity",
	"minimum_threshold", "min_quantity", "maximum_threshold", "reorder_point", "notes",
}

// Loader handles inventory item import and export as CSV
type Loader struct {
	now func() time.Time
}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{now: time.Now}
}

// LoadInventoryFile loads inventory items from a CSV file
func (l *Loader) LoadInventoryFile(filename string) ([]*entities.InventoryItem, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file %s: %w", filename, err)
	}
	defer file.Close()
	return l.LoadInventory(file)
}

// LoadInventory reads inventory items. Rows are returned as new items; the
// caller decides whether a SKU already exists.
func (l *Loader) LoadInventory(r io.Reader) ([]*entities.InventoryItem, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("inventory CSV must have header and at least one data row")
	}

	header := records[0]
	if !validateHeader(header, inventoryHeader) {
		return nil, fmt.Errorf("inventory CSV header mismatch. Expected: %v, Got: %v", inventoryHeader, header)
	}

	now := l.now()
	var items []*entities.InventoryItem
	for i, record := range records[1:] {
		if len(record) != len(inventoryHeader) {
			return nil, fmt.Errorf("inventory CSV row %d: expected %d columns, got %d", i+2, len(inventoryHeader), len(record))
		}

		item, err := parseInventoryItem(record, now)
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}

		items = append(items, item)
	}

	return items, nil
}

// WriteInventory writes items with the import header
func (l *Loader) WriteInventory(w io.Writer, items []*entities.InventoryItem) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(inventoryHeader); err != nil {
		return err
	}
	for _, item := range items {
		row := []string{
			item.Name,
			item.SKU,
			string(item.Category),
			item.Unit,
			strconv.Itoa(item.CurrentQuantity),
			strconv.Itoa(item.MinimumThreshold),
			strconv.Itoa(item.MinQuantity),
			strconv.Itoa(item.MaximumThreshold),
			strconv.Itoa(item.ReorderPoint),
			item.Notes,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseInventoryItem(record []string, now time.Time) (*entities.InventoryItem, error) {
	quantities := make([]int, 5)
	for i, col := range []int{4, 5, 6, 7, 8} {
		raw := strings.TrimSpace(record[col])
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %s", inventoryHeader[col], raw)
		}
		quantities[i] = n
	}

	item, err := entities.NewInventoryItem(record[0], record[1], entities.ItemCategory(strings.TrimSpace(record[2])), strings.TrimSpace(record[3]), quantities[0], now)
	if err != nil {
		return nil, err
	}
	item.MinimumThreshold = quantities[1]
	item.MinQuantity = quantities[2]
	if strings.TrimSpace(record[7]) != "" {
		item.MaximumThreshold = quantities[3]
	}
	item.ReorderPoint = quantities[4]
	item.Notes = strings.TrimSpace(record[9])

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}
