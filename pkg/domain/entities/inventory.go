package entities

import (
	"fmt"
	"strings"
	"time"
)

// ItemCategory classifies consumables
type ItemCategory string

const (
	ItemPaper  ItemCategory = "paper"
	ItemInk    ItemCategory = "ink"
	ItemBanner ItemCategory = "banner"
	ItemOther  ItemCategory = "other"
)

func (c ItemCategory) Valid() bool {
	switch c {
	case ItemPaper, ItemInk, ItemBanner, ItemOther:
		return true
	}
	return false
}

// StockStatus is the traffic-light state of an item
type StockStatus string

const (
	StockOK       StockStatus = "ok"
	StockWarning  StockStatus = "warning"
	StockCritical StockStatus = "critical"
)

// DefaultMaximumThreshold applies when an item is created without one
const DefaultMaximumThreshold = 1000

// InventoryItem is a stocked consumable
type InventoryItem struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	SKU              string       `json:"sku"`
	Category         ItemCategory `json:"category"`
	Unit             string       `json:"unit"`
	CurrentQuantity  int          `json:"current_quantity"`
	MinimumThreshold int          `json:"minimum_threshold"`
	MinQuantity      int          `json:"min_quantity"`
	MaximumThreshold int          `json:"maximum_threshold"`
	ReorderPoint     int          `json:"reorder_point"`
	LastRestockedAt  *time.Time   `json:"last_restocked_at,omitempty"`
	LastUsageAt      *time.Time   `json:"last_usage_at,omitempty"`
	Notes            string       `json:"notes,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// NewInventoryItem creates a validated InventoryItem
func NewInventoryItem(name, sku string, category ItemCategory, unit string, quantity int, now time.Time) (*InventoryItem, error) {
	name = strings.TrimSpace(name)
	sku = strings.TrimSpace(sku)
	if name == "" {
		return nil, invalidf("item name cannot be empty")
	}
	if sku == "" {
		return nil, invalidf("item sku cannot be empty")
	}
	if category == "" {
		category = ItemOther
	}
	if !category.Valid() {
		return nil, invalidf("unknown item category %q", category)
	}
	if quantity < 0 {
		return nil, invalidf("quantity cannot be negative, got %d", quantity)
	}
	if unit == "" {
		unit = "piece"
	}

	return &InventoryItem{
		ID:               NewID(),
		Name:             name,
		SKU:              sku,
		Category:         category,
		Unit:             unit,
		CurrentQuantity:  quantity,
		MaximumThreshold: DefaultMaximumThreshold,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Validate checks thresholds after an update
func (i *InventoryItem) Validate() error {
	if i.CurrentQuantity < 0 || i.MinimumThreshold < 0 || i.MinQuantity < 0 || i.ReorderPoint < 0 {
		return invalidf("quantities and thresholds cannot be negative")
	}
	if i.MaximumThreshold < 0 {
		return invalidf("maximum threshold cannot be negative, got %d", i.MaximumThreshold)
	}
	if !i.Category.Valid() {
		return invalidf("unknown item category %q", i.Category)
	}
	return nil
}

// Status reports critical, warning or ok
func (i *InventoryItem) Status() StockStatus {
	if i.CurrentQuantity <= i.MinimumThreshold {
		return StockCritical
	}
	warnAt := i.MinimumThreshold + 1
	if i.ReorderPoint > warnAt {
		warnAt = i.ReorderPoint
	}
	if i.CurrentQuantity <= warnAt {
		return StockWarning
	}
	return StockOK
}

// IsLowStock reports whether the alert threshold is reached
func (i *InventoryItem) IsLowStock() bool {
	return i.CurrentQuantity <= i.MinQuantity
}

// StockOperation is the kind of inventory movement
type StockOperation string

const (
	OpIn     StockOperation = "in"
	OpOut    StockOperation = "out"
	OpAdjust StockOperation = "adjust"
)

func (o StockOperation) Valid() bool {
	return o == OpIn || o == OpOut || o == OpAdjust
}

// InventoryLog records one stock movement
type InventoryLog struct {
	ID           string         `json:"id"`
	ItemID       string         `json:"item_id"`
	Operation    StockOperation `json:"operation"`
	Quantity     int            `json:"quantity"`
	BalanceAfter int            `json:"balance_after"`
	Reference    string         `json:"reference_order,omitempty"`
	PrintOrderID string         `json:"print_order_id,omitempty"`
	PerformedBy  string         `json:"performed_by,omitempty"`
	Note         string         `json:"note,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Apply moves stock and returns the log entry describing the movement.
// Out never takes the balance below zero.
func (i *InventoryItem) Apply(op StockOperation, qty int, reference, note, by string, now time.Time) (*InventoryLog, error) {
	if !op.Valid() {
		return nil, invalidf("unknown operation %q", op)
	}
	if qty < 0 {
		return nil, invalidf("quantity cannot be negative, got %d", qty)
	}

	logged := qty
	switch op {
	case OpIn:
		i.CurrentQuantity += qty
		i.LastRestockedAt = timePtr(now)
	case OpOut:
		i.CurrentQuantity -= qty
		if i.CurrentQuantity < 0 {
			i.CurrentQuantity = 0
		}
		i.LastUsageAt = timePtr(now)
		logged = -qty
	case OpAdjust:
		i.CurrentQuantity = qty
	}
	i.UpdatedAt = now

	return &InventoryLog{
		ID:           NewID(),
		ItemID:       i.ID,
		Operation:    op,
		Quantity:     logged,
		BalanceAfter: i.CurrentQuantity,
		Reference:    reference,
		PerformedBy:  by,
		Note:         note,
		CreatedAt:    now,
	}, nil
}

// DeductForPrint draws the order's paper consumption from the item
func (i *InventoryItem) DeductForPrint(order *PrintOrder, by string, now time.Time) (*InventoryLog, error) {
	used := order.PaperConsumption()
	if used <= 0 {
		return nil, invalidf("print order %s has no paper consumption", order.Code)
	}
	entry, err := i.Apply(OpOut, used, order.Code, fmt.Sprintf("automatic deduction for print order %s", order.Code), by, now)
	if err != nil {
		return nil, err
	}
	entry.PrintOrderID = order.ID
	order.InventoryDeducted = true
	return entry, nil
}

type ReorderStatus string

const (
	ReorderPending   ReorderStatus = "pending"
	ReorderOrdered   ReorderStatus = "ordered"
	ReorderReceived  ReorderStatus = "received"
	ReorderCancelled ReorderStatus = "cancelled"
)

// ReorderRequest asks purchasing to restock an item
type ReorderRequest struct {
	ID          string        `json:"id"`
	ItemID      string        `json:"item_id"`
	Quantity    int           `json:"quantity"`
	Status      ReorderStatus `json:"status"`
	RequestedBy string        `json:"requested_by,omitempty"`
	ApprovedBy  string        `json:"approved_by,omitempty"`
	RequestedAt time.Time     `json:"requested_at"`
	ApprovedAt  *time.Time    `json:"approved_at,omitempty"`
	ReceivedAt  *time.Time    `json:"received_at,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

// NewReorderRequest creates a validated pending ReorderRequest
func NewReorderRequest(itemID string, qty int, by, notes string, now time.Time) (*ReorderRequest, error) {
	if itemID == "" {
		return nil, invalidf("reorder request requires an item")
	}
	if qty <= 0 {
		return nil, invalidf("reorder quantity must be positive, got %d", qty)
	}
	return &ReorderRequest{
		ID:          NewID(),
		ItemID:      itemID,
		Quantity:    qty,
		Status:      ReorderPending,
		RequestedBy: by,
		RequestedAt: now,
		Notes:       notes,
	}, nil
}

func (r *ReorderRequest) Approve(by string, now time.Time) error {
	if r.Status != ReorderPending {
		return transitionf("reorder request is %s, expected %s", r.Status, ReorderPending)
	}
	r.Status = ReorderOrdered
	r.ApprovedBy = by
	r.ApprovedAt = timePtr(now)
	return nil
}

// Receive closes the request and restocks the item
func (r *ReorderRequest) Receive(item *InventoryItem, by string, now time.Time) (*InventoryLog, error) {
	if r.Status != ReorderOrdered {
		return nil, transitionf("reorder request is %s, expected %s", r.Status, ReorderOrdered)
	}
	if item.ID != r.ItemID {
		return nil, invalidf("item %s does not match reorder request item %s", item.ID, r.ItemID)
	}
	entry, err := item.Apply(OpIn, r.Quantity, "", "reorder received", by, now)
	if err != nil {
		return nil, err
	}
	r.Status = ReorderReceived
	r.ReceivedAt = timePtr(now)
	return entry, nil
}

func (r *ReorderRequest) Cancel() error {
	if r.Status != ReorderPending && r.Status != ReorderOrdered {
		return transitionf("reorder request is %s and cannot be cancelled", r.Status)
	}
	r.Status = ReorderCancelled
	return nil
}
