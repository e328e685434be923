package events

import (
	"time"

	"github.com/vsinha/printcenter/pkg/domain/entities"
)

const (
	OrderCreatedEvent       = "order.created"
	OrderStatusChangedEvent = "order.status_changed"

	InventoryDeductedEvent = "inventory.deducted"
	InventoryAdjustedEvent = "inventory.adjusted"

	NotificationCreatedEvent = "notification.created"
)

// AllEventTypes lists every domain event type
var AllEventTypes = []string{
	OrderCreatedEvent, OrderStatusChangedEvent,
	InventoryDeductedEvent, InventoryAdjustedEvent,
	NotificationCreatedEvent,
}

type OrderCreated struct {
	Kind        entities.OrderKind `json:"kind"`
	OrderID     string             `json:"order_id"`
	OrderCode   string             `json:"order_code"`
	RequesterID string             `json:"requester_id"`
}

type OrderStatusChanged struct {
	Kind      entities.OrderKind `json:"kind"`
	OrderID   string             `json:"order_id"`
	OrderCode string             `json:"order_code"`
	From      string             `json:"from"`
	To        string             `json:"to"`
	ActorID   string             `json:"actor_id,omitempty"`
	Note      string             `json:"note,omitempty"`
}

type InventoryMoved struct {
	Log      entities.InventoryLog `json:"log"`
	ItemName string                `json:"item_name"`
	SKU      string                `json:"sku"`
}

type NotificationCreated struct {
	Notification entities.Notification `json:"notification"`
}

func NewOrderCreatedEvent(kind entities.OrderKind, id, code, requesterID string, at time.Time) Event {
	return NewEvent(OrderCreatedEvent, id, OrderCreated{
		Kind:        kind,
		OrderID:     id,
		OrderCode:   code,
		RequesterID: requesterID,
	}, at)
}

func NewOrderStatusChangedEvent(kind entities.OrderKind, id, code, from, to, actorID, note string, at time.Time) Event {
	return NewEvent(OrderStatusChangedEvent, id, OrderStatusChanged{
		Kind:      kind,
		OrderID:   id,
		OrderCode: code,
		From:      from,
		To:        to,
		ActorID:   actorID,
		Note:      note,
	}, at)
}

// NewInventoryEvent emits inventory.deducted for automatic print deductions
// and inventory.adjusted for everything else
func NewInventoryEvent(item *entities.InventoryItem, entry *entities.InventoryLog) Event {
	eventType := InventoryAdjustedEvent
	if entry.PrintOrderID != "" {
		eventType = InventoryDeductedEvent
	}
	return NewEvent(eventType, item.ID, InventoryMoved{
		Log:      *entry,
		ItemName: item.Name,
		SKU:      item.SKU,
	}, entry.CreatedAt)
}

func NewNotificationCreatedEvent(n *entities.Notification) Event {
	return NewEvent(NotificationCreatedEvent, n.RecipientID, NotificationCreated{Notification: *n}, n.CreatedAt)
}
