package handlers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

// Audit writes an audit log entry for every order status change and stock
// movement
type Audit struct {
	store  repositories.Store
	logger zerolog.Logger
}

func NewAudit(store repositories.Store, logger zerolog.Logger) *Audit {
	return &Audit{store: store, logger: logger.With().Str("component", "audit").Logger()}
}

var auditTypes = []string{
	events.OrderStatusChangedEvent,
	events.InventoryAdjustedEvent,
	events.InventoryDeductedEvent,
}

func (h *Audit) Types() []string { return auditTypes }

func (h *Audit) CanHandle(eventType string) bool { return handles(auditTypes, eventType) }

func (h *Audit) Handle(ctx context.Context, event events.Event) error {
	entry, err := auditEntry(event)
	if err != nil {
		return err
	}
	if err := h.store.Update(ctx, func(tx repositories.Tx) error {
		return tx.AuditLogs().Put(entry)
	}); err != nil {
		return fmt.Errorf("failed to write audit log for %s: %w", event.Type(), err)
	}
	h.logger.Debug().Str("action", entry.Action).Str("stream", event.StreamID()).Msg("audit log written")
	return nil
}

func auditEntry(event events.Event) (*entities.AuditLog, error) {
	switch data := event.Data().(type) {
	case events.OrderStatusChanged:
		return entities.NewAuditLog(data.ActorID, event.Type(), map[string]interface{}{
			"order_type": string(data.Kind),
			"order_id":   data.OrderID,
			"order_code": data.OrderCode,
			"from":       data.From,
			"to":         data.To,
			"note":       data.Note,
		}, event.Timestamp()), nil
	case events.InventoryMoved:
		return entities.NewAuditLog(data.Log.PerformedBy, event.Type(), map[string]interface{}{
			"item_id":        data.Log.ItemID,
			"item_name":      data.ItemName,
			"sku":            data.SKU,
			"operation":      string(data.Log.Operation),
			"quantity":       data.Log.Quantity,
			"balance_after":  data.Log.BalanceAfter,
			"print_order_id": data.Log.PrintOrderID,
		}, event.Timestamp()), nil
	default:
		return nil, fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
	}
}
