package handlers

import (
	"context"

	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

// EventRecorder is the part of the metrics collector fed by events
type EventRecorder interface {
	RecordEvent(eventType string)
	AddPaperSheets(n int)
}

// Metrics counts every domain event and the paper drawn by print orders
type Metrics struct {
	recorder EventRecorder
}

func NewMetrics(recorder EventRecorder) *Metrics {
	return &Metrics{recorder: recorder}
}

func (h *Metrics) Types() []string { return events.AllEventTypes }

func (h *Metrics) CanHandle(string) bool { return true }

func (h *Metrics) Handle(_ context.Context, event events.Event) error {
	h.recorder.RecordEvent(event.Type())
	if event.Type() == events.InventoryDeductedEvent {
		if moved, ok := event.Data().(events.InventoryMoved); ok {
			h.recorder.AddPaperSheets(moved.Log.Quantity)
		}
	}
	return nil
}
