package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/domain/entities"
)

func TestInMemoryEventStore_DispatchesSynchronously(t *testing.T) {
	store := NewInMemoryEventStore(zerolog.Nop())
	ctx := context.Background()

	var seen []string
	handler := &HandlerFunc{
		Types: []string{OrderCreatedEvent},
		Fn: func(_ context.Context, e Event) error {
			seen = append(seen, e.Data().(OrderCreated).OrderCode)
			return nil
		},
	}
	require.NoError(t, store.Subscribe([]string{OrderCreatedEvent}, handler))

	now := time.Now()
	require.NoError(t, store.Publish(ctx,
		NewOrderCreatedEvent(entities.KindPrint, "o1", "PRT-1", "u1", now),
		NewOrderStatusChangedEvent(entities.KindPrint, "o1", "PRT-1", "pending_review", "in_production", "pm", "", now),
	))
	assert.Equal(t, []string{"PRT-1"}, seen)

	stream, err := store.ReadEvents("o1", 1)
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, 2, stream[1].Version())

	require.NoError(t, store.Publish(ctx, NewOrderCreatedEvent(entities.KindDesign, "o2", "DES-1", "u1", now)))
	assert.Equal(t, []string{"PRT-1", "DES-1"}, seen)

	stream, err = store.ReadEvents("missing", 0)
	require.NoError(t, err)
	assert.Empty(t, stream)
}

func TestInMemoryEventStore_HandlerErrorsAreSwallowed(t *testing.T) {
	store := NewInMemoryEventStore(zerolog.Nop())
	calls := 0
	failing := &HandlerFunc{Types: []string{NotificationCreatedEvent}, Fn: func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	}}
	require.NoError(t, store.Subscribe([]string{NotificationCreatedEvent}, failing))

	n := &entities.Notification{ID: "n1", RecipientID: "u1", CreatedAt: time.Now()}
	assert.NoError(t, store.Publish(context.Background(), NewNotificationCreatedEvent(n)))
	assert.Equal(t, 1, calls)
}

func TestInMemoryEventStore_Retention(t *testing.T) {
	store := NewInMemoryEventStore(zerolog.Nop())
	store.retention = 10
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		require.NoError(t, store.AppendEvent(ctx, "s", NewEvent("x", "s", i, time.Now())))
	}

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, 5, all[0].Data())

	tests := []struct {
		name  string
		from  int
		first interface{}
		count int
	}{
		{"before the retained window", 2, 5, 6},
		{"absolute position", 8, 8, 3},
		{"last event", 10, 10, 1},
		{"past the end", 11, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ReadAllEvents(tt.from)
			require.NoError(t, err)
			require.Len(t, got, tt.count)
			if tt.count > 0 {
				assert.Equal(t, tt.first, got[0].Data())
			}
		})
	}

	require.NoError(t, store.AppendEvent(ctx, "s", NewEvent("x", "s", 11, time.Now())))
	require.NoError(t, store.AppendEvent(ctx, "t", NewEvent("x", "t", 12, time.Now())))

	stream, err := store.ReadEvents("s", 0)
	require.NoError(t, err)
	require.Len(t, stream, 7)
	for i, e := range stream {
		assert.Equal(t, 6+i, e.Version())
	}
	assert.Equal(t, 12, stream[len(stream)-1].Version())

	stream, err = store.ReadEvents("s", 11)
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, 10, stream[0].Data())

	other, err := store.ReadEvents("t", 0)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, 1, other[0].Version())
}

func TestNewInventoryEvent(t *testing.T) {
	item := &entities.InventoryItem{ID: "i1", Name: "Paper", SKU: "P"}
	manual := NewInventoryEvent(item, &entities.InventoryLog{ItemID: "i1"})
	assert.Equal(t, InventoryAdjustedEvent, manual.Type())

	auto := NewInventoryEvent(item, &entities.InventoryLog{ItemID: "i1", PrintOrderID: "p1"})
	assert.Equal(t, InventoryDeductedEvent, auto.Type())
}
