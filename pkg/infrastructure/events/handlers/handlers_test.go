package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
	fixtures "github.com/vsinha/printcenter/pkg/infrastructure/testing"
)

func setup(t *testing.T) (*fixtures.Fixture, *events.InMemoryEventStore, *services.Services) {
	t.Helper()
	f, err := fixtures.NewFixture()
	require.NoError(t, err)
	es := events.NewInMemoryEventStore(zerolog.Nop())
	svc, err := services.New(services.Options{
		Store:  f.Store,
		Events: es,
		Clock:  func() time.Time { return fixtures.FixedNow },
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return f, es, svc
}

func auditLogs(t *testing.T, store repositories.Store) []*entities.AuditLog {
	t.Helper()
	var rows []*entities.AuditLog
	require.NoError(t, store.View(context.Background(), func(tx repositories.Tx) error {
		var err error
		rows, err = tx.AuditLogs().List(nil)
		return err
	}))
	return rows
}

func TestAudit_WritesStatusChangesAndStockMoves(t *testing.T) {
	f, es, svc := setup(t)
	require.NoError(t, Register(es, NewAudit(f.Store, zerolog.Nop())))
	ctx := context.Background()

	o, err := svc.Orders.Create(ctx, f.Requester, dto.CreateOrderRequest{
		ServiceID: f.Service.ID,
		FieldValues: []entities.FieldValue{
			{FieldID: f.FieldID("name_on_card"), Value: "Dr. Layla"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, auditLogs(t, f.Store), "creation is not audited")

	_, err = svc.Orders.UpdateStatus(ctx, f.PrintManager, o.ID, dto.StatusUpdate{Status: "in_production", Note: "started"})
	require.NoError(t, err)
	_, _, err = svc.Inventory.Adjust(ctx, f.StockKeeper, f.CoatedPaper.ID, dto.AdjustRequest{Operation: entities.OpOut, Quantity: 100})
	require.NoError(t, err)

	byAction := make(map[string]*entities.AuditLog)
	for _, a := range auditLogs(t, f.Store) {
		byAction[a.Action] = a
	}
	require.Len(t, byAction, 2)

	status := byAction[events.OrderStatusChangedEvent]
	require.NotNil(t, status)
	assert.Equal(t, f.PrintManager.ID, status.ActorID)
	assert.Equal(t, o.Code, status.Metadata["order_code"])
	assert.Equal(t, "in_production", status.Metadata["to"])
	assert.Equal(t, "started", status.Metadata["note"])

	moved := byAction[events.InventoryAdjustedEvent]
	require.NotNil(t, moved)
	assert.Equal(t, f.StockKeeper.ID, moved.ActorID)
	assert.Equal(t, "PAP-C150", moved.Metadata["sku"])
	assert.EqualValues(t, 4900, moved.Metadata["balance_after"])
}

type fakeRecorder struct {
	events map[string]int
	sheets int
}

func (r *fakeRecorder) RecordEvent(t string) {
	if r.events == nil {
		r.events = make(map[string]int)
	}
	r.events[t]++
}

func (r *fakeRecorder) AddPaperSheets(n int) { r.sheets += n }

func TestMetrics_CountsEventsAndSheets(t *testing.T) {
	es := events.NewInMemoryEventStore(zerolog.Nop())
	rec := &fakeRecorder{}
	require.NoError(t, Register(es, NewMetrics(rec)))

	item := &entities.InventoryItem{ID: "item-1", Name: "A4 Coated 150g", SKU: "PAP-C150"}
	now := fixtures.FixedNow
	require.NoError(t, es.Publish(context.Background(),
		events.NewInventoryEvent(item, &entities.InventoryLog{ItemID: item.ID, Operation: entities.OpOut, Quantity: 200, PrintOrderID: "po-1", CreatedAt: now}),
		events.NewInventoryEvent(item, &entities.InventoryLog{ItemID: item.ID, Operation: entities.OpIn, Quantity: 500, CreatedAt: now}),
		events.NewOrderCreatedEvent(entities.KindPrint, "po-1", "PRT-250312-0001", "u1", now),
	))

	assert.Equal(t, 1, rec.events[events.InventoryDeductedEvent])
	assert.Equal(t, 1, rec.events[events.InventoryAdjustedEvent])
	assert.Equal(t, 1, rec.events[events.OrderCreatedEvent])
	assert.Equal(t, 200, rec.sheets)
}

type endpoint struct {
	mu       sync.Mutex
	hits     atomic.Int32
	failures int32
	status   int
	payloads []WebhookPayload
}

func (e *endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := e.hits.Add(1)
	if n <= e.failures {
		w.WriteHeader(e.status)
		return
	}
	var p WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
		e.mu.Lock()
		e.payloads = append(e.payloads, p)
		e.mu.Unlock()
	}
	w.WriteHeader(http.StatusNoContent)
}

func notificationEvent(t *testing.T, recipient *entities.User) events.Event {
	t.Helper()
	n, err := entities.NewNotification(recipient.ID, entities.NotifyOrderStatus, "Request status updated", "Your request is ready", nil, fixtures.FixedNow)
	require.NoError(t, err)
	return events.NewNotificationCreatedEvent(n)
}

func TestWebhook_Delivery(t *testing.T) {
	tests := []struct {
		name     string
		failures int32
		status   int
		optOut   bool
		hits     int32
		payloads int
	}{
		{name: "delivered first time", hits: 1, payloads: 1},
		{name: "retries server errors", failures: 1, status: http.StatusServiceUnavailable, hits: 2, payloads: 1},
		{name: "client errors are final", failures: 5, status: http.StatusBadRequest, hits: 1},
		{name: "unsubscribed recipient", optOut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, es, svc := setup(t)
			ep := &endpoint{failures: tt.failures, status: tt.status}
			srv := httptest.NewServer(ep)
			defer srv.Close()

			hook := NewWebhook(srv.URL, 10*time.Second, f.Store, srv.Client(), zerolog.Nop())
			require.NoError(t, Register(es, hook))

			if tt.optOut {
				off := false
				_, err := svc.Notifications.UpdatePreferences(context.Background(), f.Requester, dto.PreferenceUpdate{EmailSubscription: &off})
				require.NoError(t, err)
			}

			require.NoError(t, es.Publish(context.Background(), notificationEvent(t, f.Requester)))
			hook.Wait()

			assert.Equal(t, tt.hits, ep.hits.Load())
			require.Len(t, ep.payloads, tt.payloads)
			if tt.payloads > 0 {
				assert.Equal(t, f.Requester.Email, ep.payloads[0].Recipient.Email)
				assert.Equal(t, events.NotificationCreatedEvent, ep.payloads[0].Event)
				assert.Equal(t, "Your request is ready", ep.payloads[0].Notification.Message)
			}
		})
	}
}

func TestWebhook_UnknownRecipient(t *testing.T) {
	f, _, _ := setup(t)
	hook := NewWebhook("http://127.0.0.1:0", time.Second, f.Store, nil, zerolog.Nop())
	err := hook.Handle(context.Background(), notificationEvent(t, &entities.User{ID: "ghost"}))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
