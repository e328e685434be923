package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/auth"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
	fixtures "github.com/vsinha/printcenter/pkg/infrastructure/testing"
)

type harness struct {
	*Services
	f      *fixtures.Fixture
	events *events.InMemoryEventStore
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	f, err := fixtures.NewFixture()
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("test-secret", 15*time.Minute, time.Hour)
	require.NoError(t, err)
	t.Cleanup(issuer.Stop)

	h := &harness{f: f, events: events.NewInMemoryEventStore(zerolog.Nop()), now: fixtures.FixedNow}
	h.Services, err = New(Options{
		Store:    f.Store,
		Events:   h.events,
		Tokens:   issuer,
		Clock:    func() time.Time { return h.now },
		Location: time.UTC,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return h
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *harness) eventTypes(t *testing.T) map[string]int {
	t.Helper()
	all, err := h.events.ReadAllEvents(0)
	require.NoError(t, err)
	counts := make(map[string]int)
	for _, e := range all {
		counts[e.Type()]++
	}
	return counts
}

func (h *harness) notificationsFor(t *testing.T, user *entities.User) []*entities.Notification {
	t.Helper()
	rows, err := h.Notifications.List(context.Background(), user, false)
	require.NoError(t, err)
	return rows
}

func (h *harness) printOrder(t *testing.T, paper entities.PaperType, weight int) *entities.PrintOrder {
	t.Helper()
	p, err := h.Prints.Create(context.Background(), h.f.Requester, dto.CreatePrintOrderRequest{
		PrintType:      entities.PrintFlyers,
		ProductionDept: entities.DeptDigital,
		Size:           entities.SizeA4,
		PaperType:      paper,
		PaperWeight:    weight,
		Quantity:       100,
		Sides:          2,
		Pages:          1,
		DeliveryMethod: entities.DeliverySelfPickup,
	})
	require.NoError(t, err)
	return p
}

// producedPrintOrder returns a print order waiting for the requester's confirmation
func (h *harness) producedPrintOrder(t *testing.T) *entities.PrintOrder {
	t.Helper()
	ctx := context.Background()
	p := h.printOrder(t, entities.PaperCoated, 150)
	_, err := h.Prints.Approve(ctx, h.f.PrintManager, p.ID)
	require.NoError(t, err)
	p, err = h.Prints.RecordActualQuantity(ctx, h.f.DeptEmployee, p.ID, 100)
	require.NoError(t, err)
	return p
}

func (h *harness) genericOrder(t *testing.T) *entities.Order {
	t.Helper()
	o, err := h.Orders.Create(context.Background(), h.f.Requester, dto.CreateOrderRequest{
		ServiceID: h.f.Service.ID,
		FieldValues: []entities.FieldValue{
			{FieldID: h.f.FieldID("name_on_card"), Value: "Dr. Layla"},
			{FieldID: h.f.FieldID("finish"), Value: "matte"},
		},
	})
	require.NoError(t, err)
	return o
}

func (h *harness) item(t *testing.T, id string) *entities.InventoryItem {
	t.Helper()
	var item *entities.InventoryItem
	require.NoError(t, h.f.Store.View(context.Background(), func(tx repositories.Tx) error {
		var err error
		item, err = tx.InventoryItems().Get(id)
		return err
	}))
	return item
}
