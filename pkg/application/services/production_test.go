package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

func (h *harness) designOrder(t *testing.T) *entities.DesignOrder {
	t.Helper()
	d, err := h.Designs.Create(context.Background(), h.f.Requester, dto.CreateDesignOrderRequest{
		DesignOrderInput: entities.DesignOrderInput{
			DesignType:  entities.DesignPoster,
			Title:       "Open day poster",
			Size:        entities.SizeA3,
			Description: "Faculty open day, blue theme",
		},
	})
	require.NoError(t, err)
	return d
}

// readyDesign returns a design order waiting for the requester's confirmation
func (h *harness) readyDesign(t *testing.T) *entities.DesignOrder {
	t.Helper()
	ctx := context.Background()
	d := h.designOrder(t)
	_, err := h.Designs.Approve(ctx, h.f.PrintManager, d.ID)
	require.NoError(t, err)
	d, err = h.Designs.MarkReadyForConfirm(ctx, h.f.DeptEmployee, d.ID)
	require.NoError(t, err)
	return d
}

func TestDesigns_Lifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	d := h.designOrder(t)
	assert.True(t, strings.HasPrefix(d.Code, "DES-250312-"))
	assert.Equal(t, entities.DesignPendingReview, d.Status)

	_, err := h.Designs.Approve(ctx, h.f.Requester, d.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	d, err = h.Designs.Approve(ctx, h.f.PrintManager, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.DesignInDesign, d.Status)

	d, err = h.Designs.MarkReadyForConfirm(ctx, h.f.DeptEmployee, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.DesignPendingConfirm, d.Status)
	require.NotNil(t, d.ConfirmationDeadline)
	assert.Equal(t, h.now.Add(entities.ConfirmationWindow), *d.ConfirmationDeadline)

	_, err = h.Designs.Confirm(ctx, h.f.PrintManager, d.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	h.advance(time.Hour)
	d, err = h.Designs.Confirm(ctx, h.f.Requester, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.DesignCompleted, d.Status)
	assert.NotNil(t, d.CompletedAt)

	// approve and ready notify the requester, confirm does not
	assert.Len(t, h.notificationsFor(t, h.f.Requester), 2)
	assert.Equal(t, 3, h.eventTypes(t)[events.OrderStatusChangedEvent])
}

func TestDesigns_LateConfirmationSuspends(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.readyDesign(t)

	h.advance(73 * time.Hour)
	got, err := h.Designs.Confirm(ctx, h.f.Requester, d.ID)
	require.ErrorIs(t, err, entities.ErrConfirmationExpired)
	require.NotNil(t, got)
	assert.Equal(t, entities.DesignSuspended, got.Status)

	stored, err := h.Designs.Get(ctx, h.f.Requester, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.DesignSuspended, stored.Status)
}

func TestDesigns_Visibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.designOrder(t)

	_, err := h.Designs.Get(ctx, h.f.Outsider, d.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	list, err := h.Designs.List(ctx, h.f.PrintManager, dto.OrderFilter{Status: string(entities.DesignPendingReview)})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	returned, err := h.Designs.ReturnToRequester(ctx, h.f.PrintManager, d.ID, dto.DecisionInput{Comment: "needs a logo"})
	require.NoError(t, err)
	assert.Equal(t, entities.DesignReturned, returned.Status)
	assert.Equal(t, "needs a logo", returned.History[len(returned.History)-1].Note)
}

func TestPrints_ProductionDeductsPaperOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := h.producedPrintOrder(t)
	assert.Equal(t, entities.PrintPendingConfirm, p.Status)
	assert.Equal(t, 100, p.ActualQuantity)
	assert.True(t, p.InventoryDeducted)
	assert.Equal(t, 4800, h.item(t, h.f.CoatedPaper.ID).CurrentQuantity)
	assert.Equal(t, 10000, h.item(t, h.f.NormalPaper.ID).CurrentQuantity)
	assert.Equal(t, 1, h.eventTypes(t)[events.InventoryDeductedEvent])

	logs, err := h.Inventory.Logs(ctx, h.f.StockKeeper, h.f.CoatedPaper.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, p.ID, logs[0].PrintOrderID)
	assert.Equal(t, 4800, logs[0].BalanceAfter)

	// re-recording after a manual rewind does not draw stock again
	_, err = h.Prints.UpdateStatus(ctx, h.f.PrintManager, p.ID, dto.StatusUpdate{Status: string(entities.PrintInProduction)})
	require.NoError(t, err)
	_, err = h.Prints.RecordActualQuantity(ctx, h.f.DeptEmployee, p.ID, 120)
	require.NoError(t, err)
	assert.Equal(t, 4800, h.item(t, h.f.CoatedPaper.ID).CurrentQuantity)
}

func TestPrints_ConfirmAndDeliver(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.producedPrintOrder(t)

	_, err := h.Prints.Confirm(ctx, h.f.PrintManager, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err = h.Prints.Confirm(ctx, h.f.Requester, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PrintInWarehouse, p.Status)

	p, err = h.Prints.ScheduleDelivery(ctx, h.f.Requester, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PrintDeliveryScheduled, p.Status)

	p, err = h.Prints.UpdateStatus(ctx, h.f.PrintManager, p.ID, dto.StatusUpdate{Status: string(entities.PrintArchived)})
	require.NoError(t, err)
	assert.NotNil(t, p.CompletedAt)
}

func TestPrints_LateConfirmationSuspends(t *testing.T) {
	h := newHarness(t)
	p := h.producedPrintOrder(t)

	h.advance(73 * time.Hour)
	got, err := h.Prints.Confirm(context.Background(), h.f.Requester, p.ID)
	require.ErrorIs(t, err, entities.ErrConfirmationExpired)
	assert.Equal(t, entities.PrintSuspended, got.Status)
}

func TestPrints_CreateAndCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.Prints.Create(ctx, h.f.Requester, dto.CreatePrintOrderRequest{
		PrintType:      entities.PrintBusinessCards,
		ProductionDept: entities.DeptDigital,
		Size:           entities.SizeA7,
		PaperType:      entities.PaperCardboard,
		PaperWeight:    300,
		Quantity:       200,
		DeliveryMethod: entities.DeliverySelfPickup,
	})
	assert.ErrorIs(t, err, entities.ErrValidation)

	p := h.printOrder(t, entities.PaperNormal, 80)
	assert.True(t, strings.HasPrefix(p.Code, "PRT-250312-"))

	_, err = h.Prints.Cancel(ctx, h.f.Outsider, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	p, err = h.Prints.Cancel(ctx, h.f.Requester, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PrintCancelled, p.Status)

	_, err = h.Prints.Approve(ctx, h.f.PrintManager, p.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidTransition)
}

func TestDesigns_VisibleToDesignStaff(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	d := h.designOrder(t)

	tests := []struct {
		name    string
		actor   *entities.User
		visible bool
	}{
		{"requester", h.f.Requester, true},
		{"print manager", h.f.PrintManager, true},
		{"department employee", h.f.DeptEmployee, true},
		{"department manager", h.f.DeptManager, false},
		{"another requester", h.f.Outsider, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Designs.Get(ctx, tt.actor, d.ID)
			rows, listErr := h.Designs.List(ctx, tt.actor, dto.OrderFilter{})
			require.NoError(t, listErr)
			if !tt.visible {
				assert.ErrorIs(t, err, repositories.ErrNotFound)
				assert.Empty(t, rows)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, d.ID, got.ID)
			require.Len(t, rows, 1)
			assert.Equal(t, d.ID, rows[0].ID)
		})
	}
}
