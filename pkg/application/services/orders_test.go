package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

func TestOrders_CreateAppliesPolicyAndNotifiesStaff(t *testing.T) {
	h := newHarness(t)

	first := h.genericOrder(t)
	second := h.genericOrder(t)

	assert.Equal(t, "TP-250312-0001", first.Code)
	assert.Equal(t, "TP-250312-0002", second.Code)
	assert.Equal(t, entities.OrderPending, first.Status)
	assert.Equal(t, h.f.Department.ID, first.OrgUnitID)
	assert.True(t, first.RequiresApproval)
	require.Len(t, first.Approvals, 1)
	assert.Equal(t, entities.DecisionPending, first.Approvals[0].Decision)
	require.Len(t, first.History, 1)
	assert.Equal(t, "order created", first.History[0].Note)

	// print manager, dept manager, dept employee, admin, approver
	counts := h.eventTypes(t)
	assert.Equal(t, 2, counts[events.OrderCreatedEvent])
	assert.Equal(t, 10, counts[events.NotificationCreatedEvent])
	assert.Len(t, h.notificationsFor(t, h.f.Approver), 2)
	assert.Empty(t, h.notificationsFor(t, h.f.Supervisor))
}

func TestOrders_CreateWithoutApprovalWhenPolicyDisabled(t *testing.T) {
	h := newHarness(t)
	off := false
	_, err := h.System.UpdatePolicy(context.Background(), h.f.Admin, dto.PolicyInput{IsGlobalEnabled: &off})
	require.NoError(t, err)

	o := h.genericOrder(t)
	assert.False(t, o.RequiresApproval)
	assert.Empty(t, o.Approvals)
}

func TestOrders_CreateValidatesFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		values []entities.FieldValue
	}{
		{"missing required", nil},
		{"unknown radio option", []entities.FieldValue{
			{FieldID: h.f.FieldID("name_on_card"), Value: "A"},
			{FieldID: h.f.FieldID("finish"), Value: "velvet"},
		}},
		{"foreign field", []entities.FieldValue{{FieldID: "nope", Value: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Orders.Create(ctx, h.f.Requester, dto.CreateOrderRequest{ServiceID: h.f.Service.ID, FieldValues: tt.values})
			assert.ErrorIs(t, err, entities.ErrValidation)
		})
	}

	_, err := h.Orders.Create(ctx, h.f.Requester, dto.CreateOrderRequest{ServiceID: "missing"})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestOrders_ApproveAndReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	o := h.genericOrder(t)
	_, err := h.Orders.Approve(ctx, h.f.Requester, o.ID, dto.DecisionInput{})
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := h.Orders.Approve(ctx, h.f.Approver, o.ID, dto.DecisionInput{Comment: "fine"})
	require.NoError(t, err)
	assert.Equal(t, entities.OrderApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, entities.DecisionApproved, approved.Approvals[0].Decision)
	assert.Equal(t, h.f.Approver.ID, approved.Approvals[0].ApproverID)
	assert.Equal(t, "fine", approved.Approvals[0].Comment)

	_, err = h.Orders.Reject(ctx, h.f.PrintManager, o.ID, dto.DecisionInput{})
	assert.ErrorIs(t, err, entities.ErrInvalidTransition)

	// decided orders drop out of the approver's view
	_, err = h.Orders.Get(ctx, h.f.Approver, o.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	inbox := h.notificationsFor(t, h.f.Requester)
	require.Len(t, inbox, 1)
	assert.Equal(t, entities.NotifyApproval, inbox[0].Type)
	assert.Equal(t, o.Code, inbox[0].DataString("order_code"))

	rejected, err := h.Orders.Reject(ctx, h.f.Approver, h.genericOrder(t).ID, dto.DecisionInput{Comment: "no"})
	require.NoError(t, err)
	assert.Equal(t, entities.OrderRejected, rejected.Status)
	assert.Equal(t, 2, h.eventTypes(t)[events.OrderStatusChangedEvent])
}

func TestOrders_UpdateStatusNotifiesOnlyOnChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.genericOrder(t)

	_, err := h.Orders.UpdateStatus(ctx, h.f.Requester, o.ID, dto.StatusUpdate{Status: "ready"})
	assert.ErrorIs(t, err, ErrForbidden)

	ready, err := h.Orders.UpdateStatus(ctx, h.f.PrintManager, o.ID, dto.StatusUpdate{Status: "ready"})
	require.NoError(t, err)
	assert.NotNil(t, ready.CompletedAt)

	_, err = h.Orders.UpdateStatus(ctx, h.f.PrintManager, o.ID, dto.StatusUpdate{Status: "ready", Note: "again"})
	require.NoError(t, err)
	assert.Len(t, h.notificationsFor(t, h.f.Requester), 1)

	_, err = h.Orders.UpdateStatus(ctx, h.f.PrintManager, o.ID, dto.StatusUpdate{Status: "shipped"})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestOrders_VisibilityAndStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.genericOrder(t)
	h.genericOrder(t)

	_, err := h.Orders.Get(ctx, h.f.Outsider, o.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	mine, err := h.Orders.List(ctx, h.f.Requester, dto.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	none, err := h.Orders.List(ctx, h.f.Outsider, dto.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	filtered, err := h.Orders.List(ctx, h.f.Admin, dto.OrderFilter{Status: "approved"})
	require.NoError(t, err)
	assert.Empty(t, filtered)

	stats, err := h.Orders.Stats(ctx, h.f.Requester)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 2, stats.PendingApprovals)
}

func TestOrders_SubmitAndAttach(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.genericOrder(t)

	_, err := h.Orders.Submit(ctx, h.f.Requester, o.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidTransition)

	withLink, err := h.Orders.Attach(ctx, h.f.Requester, o.ID, dto.AttachmentInput{
		Type: entities.AttachmentLink, LinkURL: "https://drive.example.com/card.pdf",
	})
	require.NoError(t, err)
	require.Len(t, withLink.Attachments, 1)

	_, err = h.Orders.Attach(ctx, h.f.Requester, o.ID, dto.AttachmentInput{Type: entities.AttachmentLink, LinkURL: "not a url"})
	assert.ErrorIs(t, err, entities.ErrValidation)
}
