package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

func TestNotifications_ReadAndPreferences(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	o := h.genericOrder(t)
	h.genericOrder(t)

	count, err := h.Notifications.UnreadCount(ctx, h.f.Approver)
	require.NoError(t, err)
	assert.Equal(t, 2, count.Count)

	inbox := h.notificationsFor(t, h.f.Approver)
	_, err = h.Notifications.MarkRead(ctx, h.f.Admin, inbox[0].ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	n, err := h.Notifications.MarkRead(ctx, h.f.Approver, inbox[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.NotNil(t, n.ReadAt)

	marked, err := h.Notifications.MarkAllAsRead(ctx, h.f.Approver)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	unread, err := h.Notifications.List(ctx, h.f.Approver, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	off := false
	prefs, err := h.Notifications.UpdatePreferences(ctx, h.f.Requester, dto.PreferenceUpdate{OrderUpdates: &off})
	require.NoError(t, err)
	assert.False(t, prefs.OrderUpdates)
	assert.True(t, prefs.Approvals)

	_, err = h.Orders.Approve(ctx, h.f.Approver, o.ID, dto.DecisionInput{})
	require.NoError(t, err)
	assert.Empty(t, h.notificationsFor(t, h.f.Requester))
}
