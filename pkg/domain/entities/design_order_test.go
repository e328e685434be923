package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDesignInput() DesignOrderInput {
	return DesignOrderInput{
		DesignType:  DesignPoster,
		Title:       "Open day poster",
		Size:        SizeA3,
		Description: "Poster for the spring open day",
	}
}

func TestNewDesignOrder_Validation(t *testing.T) {
	now := time.Now()
	requester := &User{ID: "req", OrgUnitID: "unit"}

	order, err := NewDesignOrder("DES-250101-0001", requester, validDesignInput(), now)
	require.NoError(t, err)
	assert.Equal(t, DesignPendingReview, order.Status)
	assert.Equal(t, UrgencyNormal, order.Priority)
	assert.Equal(t, "unit", order.OrgUnitID)

	testCases := []struct {
		name        string
		mutate      func(*DesignOrderInput)
		expectError string
	}{
		{"missing title", func(in *DesignOrderInput) { in.Title = " " }, "validation failed: title is required"},
		{"missing description", func(in *DesignOrderInput) { in.Description = "" }, "validation failed: description is required"},
		{"bad type", func(in *DesignOrderInput) { in.DesignType = "mural" }, `validation failed: unknown design type "mural"`},
		{"A7 not allowed", func(in *DesignOrderInput) { in.Size = SizeA7 }, `validation failed: unknown design size "A7"`},
		{"custom without size", func(in *DesignOrderInput) { in.Size = SizeCustom }, "validation failed: custom_size is required when size is custom"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := validDesignInput()
			tc.mutate(&in)
			_, err := NewDesignOrder("DES-250101-0002", requester, in, now)
			assert.EqualError(t, err, tc.expectError)
		})
	}
}

func TestDesignOrder_HappyPath(t *testing.T) {
	start := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	order, err := NewDesignOrder("DES-250201-0001", &User{ID: "req"}, validDesignInput(), start)
	require.NoError(t, err)

	require.NoError(t, order.Approve("pm", start))
	assert.Equal(t, DesignInDesign, order.Status)

	ready := start.Add(time.Hour)
	require.NoError(t, order.MarkReadyForConfirm("emp", ready))
	require.NotNil(t, order.ConfirmationDeadline)
	assert.Equal(t, ready.Add(ConfirmationWindow), *order.ConfirmationDeadline)

	confirmAt := ready.Add(71 * time.Hour)
	require.NoError(t, order.Confirm("req", confirmAt))
	assert.Equal(t, DesignCompleted, order.Status)
	require.NotNil(t, order.ConfirmedAt)
	require.NotNil(t, order.CompletedAt)
	assert.Len(t, order.History, 4)
}

func TestDesignOrder_ConfirmAfterDeadline(t *testing.T) {
	start := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	order, err := NewDesignOrder("DES-250201-0001", &User{ID: "req"}, validDesignInput(), start)
	require.NoError(t, err)
	require.NoError(t, order.Approve("pm", start))
	require.NoError(t, order.MarkReadyForConfirm("emp", start))

	late := start.Add(ConfirmationWindow + time.Minute)
	assert.True(t, order.IsConfirmationExpired(late))
	err = order.Confirm("req", late)
	assert.ErrorIs(t, err, ErrConfirmationExpired)
	assert.Equal(t, DesignSuspended, order.Status)
	assert.Nil(t, order.ConfirmedAt)
	assert.Nil(t, order.CompletedAt)
	require.Len(t, order.History, 4)
	last := order.History[3]
	assert.Equal(t, string(DesignSuspended), last.Status)
	assert.Equal(t, "confirmation window expired", last.Note)
	assert.Equal(t, "req", last.ChangedBy)
}

func TestDesignOrder_Transitions(t *testing.T) {
	now := time.Now()
	order, err := NewDesignOrder("DES-1", &User{ID: "req"}, validDesignInput(), now)
	require.NoError(t, err)

	assert.ErrorIs(t, order.MarkReadyForConfirm("emp", now), ErrInvalidTransition)
	assert.ErrorIs(t, order.Confirm("req", now), ErrInvalidTransition)

	require.NoError(t, order.ReturnToRequester("pm", "needs logo", now))
	assert.Equal(t, DesignReturned, order.Status)
	assert.ErrorIs(t, order.ReturnToRequester("pm", "", now), ErrInvalidTransition, "returned is final")

	require.NoError(t, order.SetStatus(DesignPendingConfirm, "", "pm", now))
	assert.NotNil(t, order.ConfirmationDeadline, "any path into pending_confirm opens the window")
}

func TestDesignOrder_Visibility(t *testing.T) {
	order := &DesignOrder{RequesterID: "owner"}
	assert.True(t, order.VisibleTo(&User{ID: "pm", Role: RolePrintManager}))
	assert.True(t, order.VisibleTo(&User{ID: "owner", Role: RoleConsumer}))
	assert.True(t, order.VisibleTo(&User{ID: "emp", Role: RoleDeptEmployee}))
	assert.False(t, order.VisibleTo(&User{ID: "dm", Role: RoleDeptManager}))
	assert.False(t, order.VisibleTo(&User{ID: "other", Role: RoleConsumer}))
}
