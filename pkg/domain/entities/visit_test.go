package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVisitRequest(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	today := DateOf(now)
	requester := &User{ID: "req"}

	v, err := NewVisitRequest(requester, VisitRequestInput{
		VisitType: VisitInternal, Purpose: "tour", RequestedDate: "2025-06-12", RequestedTime: "9:30",
	}, today, now)
	require.NoError(t, err)
	assert.Equal(t, "09:30", v.RequestedTime)
	assert.Equal(t, VisitPending, v.Status)

	testCases := []struct {
		name        string
		in          VisitRequestInput
		expectError string
	}{
		{"past date", VisitRequestInput{VisitType: VisitInternal, Purpose: "x", RequestedDate: "2025-06-09", RequestedTime: "10:00"}, "validation failed: cannot book a visit in the past (2025-06-09)"},
		{"external without permit", VisitRequestInput{VisitType: VisitExternal, Purpose: "x", RequestedDate: "2025-06-12", RequestedTime: "10:00"}, "validation failed: external visits require a signed and stamped permit"},
		{"bad time", VisitRequestInput{VisitType: VisitInternal, Purpose: "x", RequestedDate: "2025-06-12", RequestedTime: "noon"}, `validation failed: time "noon" must be formatted as HH:MM`},
		{"no purpose", VisitRequestInput{VisitType: VisitInternal, RequestedDate: "2025-06-12", RequestedTime: "10:00"}, "validation failed: purpose is required"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVisitRequest(requester, tc.in, today, now)
			assert.EqualError(t, err, tc.expectError)
		})
	}
}

func TestVisitRequest_ExternalNeedsSecurity(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	v, err := NewVisitRequest(&User{ID: "req"}, VisitRequestInput{
		VisitType: VisitExternal, Purpose: "delegation", RequestedDate: "2025-06-20", RequestedTime: "11:00", PermitFile: "permit.pdf",
	}, DateOf(now), now)
	require.NoError(t, err)

	assert.ErrorIs(t, v.ClearSecurity("admin", "", now), ErrInvalidTransition)
	require.NoError(t, v.Approve("pm", "ok", now))
	assert.Equal(t, VisitPending, v.Status)
	assert.True(t, v.AwaitingSecurity())

	require.NoError(t, v.ClearSecurity("admin", "badge issued", now))
	assert.Equal(t, VisitApproved, v.Status)
	assert.NotNil(t, v.ApprovedAt)
}

func TestVisitRequest_PostponeAndCancel(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	today := DateOf(now)
	v := &VisitRequest{Status: VisitPending, RequestedDate: "2025-06-11"}

	assert.ErrorIs(t, v.Postpone("", "", today, now), ErrValidation)
	assert.ErrorIs(t, v.Postpone("2025-06-01", "", today, now), ErrValidation)
	require.NoError(t, v.Postpone("2025-06-15", "busy", today, now))
	assert.Equal(t, VisitPostponed, v.Status)
	assert.Equal(t, Date("2025-06-15"), v.RequestedDate)

	require.NoError(t, v.Cancel(now))
	assert.ErrorIs(t, v.Cancel(now), ErrInvalidTransition)
}

func TestVisitSchedule_Availability(t *testing.T) {
	now := time.Now()
	s, err := NewVisitSchedule("2025-07-01", []string{"09:00", "10:00", "9:00"}, VisitInternal, "pm", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, s.AvailableSlots)

	taken := map[string]bool{"09:00": true}
	assert.False(t, s.SlotAvailable("09:00", VisitInternal, taken), "slot held by a booking")
	assert.True(t, s.SlotAvailable("10:00", VisitInternal, taken))
	assert.False(t, s.SlotAvailable("10:00", VisitExternal, taken), "restricted to internal")
	assert.False(t, s.SlotAvailable("11:00", VisitInternal, taken), "slot not listed")
	assert.Equal(t, []string{"10:00"}, s.FreeSlots(VisitInternal, taken))

	s.IsBlocked = true
	assert.Empty(t, s.FreeSlots(VisitInternal, nil))
}

func TestVisitBooking_Lifecycle(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 7, 1, 8, 0, 0, 0, loc)
	req := &VisitRequest{ID: "v1", VisitType: VisitInternal}
	s, err := NewVisitSchedule("2025-07-01", []string{"09:00"}, "", "pm", now)
	require.NoError(t, err)

	b, err := NewVisitBooking(req, s, "09:00", nil, now)
	require.NoError(t, err)
	_, err = NewVisitBooking(req, s, "09:00", map[string]bool{"09:00": true}, now)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, b.Confirm(now))
	assert.False(t, b.IsOverdue(now.Add(70*time.Minute), loc), "10 minutes late is still fine")
	assert.True(t, b.IsOverdue(now.Add(71*time.Minute), loc))

	require.NoError(t, b.CheckIn(now.Add(time.Hour)))
	assert.Equal(t, BookingCompleted, b.Status)
	assert.ErrorIs(t, b.CheckIn(now.Add(time.Hour)), ErrInvalidTransition)
	assert.False(t, b.IsOverdue(now.Add(2*time.Hour), loc))
}
