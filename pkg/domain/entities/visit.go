package entities

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// SlotLayout is the wire format for visit time slots
const SlotLayout = "15:04"

// BookingGrace is how late a confirmed visitor may be before the booking is overdue
const BookingGrace = 10 * time.Minute

type VisitType string

const (
	VisitInternal VisitType = "internal"
	VisitExternal VisitType = "external"
)

func (t VisitType) Valid() bool { return t == VisitInternal || t == VisitExternal }

type VisitStatus string

const (
	VisitPending   VisitStatus = "pending"
	VisitApproved  VisitStatus = "approved"
	VisitRejected  VisitStatus = "rejected"
	VisitPostponed VisitStatus = "postponed"
	VisitCancelled VisitStatus = "cancelled"
	VisitCompleted VisitStatus = "completed"
)

// Date is a calendar day without a time of day, encoded as YYYY-MM-DD
type Date string

// ParseDate validates a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", invalidf("date %q must be formatted as YYYY-MM-DD", s)
	}
	return Date(s), nil
}

// DateOf returns the calendar day of t in t's location
func DateOf(t time.Time) Date { return Date(t.Format(DateLayout)) }

// Time returns midnight of the date in loc
func (d Date) Time(loc *time.Location) time.Time {
	t, _ := time.ParseInLocation(DateLayout, string(d), loc)
	return t
}

// Before compares two dates
func (d Date) Before(other Date) bool { return d < other }

// AddDays returns the date n days later
func (d Date) AddDays(n int) Date { return DateOf(d.Time(time.UTC).AddDate(0, 0, n)) }

// ParseSlot normalises an HH:MM slot
func ParseSlot(s string) (string, error) {
	t, err := time.Parse(SlotLayout, strings.TrimSpace(s))
	if err != nil {
		return "", invalidf("time %q must be formatted as HH:MM", s)
	}
	return t.Format(SlotLayout), nil
}

// VisitRequest is a request to tour the print center
type VisitRequest struct {
	ID                 string      `json:"id"`
	RequesterID        string      `json:"requester_id"`
	OrgUnitID          string      `json:"org_unit_id,omitempty"`
	VisitType          VisitType   `json:"visit_type"`
	Purpose            string      `json:"purpose"`
	RequestedDate      Date        `json:"requested_date"`
	RequestedTime      string      `json:"requested_time"`
	PermitFile         string      `json:"permit_file,omitempty"`
	Status             VisitStatus `json:"status"`
	ManagerComment     string      `json:"manager_comment,omitempty"`
	ManagerApprovedBy  string      `json:"manager_approved_by,omitempty"`
	ManagerApprovedAt  *time.Time  `json:"manager_approved_at,omitempty"`
	SecurityComment    string      `json:"security_comment,omitempty"`
	SecurityClearedBy  string      `json:"security_cleared_by,omitempty"`
	SubmittedAt        time.Time   `json:"submitted_at"`
	ApprovedAt         *time.Time  `json:"approved_at,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// VisitRequestInput carries the requester-provided fields
type VisitRequestInput struct {
	VisitType     VisitType `json:"visit_type"`
	Purpose       string    `json:"purpose"`
	RequestedDate string    `json:"requested_date"`
	RequestedTime string    `json:"requested_time"`
	PermitFile    string    `json:"permit_file"`
}

// NewVisitRequest creates a validated pending VisitRequest; today is the current date
func NewVisitRequest(requester *User, in VisitRequestInput, today Date, now time.Time) (*VisitRequest, error) {
	if requester == nil {
		return nil, invalidf("visit request requires a requester")
	}
	if !in.VisitType.Valid() {
		return nil, invalidf("unknown visit type %q", in.VisitType)
	}
	purpose := strings.TrimSpace(in.Purpose)
	if purpose == "" {
		return nil, invalidf("purpose is required")
	}
	date, err := ParseDate(in.RequestedDate)
	if err != nil {
		return nil, err
	}
	if date.Before(today) {
		return nil, invalidf("cannot book a visit in the past (%s)", date)
	}
	slot, err := ParseSlot(in.RequestedTime)
	if err != nil {
		return nil, err
	}
	permit := strings.TrimSpace(in.PermitFile)
	if in.VisitType == VisitExternal && permit == "" {
		return nil, invalidf("external visits require a signed and stamped permit")
	}

	return &VisitRequest{
		ID:            NewID(),
		RequesterID:   requester.ID,
		OrgUnitID:     requester.OrgUnitID,
		VisitType:     in.VisitType,
		Purpose:       purpose,
		RequestedDate: date,
		RequestedTime: slot,
		PermitFile:    permit,
		Status:        VisitPending,
		SubmittedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Approve records the manager decision. External visits stay pending until security clears them.
func (v *VisitRequest) Approve(by, comment string, now time.Time) error {
	if v.Status != VisitPending {
		return transitionf("visit request is %s, expected %s", v.Status, VisitPending)
	}
	if v.ManagerApprovedAt != nil {
		return transitionf("visit request is already approved by the manager")
	}
	v.ManagerComment = comment
	v.ManagerApprovedBy = by
	v.ManagerApprovedAt = timePtr(now)
	if v.VisitType == VisitInternal {
		v.Status = VisitApproved
		v.ApprovedAt = timePtr(now)
	}
	v.UpdatedAt = now
	return nil
}

// AwaitingSecurity reports an external visit approved by the manager but not yet cleared
func (v *VisitRequest) AwaitingSecurity() bool {
	return v.VisitType == VisitExternal && v.Status == VisitPending && v.ManagerApprovedAt != nil
}

// ClearSecurity finishes approval of an external visit
func (v *VisitRequest) ClearSecurity(by, comment string, now time.Time) error {
	if !v.AwaitingSecurity() {
		return transitionf("visit request is not awaiting security clearance")
	}
	v.SecurityComment = comment
	v.SecurityClearedBy = by
	v.Status = VisitApproved
	v.ApprovedAt = timePtr(now)
	v.UpdatedAt = now
	return nil
}

func (v *VisitRequest) Reject(comment string, now time.Time) error {
	if v.Status != VisitPending && v.Status != VisitPostponed {
		return transitionf("visit request is %s and cannot be rejected", v.Status)
	}
	v.Status = VisitRejected
	v.ManagerComment = comment
	v.UpdatedAt = now
	return nil
}

// Postpone moves the visit to a new date that is not in the past
func (v *VisitRequest) Postpone(newDate string, comment string, today Date, now time.Time) error {
	if v.Status == VisitRejected || v.Status == VisitCancelled || v.Status == VisitCompleted {
		return transitionf("visit request is %s and cannot be postponed", v.Status)
	}
	if strings.TrimSpace(newDate) == "" {
		return invalidf("new date is required")
	}
	date, err := ParseDate(newDate)
	if err != nil {
		return err
	}
	if date.Before(today) {
		return invalidf("cannot postpone to a past date (%s)", date)
	}
	v.RequestedDate = date
	v.Status = VisitPostponed
	if comment != "" {
		v.ManagerComment = comment
	}
	v.UpdatedAt = now
	return nil
}

func (v *VisitRequest) Cancel(now time.Time) error {
	if v.Status != VisitPending && v.Status != VisitPostponed {
		return transitionf("visit request is %s and cannot be cancelled", v.Status)
	}
	v.Status = VisitCancelled
	v.UpdatedAt = now
	return nil
}

// CancelOverdue closes a request whose confirmed booking was missed
func (v *VisitRequest) CancelOverdue(now time.Time) {
	if v.Status == VisitCompleted {
		return
	}
	v.Status = VisitCancelled
	v.UpdatedAt = now
}

func (v *VisitRequest) Complete(now time.Time) {
	v.Status = VisitCompleted
	v.UpdatedAt = now
}

func (v *VisitRequest) VisibleTo(u *User) bool {
	return u.IsAdmin() || u.IsDeptEmployee() || v.RequesterID == u.ID
}

// VisitSchedule lists the bookable slots of one day
type VisitSchedule struct {
	ID                   string     `json:"id"`
	Date                 Date       `json:"date"`
	IsBlocked            bool       `json:"is_blocked"`
	BlockedReason        string     `json:"blocked_reason,omitempty"`
	AvailableSlots       []string   `json:"available_slots"`
	VisitTypeRestriction VisitType  `json:"visit_type_restriction,omitempty"`
	CreatedBy            string     `json:"created_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewVisitSchedule creates a validated VisitSchedule
func NewVisitSchedule(date string, slots []string, restriction VisitType, by string, now time.Time) (*VisitSchedule, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if restriction != "" && !restriction.Valid() {
		return nil, invalidf("unknown visit type %q", restriction)
	}
	normalized, err := normalizeSlots(slots)
	if err != nil {
		return nil, err
	}
	return &VisitSchedule{
		ID:                   NewID(),
		Date:                 d,
		AvailableSlots:       normalized,
		VisitTypeRestriction: restriction,
		CreatedBy:            by,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// SetSlots replaces the available slots
func (s *VisitSchedule) SetSlots(slots []string) error {
	normalized, err := normalizeSlots(slots)
	if err != nil {
		return err
	}
	s.AvailableSlots = normalized
	return nil
}

func normalizeSlots(slots []string) ([]string, error) {
	out := make([]string, 0, len(slots))
	seen := make(map[string]bool, len(slots))
	for _, raw := range slots {
		slot, err := ParseSlot(raw)
		if err != nil {
			return nil, err
		}
		if !seen[slot] {
			seen[slot] = true
			out = append(out, slot)
		}
	}
	return out, nil
}

// SlotAvailable applies the availability rules; taken holds slots with active bookings
func (s *VisitSchedule) SlotAvailable(slot string, visitType VisitType, taken map[string]bool) bool {
	if s.IsBlocked {
		return false
	}
	if s.VisitTypeRestriction != "" && visitType != s.VisitTypeRestriction {
		return false
	}
	listed := false
	for _, a := range s.AvailableSlots {
		if a == slot {
			listed = true
			break
		}
	}
	return listed && !taken[slot]
}

// FreeSlots lists the slots still bookable for visitType
func (s *VisitSchedule) FreeSlots(visitType VisitType, taken map[string]bool) []string {
	var free []string
	for _, slot := range s.AvailableSlots {
		if s.SlotAvailable(slot, visitType, taken) {
			free = append(free, slot)
		}
	}
	return free
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
)

// HoldsSlot reports whether a booking in this status blocks its slot
func (s BookingStatus) HoldsSlot() bool {
	return s == BookingPending || s == BookingConfirmed
}

// VisitBooking reserves a schedule slot for a visit request
type VisitBooking struct {
	ID             string        `json:"id"`
	VisitRequestID string        `json:"visit_request_id"`
	ScheduleID     string        `json:"schedule_id"`
	Date           Date          `json:"date"`
	Slot           string        `json:"requested_time"`
	Status         BookingStatus `json:"status"`
	CheckedInAt    *time.Time    `json:"checked_in_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewVisitBooking books slot on schedule for the request if it is still free
func NewVisitBooking(req *VisitRequest, schedule *VisitSchedule, slot string, taken map[string]bool, now time.Time) (*VisitBooking, error) {
	normalized, err := ParseSlot(slot)
	if err != nil {
		return nil, err
	}
	if !schedule.SlotAvailable(normalized, req.VisitType, taken) {
		return nil, invalidf("slot %s on %s is not available", normalized, schedule.Date)
	}
	return &VisitBooking{
		ID:             NewID(),
		VisitRequestID: req.ID,
		ScheduleID:     schedule.ID,
		Date:           schedule.Date,
		Slot:           normalized,
		Status:         BookingPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (b *VisitBooking) Confirm(now time.Time) error {
	if b.Status != BookingPending {
		return transitionf("booking is %s, expected %s", b.Status, BookingPending)
	}
	b.Status = BookingConfirmed
	b.UpdatedAt = now
	return nil
}

// CheckIn records arrival once and completes the booking
func (b *VisitBooking) CheckIn(now time.Time) error {
	if b.CheckedInAt != nil {
		return transitionf("visitor already checked in")
	}
	if !b.Status.HoldsSlot() {
		return transitionf("booking is %s and cannot be checked in", b.Status)
	}
	b.CheckedInAt = timePtr(now)
	b.Status = BookingCompleted
	b.UpdatedAt = now
	return nil
}

func (b *VisitBooking) Cancel(now time.Time) {
	b.Status = BookingCancelled
	b.UpdatedAt = now
}

// StartsAt is the slot start in loc
func (b *VisitBooking) StartsAt(loc *time.Location) time.Time {
	t, _ := time.ParseInLocation(DateLayout+" "+SlotLayout, string(b.Date)+" "+b.Slot, loc)
	return t
}

// IsOverdue reports a confirmed visitor more than BookingGrace late
func (b *VisitBooking) IsOverdue(now time.Time, loc *time.Location) bool {
	if b.Status != BookingConfirmed || b.CheckedInAt != nil {
		return false
	}
	return now.Sub(b.StartsAt(loc)) > BookingGrace
}
