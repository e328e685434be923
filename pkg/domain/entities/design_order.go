package entities

import (
	"errors"
	"strings"
	"time"
)

type DesignType string

const (
	DesignPoster      DesignType = "poster"
	DesignBrochure    DesignType = "brochure"
	DesignCard        DesignType = "card"
	DesignCertificate DesignType = "certificate"
	DesignLogo        DesignType = "logo"
	DesignOther       DesignType = "other"
)

func (t DesignType) Valid() bool {
	switch t {
	case DesignPoster, DesignBrochure, DesignCard, DesignCertificate, DesignLogo, DesignOther:
		return true
	}
	return false
}

// PaperSize is an ISO A size or custom
type PaperSize string

const (
	SizeA0     PaperSize = "A0"
	SizeA1     PaperSize = "A1"
	SizeA2     PaperSize = "A2"
	SizeA3     PaperSize = "A3"
	SizeA4     PaperSize = "A4"
	SizeA5     PaperSize = "A5"
	SizeA6     PaperSize = "A6"
	SizeA7     PaperSize = "A7"
	SizeCustom PaperSize = "custom"
)

// validSize checks s against the A sizes up to maxA, plus custom
func validSize(s PaperSize, maxA int) bool {
	if s == SizeCustom {
		return true
	}
	if len(s) != 2 || s[0] != 'A' || s[1] < '0' || s[1] > '9' {
		return false
	}
	return int(s[1]-'0') <= maxA
}

// Urgency is the priority scale of design and print orders
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) Valid() bool {
	return u == UrgencyNormal || u == UrgencyUrgent || u == UrgencyEmergency
}

type DesignStatus string

const (
	DesignPendingReview  DesignStatus = "pending_review"
	DesignInDesign       DesignStatus = "in_design"
	DesignPendingConfirm DesignStatus = "pending_confirm"
	DesignCompleted      DesignStatus = "completed"
	DesignSuspended      DesignStatus = "suspended"
	DesignRejected       DesignStatus = "rejected"
	DesignReturned       DesignStatus = "returned"
)

func (s DesignStatus) Valid() bool {
	switch s {
	case DesignPendingReview, DesignInDesign, DesignPendingConfirm, DesignCompleted,
		DesignSuspended, DesignRejected, DesignReturned:
		return true
	}
	return false
}

// Final reports whether no further work happens on the order
func (s DesignStatus) Final() bool {
	return s == DesignCompleted || s == DesignRejected || s == DesignReturned
}

// DesignOrder is a request for the design team
type DesignOrder struct {
	ID          string         `json:"id"`
	Code        string         `json:"order_code"`
	RequesterID string         `json:"requester_id"`
	OrgUnitID   string         `json:"org_unit_id,omitempty"`
	DesignType  DesignType     `json:"design_type"`
	Title       string         `json:"title"`
	Size        PaperSize      `json:"size"`
	CustomSize  string         `json:"custom_size,omitempty"`
	Description string         `json:"description"`
	Priority    Urgency        `json:"priority"`
	Status      DesignStatus   `json:"status"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	History     []StatusChange `json:"status_history,omitempty"`
	confirmation
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DesignOrderInput carries the requester-provided fields
type DesignOrderInput struct {
	DesignType  DesignType `json:"design_type"`
	Title       string     `json:"title"`
	Size        PaperSize  `json:"size"`
	CustomSize  string     `json:"custom_size"`
	Description string     `json:"description"`
	Priority    Urgency    `json:"priority"`
}

// NewDesignOrder creates a validated DesignOrder in pending_review
func NewDesignOrder(code string, requester *User, in DesignOrderInput, now time.Time) (*DesignOrder, error) {
	if requester == nil {
		return nil, invalidf("design order requires a requester")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return nil, invalidf("title is required")
	}
	if in.Description == "" {
		return nil, invalidf("description is required")
	}
	if !in.DesignType.Valid() {
		return nil, invalidf("unknown design type %q", in.DesignType)
	}
	if !validSize(in.Size, 6) {
		return nil, invalidf("unknown design size %q", in.Size)
	}
	if in.Size == SizeCustom && strings.TrimSpace(in.CustomSize) == "" {
		return nil, invalidf("custom_size is required when size is custom")
	}
	if in.Priority == "" {
		in.Priority = UrgencyNormal
	}
	if !in.Priority.Valid() {
		return nil, invalidf("unknown priority %q", in.Priority)
	}

	d := &DesignOrder{
		ID:          NewID(),
		Code:        code,
		RequesterID: requester.ID,
		OrgUnitID:   requester.OrgUnitID,
		DesignType:  in.DesignType,
		Title:       in.Title,
		Size:        in.Size,
		CustomSize:  strings.TrimSpace(in.CustomSize),
		Description: in.Description,
		Priority:    in.Priority,
		Status:      DesignPendingReview,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	d.log("design order created", requester.ID, now)
	return d, nil
}

func (d *DesignOrder) Approve(by string, now time.Time) error {
	if d.Status != DesignPendingReview {
		return transitionf("design order %s is %s, expected %s", d.Code, d.Status, DesignPendingReview)
	}
	d.move(DesignInDesign, "approved for design", by, now)
	return nil
}

func (d *DesignOrder) Reject(by, reason string, now time.Time) error {
	if d.Status != DesignPendingReview {
		return transitionf("design order %s is %s, expected %s", d.Code, d.Status, DesignPendingReview)
	}
	d.move(DesignRejected, noteOr(reason, "rejected"), by, now)
	return nil
}

// ReturnToRequester hands the order back from any non-final status
func (d *DesignOrder) ReturnToRequester(by, reason string, now time.Time) error {
	if d.Status.Final() {
		return transitionf("design order %s is already %s", d.Code, d.Status)
	}
	d.move(DesignReturned, noteOr(reason, "returned to requester"), by, now)
	return nil
}

func (d *DesignOrder) MarkReadyForConfirm(by string, now time.Time) error {
	if d.Status != DesignInDesign {
		return transitionf("design order %s is %s, expected %s", d.Code, d.Status, DesignInDesign)
	}
	d.move(DesignPendingConfirm, "design ready for confirmation", by, now)
	return nil
}

// Confirm completes the order. Past the deadline the order is suspended and
// ErrConfirmationExpired is returned; the caller must still persist it.
func (d *DesignOrder) Confirm(by string, now time.Time) error {
	if d.Status != DesignPendingConfirm {
		return transitionf("design order %s is %s, expected %s", d.Code, d.Status, DesignPendingConfirm)
	}
	if d.expired(now) {
		d.move(DesignSuspended, "confirmation window expired", by, now)
		return ErrConfirmationExpired
	}
	d.ConfirmedAt = timePtr(now)
	d.move(DesignCompleted, "confirmed by requester", by, now)
	return nil
}

// Suspend is used by the expiry sweep
func (d *DesignOrder) Suspend(now time.Time) error {
	if d.Status != DesignPendingConfirm {
		return transitionf("design order %s is %s, expected %s", d.Code, d.Status, DesignPendingConfirm)
	}
	d.move(DesignSuspended, "confirmation window expired", "", now)
	return nil
}

// SetStatus applies a print manager override
func (d *DesignOrder) SetStatus(status DesignStatus, note, by string, now time.Time) error {
	if !status.Valid() {
		return invalidf("unknown design status %q", status)
	}
	d.move(status, noteOr(note, "status updated"), by, now)
	return nil
}

func (d *DesignOrder) Attach(a *Attachment, now time.Time) {
	d.Attachments = append(d.Attachments, *a)
	d.UpdatedAt = now
}

// IsConfirmationExpired reports a pending confirmation past its deadline
func (d *DesignOrder) IsConfirmationExpired(now time.Time) bool {
	return d.Status == DesignPendingConfirm && d.expired(now)
}

// VisibleTo covers the requester and the staff who work the order
func (d *DesignOrder) VisibleTo(u *User) bool {
	return u.IsPrintManager() || u.IsDeptEmployee() || d.RequesterID == u.ID
}

func (d *DesignOrder) move(status DesignStatus, note, by string, now time.Time) {
	d.Status = status
	switch status {
	case DesignPendingConfirm:
		d.openWindow(now)
	case DesignCompleted:
		d.CompletedAt = timePtr(now)
	}
	d.log(note, by, now)
}

func (d *DesignOrder) log(note, by string, now time.Time) {
	d.History = append(d.History, StatusChange{Status: string(d.Status), Note: note, ChangedBy: by, ChangedAt: now})
	d.UpdatedAt = now
}

func noteOr(note, fallback string) string {
	if strings.TrimSpace(note) == "" {
		return fallback
	}
	return note
}

// IsExpired reports whether err came from a late confirmation
func IsExpired(err error) bool { return errors.Is(err, ErrConfirmationExpired) }
