package entities

import (
	"strings"
	"time"
)

// OrderStatus is the status of a generic catalog order
type OrderStatus string

const (
	OrderDraft        OrderStatus = "draft"
	OrderPending      OrderStatus = "pending"
	OrderInReview     OrderStatus = "in_review"
	OrderApproved     OrderStatus = "approved"
	OrderInProduction OrderStatus = "in_production"
	OrderReady        OrderStatus = "ready"
	OrderRejected     OrderStatus = "rejected"
	OrderCancelled    OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderPending, OrderInReview, OrderApproved, OrderInProduction,
		OrderReady, OrderRejected, OrderCancelled:
		return true
	}
	return false
}

// Active reports whether the order still counts as open work
func (s OrderStatus) Active() bool {
	return s != OrderRejected && s != OrderCancelled
}

// Priority of a generic order
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ApprovalDecision is the outcome of one approval step
type ApprovalDecision string

const (
	DecisionPending  ApprovalDecision = "pending"
	DecisionApproved ApprovalDecision = "approved"
	DecisionRejected ApprovalDecision = "rejected"
)

// Approval is one step of an order's approval chain
type Approval struct {
	ID         string           `json:"id"`
	ApproverID string           `json:"approver_id,omitempty"`
	Step       int              `json:"step"`
	Decision   ApprovalDecision `json:"decision"`
	Comment    string           `json:"comment,omitempty"`
	DecidedAt  *time.Time       `json:"decided_at,omitempty"`
}

// Order is a request for a catalog service
type Order struct {
	ID                string         `json:"id"`
	Code              string         `json:"order_code"`
	ServiceID         string         `json:"service_id"`
	RequesterID       string         `json:"requester_id"`
	Department        string         `json:"department,omitempty"`
	OrgUnitID         string         `json:"org_unit_id,omitempty"`
	Status            OrderStatus    `json:"status"`
	Priority          Priority       `json:"priority"`
	RequiresApproval  bool           `json:"requires_approval"`
	CurrentApproverID string         `json:"current_approver_id,omitempty"`
	FieldValues       []FieldValue   `json:"field_values,omitempty"`
	Attachments       []Attachment   `json:"attachments,omitempty"`
	Approvals         []Approval     `json:"approvals,omitempty"`
	History           []StatusChange `json:"status_history,omitempty"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	ApprovedAt        *time.Time     `json:"approved_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewOrder creates a pending order for service, validating the submitted field values
func NewOrder(code string, service *Service, requester *User, priority Priority, values []FieldValue, now time.Time) (*Order, error) {
	if strings.TrimSpace(code) == "" {
		return nil, invalidf("order code cannot be empty")
	}
	if service == nil {
		return nil, invalidf("order requires a service")
	}
	if !service.IsActive {
		return nil, invalidf("service %q is not active", service.Name)
	}
	if requester == nil {
		return nil, invalidf("order requires a requester")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalidf("unknown priority %q", priority)
	}
	if err := service.ValidateFieldValues(values); err != nil {
		return nil, err
	}

	o := &Order{
		ID:          NewID(),
		Code:        code,
		ServiceID:   service.ID,
		RequesterID: requester.ID,
		Department:  requester.Department,
		OrgUnitID:   requester.OrgUnitID,
		Status:      OrderPending,
		Priority:    priority,
		FieldValues: values,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.log(OrderPending, "order created", requester.ID, now)
	return o, nil
}

// RequireApproval marks the order for approval and opens step 1
func (o *Order) RequireApproval() {
	o.RequiresApproval = true
	if len(o.Approvals) == 0 {
		o.Approvals = append(o.Approvals, Approval{
			ID:       NewID(),
			Step:     1,
			Decision: DecisionPending,
		})
	}
}

// Submit moves a draft to pending
func (o *Order) Submit(by string, now time.Time) error {
	if o.Status != OrderDraft {
		return transitionf("only draft orders can be submitted, order %s is %s", o.Code, o.Status)
	}
	o.Status = OrderPending
	o.SubmittedAt = now
	o.log(OrderPending, "order submitted", by, now)
	return nil
}

// PendingApprovalFor returns the pending approval the approver may decide, or nil
func (o *Order) PendingApprovalFor(approverID string) *Approval {
	for i := range o.Approvals {
		a := &o.Approvals[i]
		if a.Decision != DecisionPending {
			continue
		}
		if a.ApproverID == "" || a.ApproverID == approverID {
			return a
		}
	}
	return nil
}

// Decide records an approval decision and moves the order accordingly
func (o *Order) Decide(approverID string, approve bool, comment string, now time.Time) error {
	a := o.PendingApprovalFor(approverID)
	if a == nil {
		return transitionf("order %s has no pending approval for this approver", o.Code)
	}
	a.ApproverID = approverID
	a.Comment = comment
	a.DecidedAt = timePtr(now)
	if approve {
		a.Decision = DecisionApproved
		o.Status = OrderApproved
		o.ApprovedAt = timePtr(now)
		o.log(OrderApproved, "approved by approver", approverID, now)
	} else {
		a.Decision = DecisionRejected
		o.Status = OrderRejected
		o.log(OrderRejected, "rejected by approver", approverID, now)
	}
	o.CurrentApproverID = ""
	return nil
}

// SetStatus applies a staff status update, returning whether the status changed
func (o *Order) SetStatus(status OrderStatus, note, by string, now time.Time) (bool, error) {
	if !status.Valid() {
		return false, invalidf("unknown order status %q", status)
	}
	changed := o.Status != status
	o.Status = status
	switch status {
	case OrderInProduction:
		if o.ApprovedAt == nil {
			o.ApprovedAt = timePtr(now)
		}
	case OrderReady:
		o.CompletedAt = timePtr(now)
	}
	if note == "" {
		note = "status updated"
	}
	o.log(status, note, by, now)
	return changed, nil
}

// Attach adds an attachment to the order
func (o *Order) Attach(a *Attachment, now time.Time) {
	o.Attachments = append(o.Attachments, *a)
	o.UpdatedAt = now
}

// VisibleTo applies the generic order visibility rule. Approvers also see
// orders holding an unassigned pending approval they could decide.
func (o *Order) VisibleTo(u *User) bool {
	switch {
	case u.IsAdmin():
		return true
	case u.IsApprover():
		return o.CurrentApproverID == u.ID || o.RequesterID == u.ID || o.PendingApprovalFor(u.ID) != nil
	default:
		return o.RequesterID == u.ID
	}
}

func (o *Order) log(status OrderStatus, note, by string, now time.Time) {
	o.History = append(o.History, StatusChange{
		Status:    string(status),
		Note:      note,
		ChangedBy: by,
		ChangedAt: now,
	})
	o.UpdatedAt = now
}

// OrderStats summarises a set of generic orders
type OrderStats struct {
	Total            int `json:"total"`
	Active           int `json:"active"`
	Pending          int `json:"pending"`
	InReview         int `json:"in_review"`
	PendingApprovals int `json:"pending_approvals"`
	Completed        int `json:"completed"`
}

// ComputeOrderStats counts orders by the dashboard buckets
func ComputeOrderStats(orders []*Order) OrderStats {
	var s OrderStats
	for _, o := range orders {
		s.Total++
		if o.Status.Active() {
			s.Active++
		}
		switch o.Status {
		case OrderPending:
			s.Pending++
		case OrderInReview:
			s.InReview++
		case OrderReady:
			s.Completed++
		}
	}
	s.PendingApprovals = s.Pending + s.InReview
	return s
}
