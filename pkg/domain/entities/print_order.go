package entities

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type PrintType string

const (
	PrintBooks         PrintType = "books"
	PrintBusinessCards PrintType = "business_cards"
	PrintBanners       PrintType = "banners"
	PrintPosters       PrintType = "posters"
	PrintBrochures     PrintType = "brochures"
	PrintFlyers        PrintType = "flyers"
	PrintLetterheads   PrintType = "letterheads"
	PrintEnvelopes     PrintType = "envelopes"
	PrintLabels        PrintType = "labels"
	PrintStickers      PrintType = "stickers"
	PrintCertificates  PrintType = "certificates"
	PrintForms         PrintType = "forms"
	PrintOther         PrintType = "other"
)

func (t PrintType) Valid() bool {
	switch t {
	case PrintBooks, PrintBusinessCards, PrintBanners, PrintPosters, PrintBrochures, PrintFlyers,
		PrintLetterheads, PrintEnvelopes, PrintLabels, PrintStickers, PrintCertificates, PrintForms, PrintOther:
		return true
	}
	return false
}

type ProductionDept string

const (
	DeptOffset  ProductionDept = "offset"
	DeptDigital ProductionDept = "digital"
	DeptGTO     ProductionDept = "gto"
)

func (d ProductionDept) Valid() bool {
	return d == DeptOffset || d == DeptDigital || d == DeptGTO
}

type PaperType string

const (
	PaperNormal      PaperType = "normal"
	PaperCoated      PaperType = "coated"
	PaperCardboard   PaperType = "cardboard"
	PaperTransparent PaperType = "transparent"
	PaperSticker     PaperType = "sticker"
)

func (p PaperType) Valid() bool {
	switch p {
	case PaperNormal, PaperCoated, PaperCardboard, PaperTransparent, PaperSticker:
		return true
	}
	return false
}

type DeliveryMethod string

const (
	DeliverySelfPickup     DeliveryMethod = "self_pickup"
	DeliveryDelivery       DeliveryMethod = "delivery"
	DeliveryDeliverInstall DeliveryMethod = "delivery_install"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliverySelfPickup || m == DeliveryDelivery || m == DeliveryDeliverInstall
}

// Paper weight bounds in grams per square metre
const (
	MinPaperWeight = 70
	MaxPaperWeight = 350
)

type PrintStatus string

const (
	PrintPendingReview     PrintStatus = "pending_review"
	PrintInProduction      PrintStatus = "in_production"
	PrintPendingConfirm    PrintStatus = "pending_confirm"
	PrintInWarehouse       PrintStatus = "in_warehouse"
	PrintDeliveryScheduled PrintStatus = "delivery_scheduled"
	PrintArchived          PrintStatus = "archived"
	PrintRejected          PrintStatus = "rejected"
	PrintCancelled         PrintStatus = "cancelled"
	PrintSuspended         PrintStatus = "suspended"
)

func (s PrintStatus) Valid() bool {
	switch s {
	case PrintPendingReview, PrintInProduction, PrintPendingConfirm, PrintInWarehouse,
		PrintDeliveryScheduled, PrintArchived, PrintRejected, PrintCancelled, PrintSuspended:
		return true
	}
	return false
}

// Active excludes the statuses the dashboard treats as closed
func (s PrintStatus) Active() bool {
	return s != PrintRejected && s != PrintCancelled && s != PrintArchived
}

// PrintOrder is a production request for the print shop
type PrintOrder struct {
	ID             string         `json:"id"`
	Code           string         `json:"order_code"`
	RequesterID    string         `json:"requester_id"`
	OrgUnitID      string         `json:"org_unit_id,omitempty"`
	PrintType      PrintType      `json:"print_type"`
	ProductionDept ProductionDept `json:"production_dept"`
	Size           PaperSize      `json:"size"`
	CustomSize     string         `json:"custom_size,omitempty"`
	PaperType      PaperType      `json:"paper_type"`
	PaperWeight    int            `json:"paper_weight"`
	Quantity       int            `json:"quantity"`
	ActualQuantity int            `json:"actual_quantity,omitempty"`
	Sides          int            `json:"sides"`
	Pages          int            `json:"pages"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Status         PrintStatus    `json:"status"`
	Priority       Urgency        `json:"priority"`
	Attachments    []Attachment   `json:"attachments,omitempty"`
	History        []StatusChange `json:"status_history,omitempty"`
	confirmation
	InventoryDeducted bool       `json:"inventory_deducted"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// PrintOrderInput carries the requester-provided fields
type PrintOrderInput struct {
	PrintType      PrintType      `json:"print_type"`
	ProductionDept ProductionDept `json:"production_dept"`
	Size           PaperSize      `json:"size"`
	CustomSize     string         `json:"custom_size"`
	PaperType      PaperType      `json:"paper_type"`
	PaperWeight    int            `json:"paper_weight"`
	Quantity       int            `json:"quantity"`
	Sides          int            `json:"sides"`
	Pages          int            `json:"pages"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Priority       Urgency        `json:"priority"`
	Attachments    []Attachment   `json:"attachments"`
}

// NewPrintOrder creates a validated PrintOrder in pending_review
func NewPrintOrder(code string, requester *User, in PrintOrderInput, now time.Time) (*PrintOrder, error) {
	if requester == nil {
		return nil, invalidf("print order requires a requester")
	}
	if !in.PrintType.Valid() {
		return nil, invalidf("unknown print type %q", in.PrintType)
	}
	if !in.ProductionDept.Valid() {
		return nil, invalidf("unknown production department %q", in.ProductionDept)
	}
	if !validSize(in.Size, 7) {
		return nil, invalidf("unknown print size %q", in.Size)
	}
	if in.Size == SizeCustom && strings.TrimSpace(in.CustomSize) == "" {
		return nil, invalidf("custom_size is required when size is custom")
	}
	if !in.PaperType.Valid() {
		return nil, invalidf("unknown paper type %q", in.PaperType)
	}
	if in.PaperWeight < MinPaperWeight || in.PaperWeight > MaxPaperWeight {
		return nil, invalidf("paper weight must be between %dg and %dg, got %d", MinPaperWeight, MaxPaperWeight, in.PaperWeight)
	}
	if in.Quantity <= 0 {
		return nil, invalidf("quantity must be positive, got %d", in.Quantity)
	}
	if in.Sides == 0 {
		in.Sides = 1
	}
	if in.Sides != 1 && in.Sides != 2 {
		return nil, invalidf("sides must be 1 or 2, got %d", in.Sides)
	}
	if in.Pages == 0 {
		in.Pages = 1
	}
	if in.Pages < 1 {
		return nil, invalidf("pages must be at least 1, got %d", in.Pages)
	}
	if !in.DeliveryMethod.Valid() {
		return nil, invalidf("unknown delivery method %q", in.DeliveryMethod)
	}
	if in.Priority == "" {
		in.Priority = UrgencyNormal
	}
	if !in.Priority.Valid() {
		return nil, invalidf("unknown priority %q", in.Priority)
	}
	if in.PrintType == PrintBusinessCards && len(in.Attachments) == 0 {
		return nil, invalidf("business cards require at least one attachment")
	}

	p := &PrintOrder{
		ID:             NewID(),
		Code:           code,
		RequesterID:    requester.ID,
		OrgUnitID:      requester.OrgUnitID,
		PrintType:      in.PrintType,
		ProductionDept: in.ProductionDept,
		Size:           in.Size,
		CustomSize:     strings.TrimSpace(in.CustomSize),
		PaperType:      in.PaperType,
		PaperWeight:    in.PaperWeight,
		Quantity:       in.Quantity,
		Sides:          in.Sides,
		Pages:          in.Pages,
		DeliveryMethod: in.DeliveryMethod,
		Status:         PrintPendingReview,
		Priority:       in.Priority,
		Attachments:    in.Attachments,
		SubmittedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.log("print order created", requester.ID, now)
	return p, nil
}

func (p *PrintOrder) expect(status PrintStatus) error {
	if p.Status != status {
		return transitionf("print order %s is %s, expected %s", p.Code, p.Status, status)
	}
	return nil
}

func (p *PrintOrder) Approve(by string, now time.Time) error {
	if err := p.expect(PrintPendingReview); err != nil {
		return err
	}
	p.move(PrintInProduction, "approved for production", by, now)
	return nil
}

func (p *PrintOrder) Reject(by, reason string, now time.Time) error {
	if err := p.expect(PrintPendingReview); err != nil {
		return err
	}
	p.move(PrintRejected, noteOr(reason, "rejected"), by, now)
	return nil
}

func (p *PrintOrder) Cancel(by string, now time.Time) error {
	if err := p.expect(PrintPendingReview); err != nil {
		return err
	}
	p.move(PrintCancelled, "cancelled by requester", by, now)
	return nil
}

// RecordActualQuantity stores the produced quantity and opens the confirmation window
func (p *PrintOrder) RecordActualQuantity(qty int, by string, now time.Time) error {
	if err := p.expect(PrintInProduction); err != nil {
		return err
	}
	if qty <= 0 {
		return invalidf("actual quantity must be positive, got %d", qty)
	}
	p.ActualQuantity = qty
	p.move(PrintPendingConfirm, "actual quantity recorded", by, now)
	return nil
}

// Confirm moves the order to the warehouse, or suspends it past the deadline
func (p *PrintOrder) Confirm(by string, now time.Time) error {
	if err := p.expect(PrintPendingConfirm); err != nil {
		return err
	}
	if p.expired(now) {
		p.move(PrintSuspended, "confirmation window expired", by, now)
		return ErrConfirmationExpired
	}
	p.ConfirmedAt = timePtr(now)
	p.move(PrintInWarehouse, "confirmed by requester", by, now)
	return nil
}

func (p *PrintOrder) Suspend(now time.Time) error {
	if err := p.expect(PrintPendingConfirm); err != nil {
		return err
	}
	p.move(PrintSuspended, "confirmation window expired", "", now)
	return nil
}

func (p *PrintOrder) ScheduleDelivery(by string, now time.Time) error {
	if err := p.expect(PrintInWarehouse); err != nil {
		return err
	}
	p.move(PrintDeliveryScheduled, "delivery scheduled", by, now)
	return nil
}

func (p *PrintOrder) SetStatus(status PrintStatus, note, by string, now time.Time) error {
	if !status.Valid() {
		return invalidf("unknown print status %q", status)
	}
	p.move(status, noteOr(note, "status updated"), by, now)
	return nil
}

func (p *PrintOrder) Attach(a *Attachment, now time.Time) {
	p.Attachments = append(p.Attachments, *a)
	p.UpdatedAt = now
}

func (p *PrintOrder) IsConfirmationExpired(now time.Time) bool {
	return p.Status == PrintPendingConfirm && p.expired(now)
}

// PaperConsumption is sides x pages x actual quantity
func (p *PrintOrder) PaperConsumption() int {
	if p.ActualQuantity <= 0 {
		return 0
	}
	return p.Sides * p.Pages * p.ActualQuantity
}

// NeedsDeduction reports whether stock still has to be drawn for this order
func (p *PrintOrder) NeedsDeduction() bool {
	return !p.InventoryDeducted && p.PaperConsumption() > 0
}

// VisibleTo lets production staff see every print order
func (p *PrintOrder) VisibleTo(u *User) bool {
	return u.IsPrintManager() || u.IsDeptManager() || u.IsDeptEmployee() || p.RequesterID == u.ID
}

func (p *PrintOrder) move(status PrintStatus, note, by string, now time.Time) {
	p.Status = status
	switch status {
	case PrintPendingConfirm:
		p.openWindow(now)
	case PrintArchived:
		p.CompletedAt = timePtr(now)
	}
	p.History = append(p.History, StatusChange{Status: string(status), Note: note, ChangedBy: by, ChangedAt: now})
	p.UpdatedAt = now
}

func (p *PrintOrder) log(note, by string, now time.Time) {
	p.History = append(p.History, StatusChange{Status: string(p.Status), Note: note, ChangedBy: by, ChangedAt: now})
	p.UpdatedAt = now
}

// SelectPaperItem picks the paper stock to draw from for an order. Candidates are
// paper items in name order; the first naming the paper type or weight wins.
func SelectPaperItem(items []*InventoryItem, paperType PaperType, weight int) *InventoryItem {
	var paper []*InventoryItem
	for _, it := range items {
		if it.Category == ItemPaper {
			paper = append(paper, it)
		}
	}
	if len(paper) == 0 {
		return nil
	}
	sort.Slice(paper, func(i, j int) bool { return paper[i].Name < paper[j].Name })

	wantType := strings.ToLower(string(paperType))
	wantWeight := strconv.Itoa(weight)
	for _, it := range paper {
		name := strings.ToLower(it.Name)
		if wantType != "" && strings.Contains(name, wantType) {
			return it
		}
		if weight > 0 && strings.Contains(name, wantWeight) {
			return it
		}
	}
	return paper[0]
}
