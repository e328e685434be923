package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printcenter/pkg/domain/entities"
)

// UserInput creates an account
type UserInput struct {
	Email       string        `json:"email" yaml:"email"`
	FullName    string        `json:"full_name" yaml:"full_name"`
	Password    string        `json:"password" yaml:"password"`
	Role        entities.Role `json:"role" yaml:"role"`
	Department  string        `json:"department" yaml:"department"`
	OrgUnitID   string        `json:"org_unit_id" yaml:"org_unit_id"`
	PhoneNumber string        `json:"phone_number" yaml:"phone_number"`
	IsSuperuser bool          `json:"is_superuser" yaml:"is_superuser"`
}

// UserUpdate changes the non-nil fields of an account
type UserUpdate struct {
	FullName    *string        `json:"full_name"`
	Role        *entities.Role `json:"role"`
	Department  *string        `json:"department"`
	OrgUnitID   *string        `json:"org_unit_id"`
	PhoneNumber *string        `json:"phone_number"`
	IsActive    *bool          `json:"is_active"`
}

type UserFilter struct {
	Role   entities.Role
	Active *bool
	Search string
}

type OrgUnitInput struct {
	Name        string            `json:"name"`
	Code        string            `json:"code"`
	Level       entities.OrgLevel `json:"level"`
	ParentID    string            `json:"parent_id"`
	Description string            `json:"description"`
	IsActive    *bool             `json:"is_active"`
}

type OrgUnitFilter struct {
	Level    entities.OrgLevel
	Active   *bool
	ParentID string
	Search   string
}

type ServiceInput struct {
	Name             string                   `json:"name"`
	Description      string                   `json:"description"`
	Icon             string                   `json:"icon"`
	Category         entities.ServiceCategory `json:"category"`
	RequiresApproval bool                     `json:"requires_approval"`
}

// ServiceSettings changes the non-nil fields of a service
type ServiceSettings struct {
	IsActive    *bool   `json:"is_active"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type OptionInput struct {
	Label    string `json:"label" yaml:"label"`
	Value    string `json:"value" yaml:"value"`
	Order    int    `json:"order" yaml:"order"`
	IsActive *bool  `json:"is_active" yaml:"is_active"`
}

type FieldInput struct {
	Key         string             `json:"key" yaml:"key"`
	Label       string             `json:"label" yaml:"label"`
	Type        entities.FieldType `json:"field_type" yaml:"type"`
	Required    bool               `json:"is_required" yaml:"required"`
	Order       int                `json:"order" yaml:"order"`
	Placeholder string             `json:"placeholder" yaml:"placeholder"`
	HelpText    string             `json:"help_text" yaml:"help_text"`
	Options     []OptionInput      `json:"options" yaml:"options"`
}

// FieldSettings changes the non-nil fields of a service field; options are
// upserted by value
type FieldSettings struct {
	IsVisible  *bool         `json:"is_visible"`
	IsRequired *bool         `json:"is_required"`
	Order      *int          `json:"order"`
	Label      *string       `json:"label"`
	Options    []OptionInput `json:"options"`
}

type PricingInput struct {
	ServiceID     string          `json:"service_id"`
	InternalCost  decimal.Decimal `json:"internal_cost"`
	ExternalCost  decimal.Decimal `json:"external_cost"`
	Notes         string          `json:"notes"`
	EffectiveFrom string          `json:"effective_from"`
	EffectiveTo   string          `json:"effective_to"`
}

type AttachmentInput struct {
	Type      entities.AttachmentType `json:"attachment_type"`
	Name      string                  `json:"name"`
	LinkURL   string                  `json:"link_url"`
	SizeBytes int64                   `json:"size_bytes"`
}

type CreateOrderRequest struct {
	ServiceID   string                `json:"service_id"`
	Priority    entities.Priority     `json:"priority"`
	Department  string                `json:"department"`
	FieldValues []entities.FieldValue `json:"field_values"`
	Attachments []AttachmentInput     `json:"attachments"`
}

type OrderFilter struct {
	Status    string
	Priority  string
	ServiceID string
}

type CreateDesignOrderRequest struct {
	entities.DesignOrderInput
	Attachments []AttachmentInput `json:"attachments"`
}

type CreatePrintOrderRequest struct {
	PrintType      entities.PrintType      `json:"print_type"`
	ProductionDept entities.ProductionDept `json:"production_dept"`
	Size           entities.PaperSize      `json:"size"`
	CustomSize     string                  `json:"custom_size"`
	PaperType      entities.PaperType      `json:"paper_type"`
	PaperWeight    int                     `json:"paper_weight"`
	Quantity       int                     `json:"quantity"`
	Sides          int                     `json:"sides"`
	Pages          int                     `json:"pages"`
	DeliveryMethod entities.DeliveryMethod `json:"delivery_method"`
	Priority       entities.Urgency        `json:"priority"`
	Attachments    []AttachmentInput       `json:"attachments"`
}

type StatusUpdate struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type ItemInput struct {
	Name             string                `json:"name" yaml:"name"`
	SKU              string                `json:"sku" yaml:"sku"`
	Category         entities.ItemCategory `json:"category" yaml:"category"`
	Unit             string                `json:"unit" yaml:"unit"`
	CurrentQuantity  int                   `json:"current_quantity" yaml:"current_quantity"`
	MinimumThreshold int                   `json:"minimum_threshold" yaml:"minimum_threshold"`
	MinQuantity      int                   `json:"min_quantity" yaml:"min_quantity"`
	MaximumThreshold int                   `json:"maximum_threshold" yaml:"maximum_threshold"`
	ReorderPoint     int                   `json:"reorder_point" yaml:"reorder_point"`
	Notes            string                `json:"notes" yaml:"notes"`
}

type ItemFilter struct {
	Category entities.ItemCategory
	LowStock bool
	Search   string
}

type AdjustRequest struct {
	Operation entities.StockOperation `json:"operation"`
	Quantity  int                     `json:"quantity"`
	Reference string                  `json:"reference_order"`
	Note      string                  `json:"note"`
}

type ReorderInput struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// PreferenceUpdate changes the non-nil opt-ins
type PreferenceUpdate struct {
	OrderUpdates      *bool `json:"order_updates"`
	Approvals         *bool `json:"approvals"`
	InventoryAlerts   *bool `json:"inventory_alerts"`
	WeeklyDigest      *bool `json:"weekly_digest"`
	EmailSubscription *bool `json:"email_subscription"`
}

type ScheduleInput struct {
	Date                 string             `json:"date"`
	AvailableSlots       []string           `json:"available_slots"`
	IsBlocked            bool               `json:"is_blocked"`
	BlockedReason        string             `json:"blocked_reason"`
	VisitTypeRestriction entities.VisitType `json:"visit_type_restriction"`
}

type BookingInput struct {
	VisitRequestID string `json:"visit_request_id"`
	Date           string `json:"date"`
	Slot           string `json:"requested_time"`
}

type DecisionInput struct {
	Comment string `json:"comment"`
}

type PostponeInput struct {
	NewDate string `json:"new_date"`
	Comment string `json:"comment"`
}

type EvaluationInput struct {
	Type             entities.EvaluationType `json:"evaluation_type"`
	WeekNumber       int                     `json:"week_number"`
	AttendanceScore  int                     `json:"attendance_score"`
	PerformanceScore int                     `json:"performance_score"`
	BehaviorScore    int                     `json:"behavior_score"`
	Comments         string                  `json:"comments"`
}

type SettingInput struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

type PolicyInput struct {
	IsGlobalEnabled   *bool    `json:"is_global_enabled"`
	SelectiveServices []string `json:"selective_services"`
}

// AuditFilter dates are YYYY-MM-DD; End includes the whole day
type AuditFilter struct {
	Action  string
	ActorID string
	Start   string
	End     string
}

// OrderReportFilter narrows the orders report
type OrderReportFilter struct {
	EntityID        string
	CollegeID       string
	ViceRectorateID string
	Start           string
	End             string
	Type            entities.OrderKind
}
