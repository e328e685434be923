package entities

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PolicyID is the key of the singleton approval policy
const PolicyID = "current"

// SystemSetting is a free-form key/value configuration entry
type SystemSetting struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description,omitempty"`
	UpdatedBy   string          `json:"updated_by,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewSystemSetting creates a validated SystemSetting
func NewSystemSetting(key string, value json.RawMessage, description, by string, now time.Time) (*SystemSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, invalidf("setting key cannot be empty")
	}
	if len(value) == 0 {
		value = json.RawMessage("{}")
	}
	if !json.Valid(value) {
		return nil, invalidf("setting %q value is not valid JSON", key)
	}
	return &SystemSetting{Key: key, Value: value, Description: description, UpdatedBy: by, UpdatedAt: now}, nil
}

// ApprovalPolicy decides which services need an approval step
type ApprovalPolicy struct {
	ID                string    `json:"id"`
	IsGlobalEnabled   bool      `json:"is_global_enabled"`
	SelectiveServices []string  `json:"selective_services,omitempty"`
	UpdatedBy         string    `json:"updated_by,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultApprovalPolicy is used until an admin saves one
func DefaultApprovalPolicy() *ApprovalPolicy {
	return &ApprovalPolicy{ID: PolicyID, IsGlobalEnabled: true}
}

// Requires reports whether orders for service need approval
func (p *ApprovalPolicy) Requires(service *Service) bool {
	for _, id := range p.SelectiveServices {
		if id == service.ID {
			return true
		}
	}
	return p.IsGlobalEnabled && service.RequiresApproval
}

// AuditLog records an action taken in the system
type AuditLog struct {
	ID        string                 `json:"id"`
	ActorID   string                 `json:"actor_id,omitempty"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewAuditLog creates an AuditLog entry
func NewAuditLog(actorID, action string, metadata map[string]interface{}, now time.Time) *AuditLog {
	return &AuditLog{ID: NewID(), ActorID: actorID, Action: action, Metadata: metadata, CreatedAt: now}
}

// SavingsPercent computes Σ(external-internal)/Σexternal x 100 over rows where
// external > internal > 0, rounded to one decimal place.
func SavingsPercent(rows []*ServicePricing) decimal.Decimal {
	totalExternal := decimal.Zero
	totalSaved := decimal.Zero
	for _, p := range rows {
		if !p.InternalCost.IsPositive() || !p.ExternalCost.GreaterThan(p.InternalCost) {
			continue
		}
		totalExternal = totalExternal.Add(p.ExternalCost)
		totalSaved = totalSaved.Add(p.Savings())
	}
	if totalExternal.IsZero() {
		return decimal.Zero
	}
	return totalSaved.Div(totalExternal).Mul(decimal.NewFromInt(100)).Round(1)
}
