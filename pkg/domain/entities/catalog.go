package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ServiceCategory groups catalog services
type ServiceCategory string

const (
	CategoryDocuments ServiceCategory = "documents"
	CategoryDesign    ServiceCategory = "design"
	CategoryMarketing ServiceCategory = "marketing"
	CategoryMedical   ServiceCategory = "medical"
	CategoryGeneral   ServiceCategory = "general"
)

func (c ServiceCategory) Valid() bool {
	switch c {
	case CategoryDocuments, CategoryDesign, CategoryMarketing, CategoryMedical, CategoryGeneral:
		return true
	}
	return false
}

// FieldType is the input kind of a service field
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldRadio    FieldType = "radio"
	FieldTextarea FieldType = "textarea"
	FieldFile     FieldType = "file"
	FieldLink     FieldType = "link"
)

func (f FieldType) Valid() bool {
	switch f {
	case FieldText, FieldNumber, FieldRadio, FieldTextarea, FieldFile, FieldLink:
		return true
	}
	return false
}

// FieldOption is one choice of a radio field
type FieldOption struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	IsActive bool   `json:"is_active"`
	Order    int    `json:"order"`
}

// ServiceField is a dynamic form field attached to a service
type ServiceField struct {
	ID          string        `json:"id"`
	Key         string        `json:"key"`
	Label       string        `json:"label"`
	Type        FieldType     `json:"field_type"`
	Order       int           `json:"order"`
	IsRequired  bool          `json:"is_required"`
	IsVisible   bool          `json:"is_visible"`
	Placeholder string        `json:"placeholder,omitempty"`
	HelpText    string        `json:"help_text,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
}

// AddOption appends an option, rejecting duplicate values
func (f *ServiceField) AddOption(label, value string, order int) (*FieldOption, error) {
	if value == "" {
		return nil, invalidf("option value cannot be empty")
	}
	for _, o := range f.Options {
		if o.Value == value {
			return nil, invalidf("option %q already exists on field %q", value, f.Key)
		}
	}
	f.Options = append(f.Options, FieldOption{
		ID:       NewID(),
		Label:    label,
		Value:    value,
		IsActive: true,
		Order:    order,
	})
	sort.SliceStable(f.Options, func(i, j int) bool { return f.Options[i].Order < f.Options[j].Order })
	for i := range f.Options {
		if f.Options[i].Value == value {
			return &f.Options[i], nil
		}
	}
	return nil, nil
}

// UpsertOption updates the option with value, or adds it when missing
func (f *ServiceField) UpsertOption(label, value string, order int, active *bool) error {
	for i := range f.Options {
		o := &f.Options[i]
		if o.Value != value {
			continue
		}
		if label != "" {
			o.Label = label
		}
		o.Order = order
		if active != nil {
			o.IsActive = *active
		}
		sort.SliceStable(f.Options, func(i, j int) bool { return f.Options[i].Order < f.Options[j].Order })
		return nil
	}
	opt, err := f.AddOption(label, value, order)
	if err != nil {
		return err
	}
	if active != nil {
		opt.IsActive = *active
	}
	return nil
}

func (f *ServiceField) hasActiveOption(value string) bool {
	for _, o := range f.Options {
		if o.IsActive && o.Value == value {
			return true
		}
	}
	return false
}

// Service is a catalog entry consumers can order
type Service struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Description      string          `json:"description,omitempty"`
	Icon             string          `json:"icon,omitempty"`
	Category         ServiceCategory `json:"category"`
	IsActive         bool            `json:"is_active"`
	RequiresApproval bool            `json:"requires_approval"`
	Fields           []ServiceField  `json:"fields,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewService creates a validated active Service
func NewService(name string, category ServiceCategory, requiresApproval bool, now time.Time) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("service name cannot be empty")
	}
	if category == "" {
		category = CategoryGeneral
	}
	if !category.Valid() {
		return nil, invalidf("unknown service category %q", category)
	}

	return &Service{
		ID:               NewID(),
		Name:             name,
		Slug:             Slugify(name),
		Category:         category,
		IsActive:         true,
		RequiresApproval: requiresApproval,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AddField appends a field, keeping keys unique and fields ordered
func (s *Service) AddField(key, label string, fieldType FieldType, required bool, order int) (*ServiceField, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, invalidf("field key cannot be empty")
	}
	if !fieldType.Valid() {
		return nil, invalidf("unknown field type %q", fieldType)
	}
	for _, f := range s.Fields {
		if f.Key == key {
			return nil, invalidf("field %q already exists on service %q", key, s.Name)
		}
	}
	if order <= 0 {
		order = len(s.Fields) + 1
	}
	s.Fields = append(s.Fields, ServiceField{
		ID:         NewID(),
		Key:        key,
		Label:      label,
		Type:       fieldType,
		Order:      order,
		IsRequired: required,
		IsVisible:  true,
	})
	s.SortFields()
	return s.Field(s.fieldIDByKey(key)), nil
}

// Field returns the field with the given id, or nil
func (s *Service) Field(id string) *ServiceField {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

func (s *Service) fieldIDByKey(key string) string {
	for _, f := range s.Fields {
		if f.Key == key {
			return f.ID
		}
	}
	return ""
}

// SortFields orders fields by their order value
func (s *Service) SortFields() {
	sort.SliceStable(s.Fields, func(i, j int) bool { return s.Fields[i].Order < s.Fields[j].Order })
}

// FieldValue is a submitted value for one service field
type FieldValue struct {
	FieldID string      `json:"field_id"`
	Value   interface{} `json:"value"`
}

// ValidateFieldValues checks submitted values against the service form
func (s *Service) ValidateFieldValues(values []FieldValue) error {
	provided := make(map[string]interface{}, len(values))
	for _, v := range values {
		field := s.Field(v.FieldID)
		if field == nil {
			return invalidf("field %s does not belong to service %q", v.FieldID, s.Name)
		}
		if field.Type == FieldRadio && !isBlank(v.Value) {
			choice := fmt.Sprint(v.Value)
			if !field.hasActiveOption(choice) {
				return invalidf("%q is not an option of field %q", choice, field.Key)
			}
		}
		provided[v.FieldID] = v.Value
	}

	var missing []string
	for _, f := range s.Fields {
		if !f.IsRequired {
			continue
		}
		if v, ok := provided[f.ID]; !ok || isBlank(v) {
			missing = append(missing, f.Key)
		}
	}
	if len(missing) > 0 {
		return invalidf("required fields are missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Slugify lower-cases a name and joins words with hyphens, keeping unicode letters
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ServicePricing holds the internal and market cost of a service
type ServicePricing struct {
	ID            string          `json:"id"`
	ServiceID     string          `json:"service_id"`
	InternalCost  decimal.Decimal `json:"internal_cost"`
	ExternalCost  decimal.Decimal `json:"external_cost"`
	Notes         string          `json:"notes,omitempty"`
	EffectiveFrom *time.Time      `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewServicePricing creates a validated ServicePricing
func NewServicePricing(serviceID string, internal, external decimal.Decimal, now time.Time) (*ServicePricing, error) {
	if serviceID == "" {
		return nil, invalidf("pricing requires a service")
	}
	if internal.IsNegative() || external.IsNegative() {
		return nil, invalidf("costs cannot be negative, got internal %s external %s", internal, external)
	}
	return &ServicePricing{
		ID:           NewID(),
		ServiceID:    serviceID,
		InternalCost: internal.Round(2),
		ExternalCost: external.Round(2),
		CreatedAt:    now,
	}, nil
}

// Savings is the amount saved per order by producing in-house
func (p *ServicePricing) Savings() decimal.Decimal {
	return p.ExternalCost.Sub(p.InternalCost)
}

// EffectiveAt reports whether the pricing row applies at t
func (p *ServicePricing) EffectiveAt(t time.Time) bool {
	if p.EffectiveFrom != nil && t.Before(*p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && t.After(*p.EffectiveTo) {
		return false
	}
	return true
}
