package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Business Cards", "business-cards"},
		{"  Poster -- A3 ", "poster-a3"},
		{"Print & Bind!", "print-bind"},
		{"طباعة الكتب", "طباعة-الكتب"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, Slugify(tc.input))
		})
	}
}

func TestService_Fields(t *testing.T) {
	svc, err := NewService("Brochures", "", false, time.Now())
	require.NoError(t, err)
	assert.Equal(t, CategoryGeneral, svc.Category)

	_, err = svc.AddField("pages", "Pages", FieldNumber, true, 2)
	require.NoError(t, err)
	first, err := svc.AddField("title", "Title", FieldText, false, 1)
	require.NoError(t, err)
	assert.Equal(t, "title", svc.Fields[0].Key, "fields are kept in order")
	assert.Equal(t, first.ID, svc.Fields[0].ID)

	_, err = svc.AddField("pages", "Again", FieldText, false, 3)
	assert.EqualError(t, err, `validation failed: field "pages" already exists on service "Brochures"`)

	_, err = svc.AddField("x", "X", "checkbox", false, 3)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_ValidateFieldValues(t *testing.T) {
	svc, err := NewService("Cards", CategoryDocuments, false, time.Now())
	require.NoError(t, err)
	name, err := svc.AddField("name", "Name", FieldText, true, 1)
	require.NoError(t, err)
	color, err := svc.AddField("color", "Color", FieldRadio, false, 2)
	require.NoError(t, err)
	_, err = color.AddOption("Blue", "blue", 1)
	require.NoError(t, err)
	svc.Fields[1].Options = append(svc.Fields[1].Options, FieldOption{ID: "old", Value: "red", IsActive: false})
	nameID, colorID := name.ID, color.ID

	testCases := []struct {
		name    string
		values  []FieldValue
		wantErr string
	}{
		{"valid", []FieldValue{{FieldID: nameID, Value: "Ali"}, {FieldID: colorID, Value: "blue"}}, ""},
		{"blank required", []FieldValue{{FieldID: nameID, Value: "  "}}, "validation failed: required fields are missing: name"},
		{"unknown field", []FieldValue{{FieldID: nameID, Value: "Ali"}, {FieldID: "nope", Value: 1}}, `validation failed: field nope does not belong to service "Cards"`},
		{"inactive option", []FieldValue{{FieldID: nameID, Value: "Ali"}, {FieldID: colorID, Value: "red"}}, `validation failed: "red" is not an option of field "color"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ValidateFieldValues(tc.values)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestServicePricing(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	p, err := NewServicePricing("svc", decimal.RequireFromString("2.50"), decimal.RequireFromString("10"), now)
	require.NoError(t, err)
	assert.True(t, p.Savings().Equal(decimal.RequireFromString("7.5")))
	assert.True(t, p.EffectiveAt(now))

	later := now.AddDate(0, 1, 0)
	p.EffectiveTo = &now
	assert.False(t, p.EffectiveAt(later))

	_, err = NewServicePricing("svc", decimal.NewFromInt(-1), decimal.Zero, now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSavingsPercent(t *testing.T) {
	rows := []*ServicePricing{
		{InternalCost: decimal.NewFromInt(30), ExternalCost: decimal.NewFromInt(100)},
		{InternalCost: decimal.NewFromInt(10), ExternalCost: decimal.NewFromInt(50)},
		{InternalCost: decimal.Zero, ExternalCost: decimal.NewFromInt(500)},
		{InternalCost: decimal.NewFromInt(60), ExternalCost: decimal.NewFromInt(40)},
	}
	// (70 + 40) / 150 = 73.33..
	assert.Equal(t, "73.3", SavingsPercent(rows).String())
	assert.True(t, SavingsPercent(nil).IsZero())
}

func TestApprovalPolicy_Requires(t *testing.T) {
	needs := &Service{ID: "a", RequiresApproval: true}
	free := &Service{ID: "b"}

	policy := DefaultApprovalPolicy()
	assert.True(t, policy.Requires(needs))
	assert.False(t, policy.Requires(free))

	policy.IsGlobalEnabled = false
	assert.False(t, policy.Requires(needs))

	policy.SelectiveServices = []string{"b"}
	assert.True(t, policy.Requires(free))
}
