package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type budgetInput struct {
	Amount decimal.Decimal `validate:"required,positive_decimal"`
}

type profileInput struct {
	AnchorDay *int   `validate:"omitempty,anchor_day"`
	Color     string `validate:"omitempty,hex_color"`
	Type      string `validate:"omitempty,category_type"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestPositiveDecimal(t *testing.T) {
	v := newValidate()

	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"positive", "500", true},
		{"fraction", "0.01", true},
		{"zero", "0", false},
		{"negative", "-12.5", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(budgetInput{Amount: decimal.RequireFromString(tt.value)})
			assert.Equal(t, tt.valid, err == nil, "amount %s", tt.value)
		})
	}
}

func TestAnchorDay(t *testing.T) {
	v := newValidate()
	day := func(d int) *int { return &d }

	assert.NoError(t, v.Struct(profileInput{}))
	assert.NoError(t, v.Struct(profileInput{AnchorDay: day(1)}))
	assert.NoError(t, v.Struct(profileInput{AnchorDay: day(31)}))
	assert.Error(t, v.Struct(profileInput{AnchorDay: day(0)}))
	assert.Error(t, v.Struct(profileInput{AnchorDay: day(32)}))
}

func TestHexColorAndCategoryType(t *testing.T) {
	v := newValidate()

	assert.NoError(t, v.Struct(profileInput{Color: "#0af", Type: "expense"}))
	assert.NoError(t, v.Struct(profileInput{Color: "#00AAFF", Type: "income"}))
	assert.Error(t, v.Struct(profileInput{Color: "00AAFF"}))
	assert.Error(t, v.Struct(profileInput{Type: "transfer"}))
}
