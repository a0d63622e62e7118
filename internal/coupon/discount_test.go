package coupon

import (
	"testing"

	"rental-storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		coupon   model.Coupon
		subtotal string
		discount string
	}{
		{
			name:     "Percent coupon",
			coupon:   model.Coupon{Code: "TWENTY", Type: model.DiscountPercent, Amount: decimal.NewFromInt(20)},
			subtotal: "100.00",
			discount: "20.00",
		},
		{
			name:     "Fixed coupon clamped to subtotal",
			coupon:   model.Coupon{Code: "BIG", Type: model.DiscountAmount, Amount: decimal.NewFromInt(150)},
			subtotal: "100.00",
			discount: "100.00",
		},
		{
			name:     "Fixed alias behaves as amount",
			coupon:   model.Coupon{Code: "TEN", Type: "fixed", Amount: decimal.NewFromInt(10)},
			subtotal: "42.50",
			discount: "10.00",
		},
		{
			name:     "Percent above one hundred clamps",
			coupon:   model.Coupon{Code: "HUGE", Type: model.DiscountPercent, Amount: decimal.NewFromInt(250)},
			subtotal: "80.00",
			discount: "80.00",
		},
		{
			name:     "Negative amount yields zero",
			coupon:   model.Coupon{Code: "NEG", Type: model.DiscountAmount, Amount: decimal.NewFromInt(-5)},
			subtotal: "80.00",
			discount: "0.00",
		},
		{
			name:     "Zero subtotal yields zero",
			coupon:   model.Coupon{Code: "TWENTY", Type: model.DiscountPercent, Amount: decimal.NewFromInt(20)},
			subtotal: "0",
			discount: "0.00",
		},
		{
			name:     "Fractional percent",
			coupon:   model.Coupon{Code: "THIRD", Type: model.DiscountPercent, Amount: decimal.RequireFromString("33.3333")},
			subtotal: "10.00",
			discount: "3.33",
		},
		{
			name:     "Unknown type treated as percent",
			coupon:   model.Coupon{Code: "ODD", Type: "mystery", Amount: decimal.NewFromInt(10)},
			subtotal: "50.00",
			discount: "5.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal := decimal.RequireFromString(tt.subtotal)

			discount := Apply(tt.coupon, subtotal)

			assert.Equal(t, tt.discount, discount.StringFixed(2))
			assert.False(t, discount.IsNegative())
			assert.False(t, discount.GreaterThan(decimal.Max(subtotal, decimal.Zero)))
		})
	}
}

func TestApply_ExactDiscount(t *testing.T) {
	third := model.Coupon{Code: "THIRD", Type: model.DiscountPercent, Amount: decimal.RequireFromString("33.3333")}

	discount := Apply(third, decimal.RequireFromString("10.00"))

	assert.True(t, discount.Equal(decimal.RequireFromString("3.33333")), discount.String())
}

func TestApply_FinalTotals(t *testing.T) {
	subtotal := decimal.RequireFromString("100.00")

	percent := model.Coupon{Type: model.DiscountPercent, Amount: decimal.NewFromInt(20)}
	assert.Equal(t, "80.00", subtotal.Sub(Apply(percent, subtotal)).StringFixed(2))

	fixed := model.Coupon{Type: model.DiscountAmount, Amount: decimal.NewFromInt(150)}
	assert.Equal(t, "0.00", subtotal.Sub(Apply(fixed, subtotal)).StringFixed(2))
}
