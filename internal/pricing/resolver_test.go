package pricing

import (
	"testing"

	"rental-storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// chairTiers is the reference schedule used across the pricing tests.
func chairTiers() model.Tiers {
	return model.NewTiers(
		model.Tier{MinQty: 10, PriceEach: dec("1.90")},
		model.Tier{MinQty: 20, PriceEach: dec("1.80")},
		model.Tier{MinQty: 50, PriceEach: dec("1.50")},
		model.Tier{MinQty: 100, PriceEach: dec("1.00")},
	)
}

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name     string
		qty      int
		expected string
	}{
		{name: "Exactly the smallest tier", qty: 10, expected: "1.90"},
		{name: "Below the smallest tier falls back to entry price", qty: 5, expected: "1.90"},
		{name: "Zero quantity falls back to entry price", qty: 0, expected: "1.90"},
		{name: "Between tiers uses the lower breakpoint", qty: 35, expected: "1.80"},
		{name: "Exactly a middle tier", qty: 50, expected: "1.50"},
		{name: "Above the largest tier", qty: 500, expected: "1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok := UnitPrice(chairTiers(), tt.qty)

			require.True(t, ok)
			assert.Equal(t, tt.expected, price.StringFixed(2))
		})
	}
}

func TestUnitPrice_EmptyTiers(t *testing.T) {
	for _, qty := range []int{-1, 0, 1, 10, 1000} {
		price, ok := UnitPrice(model.Tiers{}, qty)

		assert.False(t, ok)
		assert.True(t, price.IsZero())
	}

	_, ok := UnitPrice(nil, 3)
	assert.False(t, ok)
}

func TestUnitPrice_MonotonicInQuantity(t *testing.T) {
	tiers := chairTiers()

	previous, ok := UnitPrice(tiers, 0)
	require.True(t, ok)

	for qty := 1; qty <= 250; qty++ {
		price, ok := UnitPrice(tiers, qty)
		require.True(t, ok)
		assert.False(t, price.GreaterThan(previous), "price rose at qty %d", qty)
		previous = price
	}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		qty      int
		expected string
	}{
		{name: "Ten units at the first tier", qty: 10, expected: "19.00"},
		{name: "Five units below the first tier", qty: 5, expected: "9.50"},
		{name: "Fifty units", qty: 50, expected: "75.00"},
		{name: "Negative quantity is treated as zero", qty: -4, expected: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, ok := LineTotal(chairTiers(), tt.qty)

			require.True(t, ok)
			assert.Equal(t, tt.expected, total.StringFixed(2))
		})
	}

	_, ok := LineTotal(model.Tiers{}, 10)
	assert.False(t, ok)
}

func TestBaseUnitPrice(t *testing.T) {
	price, ok := BaseUnitPrice(chairTiers())
	require.True(t, ok)
	assert.Equal(t, "1.90", price.StringFixed(2))

	_, ok = BaseUnitPrice(model.Tiers{})
	assert.False(t, ok)
}

func TestPriceRange(t *testing.T) {
	r, ok := PriceRange(chairTiers())
	require.True(t, ok)
	assert.Equal(t, "1.00", r.Min.StringFixed(2))
	assert.Equal(t, "1.90", r.Max.StringFixed(2))

	single, ok := PriceRange(model.NewTiers(model.Tier{MinQty: 1, PriceEach: dec("12.50")}))
	require.True(t, ok)
	assert.True(t, single.Min.Equal(single.Max))

	_, ok = PriceRange(nil)
	assert.False(t, ok)
}
