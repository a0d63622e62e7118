// Package pricing resolves tiered unit prices, upsell offers and the annual
// promotion. Every function is pure and works on canonical model.Tiers.
package pricing

import (
	"rental-storefront/internal/model"

	"github.com/shopspring/decimal"
)

// UnitPrice returns the unit price for qty: the highest tier whose minimum
// is at most qty. Below every tier the smallest tier's price applies. ok is
// false only when tiers is empty.
func UnitPrice(tiers model.Tiers, qty int) (decimal.Decimal, bool) {
	if len(tiers) == 0 {
		return decimal.Zero, false
	}

	chosen := tiers[0]
	for _, t := range tiers {
		if qty >= t.MinQty {
			chosen = t
		}
	}
	return chosen.PriceEach, true
}

// LineTotal returns unit price times qty.
func LineTotal(tiers model.Tiers, qty int) (decimal.Decimal, bool) {
	unit, ok := UnitPrice(tiers, qty)
	if !ok {
		return decimal.Zero, false
	}
	if qty < 0 {
		qty = 0
	}
	return unit.Mul(decimal.NewFromInt(int64(qty))), true
}

// BaseUnitPrice is the entry price of the schedule: the smallest tier,
// which is also the highest price. Guests pay it regardless of quantity.
func BaseUnitPrice(tiers model.Tiers) (decimal.Decimal, bool) {
	if len(tiers) == 0 {
		return decimal.Zero, false
	}
	return tiers[0].PriceEach, true
}

// Range is the span of unit prices a schedule offers.
type Range struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// PriceRange returns the lowest and highest unit price in tiers.
func PriceRange(tiers model.Tiers) (Range, bool) {
	if len(tiers) == 0 {
		return Range{}, false
	}
	r := Range{Min: tiers[0].PriceEach, Max: tiers[0].PriceEach}
	for _, t := range tiers[1:] {
		r.Min = decimal.Min(r.Min, t.PriceEach)
		r.Max = decimal.Max(r.Max, t.PriceEach)
	}
	return r, true
}
