package pricing

import (
	"rental-storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Unbounded disables the maxSelectable limit of the upsell advisors.
const Unbounded = -1

// Offer is a suggested quantity increase.
type Offer struct {
	AddQty           int             `json:"addQty"`
	NextQty          int             `json:"nextQty"`
	IncrementalCost  decimal.Decimal `json:"incrementalCost"`
	CurrentUnitPrice decimal.Decimal `json:"currentUnitPrice"`
	NextUnitPrice    decimal.Decimal `json:"nextUnitPrice"`
	Savings          decimal.Decimal `json:"savings"`
}

// NextIncrementOffer prices one order-increment step above currentQty.
// It returns false when increment is not positive, the step leaves the
// selectable range, a price cannot be resolved, or the step costs nothing.
func NextIncrementOffer(tiers model.Tiers, currentQty, increment, maxSelectable int) (Offer, bool) {
	if increment <= 0 {
		return Offer{}, false
	}
	offer, ok := offerFor(tiers, currentQty, currentQty+increment, maxSelectable)
	if !ok || offer.NextUnitPrice.GreaterThan(offer.CurrentUnitPrice) {
		return Offer{}, false
	}
	return offer, true
}

// NextTierOffer finds the nearest tier whose unit price is strictly lower
// than the price at currentQty and reports how many units reach it. With a
// positive increment the target is rounded up to a multiple of it.
func NextTierOffer(tiers model.Tiers, currentQty, increment, maxSelectable int) (Offer, bool) {
	if currentQty <= 0 {
		return Offer{}, false
	}
	current, ok := UnitPrice(tiers, currentQty)
	if !ok {
		return Offer{}, false
	}

	for _, t := range tiers {
		if t.MinQty <= currentQty || !t.PriceEach.LessThan(current) {
			continue
		}

		target := roundUp(t.MinQty, increment)
		offer, ok := offerFor(tiers, currentQty, target, maxSelectable)
		if !ok || !offer.NextUnitPrice.LessThan(current) {
			return Offer{}, false
		}
		return offer, true
	}
	return Offer{}, false
}

func offerFor(tiers model.Tiers, currentQty, nextQty, maxSelectable int) (Offer, bool) {
	if nextQty <= 0 || nextQty <= currentQty {
		return Offer{}, false
	}
	if maxSelectable >= 0 && nextQty > maxSelectable {
		return Offer{}, false
	}

	current, ok := UnitPrice(tiers, currentQty)
	if !ok {
		return Offer{}, false
	}
	next, ok := UnitPrice(tiers, nextQty)
	if !ok {
		return Offer{}, false
	}

	cur := current.Mul(decimal.NewFromInt(int64(currentQty)))
	nxt := next.Mul(decimal.NewFromInt(int64(nextQty)))
	cost := nxt.Sub(cur)
	if !cost.IsPositive() {
		return Offer{}, false
	}

	atCurrentRate := current.Mul(decimal.NewFromInt(int64(nextQty)))
	return Offer{
		AddQty:           nextQty - currentQty,
		NextQty:          nextQty,
		IncrementalCost:  cost,
		CurrentUnitPrice: current,
		NextUnitPrice:    next,
		Savings:          decimal.Max(decimal.Zero, atCurrentRate.Sub(nxt)),
	}, true
}

func roundUp(qty, increment int) int {
	if increment <= 0 {
		return qty
	}
	if rem := qty % increment; rem != 0 {
		return qty + increment - rem
	}
	return qty
}
