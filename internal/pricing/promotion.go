package pricing

import (
	"rental-storefront/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultPromoRate is the annual promotional price per eligible unit.
var DefaultPromoRate = decimal.RequireFromString("0.75")

// DefaultDateCount is the number of dates in an annual plan.
const DefaultDateCount = 5

// PromotionLine is one cart line's contribution to the annual totals.
type PromotionLine struct {
	ItemID        string          `json:"itemId"`
	Qty           int             `json:"qty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	NormalPerDate decimal.Decimal `json:"normalPerDate"`
	PromoPerDate  decimal.Decimal `json:"promoPerDate"`
	Eligible      bool            `json:"eligible"`
}

// Promotion is the normal versus promotional cost of an annual plan.
type Promotion struct {
	Active        bool            `json:"active"`
	Rate          decimal.Decimal `json:"rate"`
	DateCount     int             `json:"dateCount"`
	NormalPerDate decimal.Decimal `json:"normalPerDate"`
	PromoPerDate  decimal.Decimal `json:"promoPerDate"`
	NormalTotal   decimal.Decimal `json:"normalTotal"`
	PromoTotal    decimal.Decimal `json:"promoTotal"`
	Savings       decimal.Decimal `json:"savings"`
	Lines         []PromotionLine `json:"lines"`
	Skipped       []string        `json:"skipped,omitempty"`
}

// AnnualPromotion prices cart across dateCount dates with eligible lines at
// rate per unit. Lines whose item is missing or has no resolvable price are
// skipped. Active is false when no eligible, priced line with a positive
// quantity exists; the totals are still filled so callers can fall back to
// normal pricing. A non-positive rate or dateCount takes the default.
func AnnualPromotion(
	cart model.Cart,
	items model.EquipmentIndex,
	categories []model.Category,
	rate decimal.Decimal,
	dateCount int,
) Promotion {
	if !rate.IsPositive() {
		rate = DefaultPromoRate
	}
	if dateCount <= 0 {
		dateCount = DefaultDateCount
	}

	p := Promotion{
		Rate:          rate,
		DateCount:     dateCount,
		NormalPerDate: decimal.Zero,
		PromoPerDate:  decimal.Zero,
		Lines:         make([]PromotionLine, 0, len(cart)),
	}

	for _, line := range cart {
		if line.Qty <= 0 {
			continue
		}
		item, ok := items[line.ItemID]
		if !ok {
			p.Skipped = append(p.Skipped, line.ItemID)
			continue
		}
		unit, ok := UnitPrice(item.PricingTiers, line.Qty)
		if !ok {
			p.Skipped = append(p.Skipped, line.ItemID)
			continue
		}

		qty := decimal.NewFromInt(int64(line.Qty))
		normal := unit.Mul(qty)
		promo := normal
		eligible := PromotionEligibility(item, categories).Eligible
		if eligible {
			promo = rate.Mul(qty)
			p.Active = true
		}

		p.NormalPerDate = p.NormalPerDate.Add(normal)
		p.PromoPerDate = p.PromoPerDate.Add(promo)
		p.Lines = append(p.Lines, PromotionLine{
			ItemID:        line.ItemID,
			Qty:           line.Qty,
			UnitPrice:     unit,
			NormalPerDate: normal,
			PromoPerDate:  promo,
			Eligible:      eligible,
		})
	}

	dates := decimal.NewFromInt(int64(dateCount))
	p.NormalTotal = p.NormalPerDate.Mul(dates)
	p.PromoTotal = p.PromoPerDate.Mul(dates)
	p.Savings = decimal.Max(decimal.Zero, p.NormalTotal.Sub(p.PromoTotal))
	return p
}
