// Package quote composes tier pricing, the annual promotion, the same-day
// fee and coupon discounts into the payable total of a checkout, and
// snapshots a quote into booking records.
package quote

import (
	"time"

	"rental-storefront/internal/coupon"
	"rental-storefront/internal/model"
	"rental-storefront/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Input is everything a quote depends on.
type Input struct {
	Cart       model.Cart
	Checkout   model.Checkout
	Items      model.EquipmentIndex
	Categories []model.Category
	Settings   model.Settings
	Coupon     coupon.Result
	Today      string
}

// Line is one priced cart line.
type Line struct {
	ItemID    string                  `json:"itemId"`
	Name      string                  `json:"name"`
	Qty       int                     `json:"qty"`
	UnitPrice decimal.Decimal         `json:"unitPrice"`
	LineTotal decimal.Decimal         `json:"lineTotal"`
	Promotion pricing.EligibilityRule `json:"promotionRule"`
	Eligible  bool                    `json:"promotionEligible"`
}

// Result is a priced checkout. LineTotal values are per date; Subtotal
// covers every date.
type Result struct {
	Annual     bool               `json:"annual"`
	Guest      bool               `json:"guest"`
	Dates      []string           `json:"dates"`
	Lines      []Line             `json:"lines"`
	Skipped    []string           `json:"skipped,omitempty"`
	Promotion  *pricing.Promotion `json:"promotion,omitempty"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	SameDayFee decimal.Decimal    `json:"sameDayFee"`
	Discount   decimal.Decimal    `json:"discount"`
	Coupon     coupon.Result      `json:"coupon"`
	Total      decimal.Decimal    `json:"total"`
}

// Build prices in. Annual plans use the promotion total once every plan date
// is selected, falling back to normal pricing over every date when no line
// is eligible. A partial plan is priced normally per selected date, with no
// promotion. Guests pay each
// item's base price and cannot quote an annual plan. The coupon discounts
// the merchandise subtotal only; the same-day fee is added after.
func Build(in Input) (Result, error) {
	co := in.Checkout
	if co.Guest && co.Annual {
		return Result{}, model.ErrAnnualNotAllowed
	}

	settings := in.Settings.WithDefaults()
	cart := in.Cart.Compact()

	res := Result{
		Annual:     co.Annual,
		Guest:      co.Guest,
		Dates:      co.SelectedDates(),
		Lines:      make([]Line, 0, len(cart)),
		SameDayFee: decimal.Zero,
		Discount:   decimal.Zero,
		Coupon:     in.Coupon,
	}
	if res.Dates == nil {
		res.Dates = []string{}
	}

	perDate := decimal.Zero
	for _, cl := range cart {
		item, ok := in.Items[cl.ItemID]
		if !ok {
			res.Skipped = append(res.Skipped, cl.ItemID)
			continue
		}

		unit, ok := unitPrice(item, cl.Qty, co.Guest)
		if !ok {
			res.Skipped = append(res.Skipped, cl.ItemID)
			continue
		}

		total := unit.Mul(decimal.NewFromInt(int64(cl.Qty)))
		eligibility := pricing.PromotionEligibility(item, in.Categories)
		res.Lines = append(res.Lines, Line{
			ItemID:    cl.ItemID,
			Name:      item.Name,
			Qty:       cl.Qty,
			UnitPrice: unit,
			LineTotal: total,
			Promotion: eligibility.Rule,
			Eligible:  eligibility.Eligible,
		})
		perDate = perDate.Add(total)
	}

	switch {
	case co.Annual && len(res.Dates) < settings.AnnualDateCount:
		res.Subtotal = perDate.Mul(decimal.NewFromInt(int64(max(1, len(res.Dates)))))
	case co.Annual:
		promo := pricing.AnnualPromotion(cart, in.Items, in.Categories, settings.AnnualPromoRate, settings.AnnualDateCount)
		res.Promotion = &promo
		if promo.Active {
			res.Subtotal = promo.PromoTotal
		} else {
			res.Subtotal = promo.NormalTotal
		}
	default:
		res.Subtotal = perDate
		if co.Date != "" && co.Date == in.Today && settings.SameDayFee.IsPositive() {
			res.SameDayFee = settings.SameDayFee
		}
	}

	if in.Coupon.Applicable() {
		res.Discount = coupon.Apply(*in.Coupon.Coupon, res.Subtotal)
	}

	res.Total = res.Subtotal.Add(res.SameDayFee).Sub(res.Discount)
	return res, nil
}

func unitPrice(item model.Equipment, qty int, guest bool) (decimal.Decimal, bool) {
	if guest {
		return pricing.BaseUnitPrice(item.PricingTiers)
	}
	return pricing.UnitPrice(item.PricingTiers, qty)
}

// Records snapshots res into one booking per date, all sharing groupID.
// Only the first record carries the aggregate totals.
func Records(res Result, co model.Checkout, sessionID string, groupID uuid.UUID, now time.Time) []model.Booking {
	items := make(map[string]int, len(res.Lines))
	for _, l := range res.Lines {
		items[l.ItemID] += l.Qty
	}

	var code *string
	if res.Coupon.Applicable() {
		c := res.Coupon.Coupon.Code
		code = &c
	}

	records := make([]model.Booking, 0, len(res.Dates))
	for i, date := range res.Dates {
		slot := co.Slot(date)
		b := model.Booking{
			ID:         uuid.New(),
			GroupID:    groupID,
			Sequence:   i,
			SessionID:  sessionID,
			Date:       date,
			Delivery:   slot.Delivery,
			Pickup:     slot.Pickup,
			Address:    co.Address,
			Items:      copyItems(items),
			CouponCode: code,
			Annual:     res.Annual,
			CreatedAt:  now,
		}
		if i == 0 {
			b.NormalTotal = decimal.NewNullDecimal(res.normalTotal())
			if res.Promotion != nil && res.Promotion.Active {
				b.PromoTotal = decimal.NewNullDecimal(res.Promotion.PromoTotal)
			}
			b.SameDayFee = decimal.NewNullDecimal(res.SameDayFee)
			b.Discount = decimal.NewNullDecimal(res.Discount)
			b.Total = decimal.NewNullDecimal(res.Total)
		}
		records = append(records, b)
	}
	return records
}

func (r Result) normalTotal() decimal.Decimal {
	if r.Promotion != nil {
		return r.Promotion.NormalTotal
	}
	return r.Subtotal
}

func copyItems(items map[string]int) map[string]int {
	out := make(map[string]int, len(items))
	for k, v := range items {
		out[k] = v
	}
	return out
}
