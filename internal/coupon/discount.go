package coupon

import (
	"rental-storefront/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply returns the discount c gives on subtotal: a percentage of it for
// percent coupons, the flat amount otherwise. The result is clamped to
// [0, subtotal]; a non-positive subtotal yields zero. The discount is exact;
// amounts are rounded to cents only when displayed.
func Apply(c model.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.NormalizedType() {
	case model.DiscountAmount:
		discount = c.Amount
	default:
		discount = subtotal.Mul(c.Amount).Div(hundred)
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(discount, subtotal)
}
