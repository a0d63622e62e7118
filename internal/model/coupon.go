package model

import "github.com/shopspring/decimal"

// DiscountType is the way a coupon reduces a subtotal.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// Coupon represents a discount code.
type Coupon struct {
	Code    string          `json:"code" db:"code" validate:"required"`
	Type    DiscountType    `json:"type" db:"discount_type" validate:"required,oneof=percent amount fixed"`
	Amount  decimal.Decimal `json:"amount" db:"amount"`
	Enabled bool            `json:"enabled" db:"enabled"`
}

// NormalizedType maps the accepted aliases onto the two discount types.
func (c Coupon) NormalizedType() DiscountType {
	switch c.Type {
	case DiscountAmount, "fixed":
		return DiscountAmount
	default:
		return DiscountPercent
	}
}
