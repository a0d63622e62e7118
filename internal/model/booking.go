package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is the immutable snapshot of one date's commitment. An annual
// checkout produces one record per date sharing GroupID; only the record
// with Sequence 0 carries the aggregate totals.
type Booking struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	GroupID     uuid.UUID           `json:"groupId" db:"group_id"`
	Sequence    int                 `json:"sequence" db:"sequence"`
	SessionID   string              `json:"sessionId" db:"session_id"`
	Date        string              `json:"date" db:"booking_date"`
	Delivery    string              `json:"delivery,omitempty" db:"delivery_time"`
	Pickup      string              `json:"pickup,omitempty" db:"pickup_time"`
	Address     string              `json:"address" db:"address"`
	Items       map[string]int      `json:"items" db:"items"`
	CouponCode  *string             `json:"couponCode,omitempty" db:"coupon_code"`
	Annual      bool                `json:"annual" db:"annual"`
	NormalTotal decimal.NullDecimal `json:"normalTotal" db:"normal_total"`
	PromoTotal  decimal.NullDecimal `json:"promoTotal" db:"promo_total"`
	SameDayFee  decimal.NullDecimal `json:"sameDayFee" db:"same_day_fee"`
	Discount    decimal.NullDecimal `json:"discount" db:"discount"`
	Total       decimal.NullDecimal `json:"total" db:"total"`
	CreatedAt   time.Time           `json:"createdAt" db:"created_at"`
}

// BookedQty returns the quantity of itemID this record commits.
func (b Booking) BookedQty(itemID string) int {
	if b.Items == nil {
		return 0
	}
	return b.Items[itemID]
}
