// Package coupon resolves discount codes and applies them to a subtotal.
package coupon

import (
	"context"
	"strings"

	"rental-storefront/internal/model"
)

// Outcome is the result of resolving a code.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeNotFound Outcome = "not_found"
	OutcomeDisabled Outcome = "disabled"
	OutcomeNone     Outcome = "none"
)

// Result reports how a code resolved. Coupon is set only when Outcome is
// OutcomeApplied.
type Result struct {
	Outcome Outcome       `json:"outcome"`
	Code    string        `json:"code,omitempty"`
	Coupon  *model.Coupon `json:"coupon,omitempty"`
}

// Applicable reports whether the result carries a coupon to apply.
func (r Result) Applicable() bool {
	return r.Outcome == OutcomeApplied && r.Coupon != nil
}

// Book is a set of coupons keyed by normalised code.
type Book interface {
	// Lookup returns the coupon stored under code, matched case-insensitively.
	Lookup(code string) (model.Coupon, bool)

	// Size returns the number of coupons in the book.
	Size() int
}

// Finder fetches a coupon by normalised code. A miss returns nil, nil.
type Finder interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
}

// Resolver turns a customer-entered code into a Result.
type Resolver interface {
	// Resolve never fails for unknown or disabled codes; an error means the
	// coupon store could not be read.
	Resolve(ctx context.Context, code string) (Result, error)
}

// Normalize returns the canonical form of a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
