package coupon

import (
	"context"

	"rental-storefront/internal/model"
)

// mapBook implements Book using a map keyed by normalised code.
type mapBook struct {
	coupons map[string]model.Coupon
}

// NewMapBook creates an empty map-based book.
func NewMapBook(capacity int) Book {
	return &mapBook{
		coupons: make(map[string]model.Coupon, capacity),
	}
}

// BookOf builds a book from a list. Codes are normalised and the last
// coupon for a code wins.
func BookOf(coupons []model.Coupon) Book {
	b := NewMapBook(len(coupons)).(*mapBook)
	for _, c := range coupons {
		b.Add(c)
	}
	return b
}

// Lookup returns the coupon stored under code.
func (b *mapBook) Lookup(code string) (model.Coupon, bool) {
	c, ok := b.coupons[Normalize(code)]
	return c, ok
}

// Size returns the number of coupons in the book.
func (b *mapBook) Size() int {
	return len(b.coupons)
}

// Add stores c under its normalised code. Empty codes are ignored.
func (b *mapBook) Add(c model.Coupon) {
	code := Normalize(c.Code)
	if code == "" {
		return
	}
	c.Code = code
	b.coupons[code] = c
}

// GetByCode lets a book serve as a Finder.
func (b *mapBook) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	c, ok := b.Lookup(code)
	if !ok {
		return nil, nil
	}
	return &c, nil
}
