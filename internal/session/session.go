// Package session stores each shopper's cart and checkout between
// requests and serialises booking placement per session.
package session

import (
	"context"

	"rental-storefront/internal/model"
)

// Store holds per-session cart and checkout state. A session with nothing
// stored reads as an empty cart and a zero checkout.
type Store interface {
	Cart(ctx context.Context, sessionID string) (model.Cart, error)
	SetCart(ctx context.Context, sessionID string, cart model.Cart) error
	Checkout(ctx context.Context, sessionID string) (model.Checkout, error)
	SetCheckout(ctx context.Context, sessionID string, checkout model.Checkout) error

	// Clear removes everything stored for the session.
	Clear(ctx context.Context, sessionID string) error
}

// Locker grants exclusive, non-blocking ownership of a key.
type Locker interface {
	// Acquire returns model.ErrBookingInProgress when key is already held.
	// The returned release func must be called once the work is done.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
