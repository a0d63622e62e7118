package service

import (
	"context"
	"time"

	"rental-storefront/internal/availability"
	"rental-storefront/internal/catalog"
	"rental-storefront/internal/checkout"
	"rental-storefront/internal/coupon"
	"rental-storefront/internal/model"
	"rental-storefront/internal/pricing"
	"rental-storefront/internal/quote"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService defines operations for browsing and administering the catalog.
type CatalogService interface {
	// ListEquipment returns every item with its price range and promotion eligibility.
	ListEquipment(ctx context.Context) ([]EquipmentView, error)

	// GetEquipment returns one item, or model.ErrEquipmentNotFound.
	GetEquipment(ctx context.Context, id string) (*EquipmentView, error)

	// ListCategories returns every category in display order.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// SaveEquipment validates and stores an item.
	SaveEquipment(ctx context.Context, item *model.Equipment) error

	// DeleteEquipment removes an item, or returns model.ErrEquipmentNotFound.
	DeleteEquipment(ctx context.Context, id string) error

	// SaveCategory stores a category.
	SaveCategory(ctx context.Context, category *model.Category) error

	// DeleteCategory removes a category and detaches its equipment.
	DeleteCategory(ctx context.Context, id string) error

	// ListCoupons returns every coupon.
	ListCoupons(ctx context.Context) ([]model.Coupon, error)

	// SaveCoupons replaces the coupon list.
	SaveCoupons(ctx context.Context, coupons []model.Coupon) error

	// CheckCoupon reports how a customer-entered code resolves.
	CheckCoupon(ctx context.Context, code string) (coupon.Result, error)

	// Settings returns the store settings.
	Settings(ctx context.Context) (model.Settings, error)

	// SaveSettings replaces the store settings.
	SaveSettings(ctx context.Context, settings model.Settings) error

	// Snapshot captures the full catalog and booking ledger.
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// CartService defines operations on a session's cart and checkout.
type CartService interface {
	// Cart returns the session's cart.
	Cart(ctx context.Context, sessionID string) (model.Cart, error)

	// SetLine sets one item's quantity; zero removes the line.
	SetLine(ctx context.Context, sessionID, itemID string, qty int) (model.Cart, error)

	// SetCart replaces the whole cart after validating every line.
	SetCart(ctx context.Context, sessionID string, cart model.Cart) (model.Cart, error)

	// Checkout returns the session's checkout and how far it has progressed.
	Checkout(ctx context.Context, sessionID string) (*CheckoutState, error)

	// SetCheckout replaces the session's checkout.
	SetCheckout(ctx context.Context, sessionID string, co model.Checkout) (*CheckoutState, error)
}

// BookingService defines availability, quoting and booking placement.
type BookingService interface {
	// Availability checks lines against the bookings on date.
	Availability(ctx context.Context, date string, lines model.Cart) (*AvailabilityView, error)

	// Calendar returns the dates among dates on which lines cannot be served.
	Calendar(ctx context.Context, dates []string, lines model.Cart) ([]string, error)

	// Upsell returns the better-rate offer for each cart line that has one.
	Upsell(ctx context.Context, sessionID string) ([]UpsellOffer, error)

	// Quote prices the session's cart and checkout.
	Quote(ctx context.Context, sessionID string) (*quote.Result, error)

	// Place validates, prices and writes the session's booking group.
	Place(ctx context.Context, sessionID string) (*Placement, error)

	// History returns the bookings the session placed, newest first.
	History(ctx context.Context, sessionID string) ([]model.Booking, error)
}

// EquipmentView is a catalog item as shown to shoppers.
type EquipmentView struct {
	model.Equipment
	PriceRange *pricing.Range      `json:"priceRange,omitempty"`
	BasePrice  *decimal.Decimal    `json:"basePrice,omitempty"`
	Promotion  pricing.Eligibility `json:"promotion"`
}

// CheckoutState is a checkout with its derived progress.
type CheckoutState struct {
	Checkout   model.Checkout   `json:"checkout"`
	Stage      checkout.Stage   `json:"stage"`
	Step       checkout.Step    `json:"step"`
	NextWindow *checkout.Window `json:"nextWindow,omitempty"`
}

// AvailabilityView is an availability result with stock levels per item.
type AvailabilityView struct {
	availability.Result
	Levels map[string]availability.Level `json:"levels"`
}

// UpsellOffer is a tier-seeking offer for one cart line. Step is the
// smaller one-increment bump, set when it stops short of the tier target.
type UpsellOffer struct {
	ItemID string         `json:"itemId"`
	Name   string         `json:"name"`
	Qty    int            `json:"qty"`
	Step   *pricing.Offer `json:"step,omitempty"`
	pricing.Offer
}

// Placement is the outcome of a successful booking.
type Placement struct {
	GroupID  uuid.UUID       `json:"groupId"`
	Stage    checkout.Stage  `json:"stage"`
	Quote    *quote.Result   `json:"quote"`
	Bookings []model.Booking `json:"bookings"`
}

// clock yields the current instant and the store's calendar date.
type clock struct {
	now func() time.Time
	loc *time.Location
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.UTC
	}
	return clock{now: time.Now, loc: loc}
}

func (c clock) today() string {
	return checkout.DateOf(c.now(), c.loc)
}
