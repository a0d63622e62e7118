package repository

import (
	"context"
	"sort"

	"rental-storefront/internal/model"
)

// EquipmentRepository defines data access for rentable equipment.
type EquipmentRepository interface {
	// List returns every item ordered by name.
	List(ctx context.Context) ([]model.Equipment, error)

	// GetByID returns the item or nil when it does not exist.
	GetByID(ctx context.Context, id string) (*model.Equipment, error)

	// GetByIDs returns the items that exist among ids.
	GetByIDs(ctx context.Context, ids []string) ([]model.Equipment, error)

	// Save inserts or replaces the item.
	Save(ctx context.Context, item *model.Equipment) error

	// Delete removes the item and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// CategoryRepository defines data access for equipment categories.
type CategoryRepository interface {
	// List returns every category by sort order, then name.
	List(ctx context.Context) ([]model.Category, error)

	// GetByID returns the category or nil when it does not exist.
	GetByID(ctx context.Context, id string) (*model.Category, error)

	// Save inserts or replaces the category.
	Save(ctx context.Context, category *model.Category) error

	// Delete removes the category, detaching its equipment, and reports
	// whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// CouponRepository defines data access for discount codes. Codes are
// stored normalised and matched case-insensitively.
type CouponRepository interface {
	// List returns every coupon ordered by code.
	List(ctx context.Context) ([]model.Coupon, error)

	// GetByCode returns the coupon or nil when it does not exist.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// ReplaceAll swaps the stored coupon list for coupons.
	ReplaceAll(ctx context.Context, coupons []model.Coupon) error
}

// SettingsRepository defines data access for store-wide settings.
type SettingsRepository interface {
	// Get returns the stored settings, or the defaults when none are stored.
	Get(ctx context.Context) (model.Settings, error)

	// Save replaces the stored settings.
	Save(ctx context.Context, settings model.Settings) error
}

// VerifyFunc inspects the bookings already on the dates of a new group.
// A non-nil error aborts the write and is returned unchanged.
type VerifyFunc func(existing []model.Booking) error

// BookingRepository defines data access for the append-only booking ledger.
type BookingRepository interface {
	// List returns every booking, newest first.
	List(ctx context.Context) ([]model.Booking, error)

	// ListByDates returns the bookings on any of dates.
	ListByDates(ctx context.Context, dates []string) ([]model.Booking, error)

	// ListBySession returns the bookings a session placed, newest first.
	ListBySession(ctx context.Context, sessionID string) ([]model.Booking, error)

	// CreateGroup writes records atomically. verify runs against the
	// bookings on the records' dates while concurrent writers for those
	// dates are held off, so a passing check cannot be invalidated
	// before the write.
	CreateGroup(ctx context.Context, records []model.Booking, verify VerifyFunc) error
}

// Repositories bundles one implementation of every repository.
type Repositories struct {
	Equipment  EquipmentRepository
	Categories CategoryRepository
	Coupons    CouponRepository
	Settings   SettingsRepository
	Bookings   BookingRepository
}

// distinctDates returns the sorted, distinct dates of records.
func distinctDates(records []model.Booking) []string {
	seen := make(map[string]struct{}, len(records))
	dates := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		dates = append(dates, r.Date)
	}
	sort.Strings(dates)
	return dates
}
