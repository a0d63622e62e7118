package service

import (
	"context"
	"testing"
	"time"

	"rental-storefront/internal/model"
	"rental-storefront/internal/repository"
	"rental-storefront/internal/session"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const today = "2026-10-14"

var fixedNow = time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock() clock {
	return clock{now: func() time.Time { return fixedNow }, loc: time.UTC}
}

// seededRepos returns memory repositories holding a small catalog: chairs
// in an annual-eligible category and tables in an ineligible one.
func seededRepos(t *testing.T) repository.Repositories {
	t.Helper()
	ctx := context.Background()
	repos := repository.NewMemoryRepositories(zerolog.Nop())

	seating, tables := "seating", "tables"
	require.NoError(t, repos.Categories.Save(ctx, &model.Category{ID: seating, Name: "Seating", AnnualEligible: true}))
	require.NoError(t, repos.Categories.Save(ctx, &model.Category{ID: tables, Name: "Tables", SortOrder: 1}))

	require.NoError(t, repos.Equipment.Save(ctx, &model.Equipment{
		ID: "chair", Name: "Folding Chair", CategoryID: &seating, TotalQty: 500, OrderIncrement: 10,
		PricingTiers: model.NewTiers(
			model.Tier{MinQty: 10, PriceEach: dec("1.90")},
			model.Tier{MinQty: 20, PriceEach: dec("1.80")},
			model.Tier{MinQty: 50, PriceEach: dec("1.50")},
			model.Tier{MinQty: 100, PriceEach: dec("1.00")},
		),
	}))
	require.NoError(t, repos.Equipment.Save(ctx, &model.Equipment{
		ID: "table", Name: "Banquet Table", CategoryID: &tables, TotalQty: 40,
		PricingTiers: model.NewTiers(model.Tier{MinQty: 1, PriceEach: dec("12.00")}),
	}))

	require.NoError(t, repos.Coupons.ReplaceAll(ctx, []model.Coupon{
		{Code: "SAVE10", Type: model.DiscountPercent, Amount: dec("10"), Enabled: true},
		{Code: "OLD", Type: model.DiscountAmount, Amount: dec("5"), Enabled: false},
	}))

	settings := model.DefaultSettings()
	settings.SameDayFee = dec("25")
	require.NoError(t, repos.Settings.Save(ctx, settings))
	return repos
}

var slot = model.TimeSlot{Delivery: "08:00", Pickup: "18:00"}

func singleCheckout(date string) model.Checkout {
	return model.Checkout{Date: date, Times: map[string]model.TimeSlot{date: slot}, Address: "1 Main St"}
}

func annualCheckout() model.Checkout {
	dates := []string{"2026-11-02", "2027-10-01", "2028-09-15", "2029-08-20", "2030-07-01"}
	times := make(map[string]model.TimeSlot, len(dates))
	for _, d := range dates {
		times[d] = slot
	}
	return model.Checkout{Annual: true, Dates: dates, Times: times, Address: "1 Main St"}
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) BookingPlaced(ctx context.Context, records []model.Booking) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockStore wraps a memory store so individual calls can be failed.
type MockStore struct {
	session.Store
	mock.Mock
}

func (m *MockStore) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.Store.Clear(ctx, sessionID)
}
