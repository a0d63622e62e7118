package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rental-storefront/internal/database"
	"rental-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container with the storefront schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.EnsureSchema(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// backends returns every implementation under test. Each test gets a fresh
// in-memory store; the PostgreSQL store is truncated between tests.
func backends(t *testing.T) map[string]func(t *testing.T) Repositories {
	out := map[string]func(t *testing.T) Repositories{
		"memory": func(t *testing.T) Repositories {
			return NewMemoryRepositories(zerolog.Nop())
		},
	}
	if testing.Short() {
		return out
	}

	pool, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	out["postgres"] = func(t *testing.T) Repositories {
		_, err := pool.Exec(context.Background(), `TRUNCATE bookings, equipment, categories, coupons, settings`)
		require.NoError(t, err)
		return NewPostgresRepositories(pool, zerolog.Nop())
	}
	return out
}

func strPtr(s string) *string { return &s }

func chair() *model.Equipment {
	return &model.Equipment{
		ID:             "chair",
		Name:           "White Folding Chair",
		TotalQty:       200,
		OrderIncrement: 10,
		PricingTiers: model.NewTiers(
			model.Tier{MinQty: 10, PriceEach: decimal.RequireFromString("1.90")},
			model.Tier{MinQty: 50, PriceEach: decimal.RequireFromString("1.50")},
		),
	}
}

func booking(group uuid.UUID, seq int, date, session string, items map[string]int) model.Booking {
	return model.Booking{
		ID:        uuid.New(),
		GroupID:   group,
		Sequence:  seq,
		SessionID: session,
		Date:      date,
		Address:   "1 Main St",
		Items:     items,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestRepositories(t *testing.T) {
	for name, newRepos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("Equipment", func(t *testing.T) { testEquipment(t, newRepos(t)) })
			t.Run("Categories", func(t *testing.T) { testCategories(t, newRepos(t)) })
			t.Run("Coupons", func(t *testing.T) { testCoupons(t, newRepos(t)) })
			t.Run("Settings", func(t *testing.T) { testSettings(t, newRepos(t)) })
			t.Run("Bookings", func(t *testing.T) { testBookings(t, newRepos(t)) })
			t.Run("ConcurrentGroups", func(t *testing.T) { testConcurrentGroups(t, newRepos(t)) })
		})
	}
}

func testEquipment(t *testing.T, repos Repositories) {
	ctx := context.Background()

	item := chair()
	require.NoError(t, repos.Equipment.Save(ctx, item))
	assert.False(t, item.CreatedAt.IsZero())

	table := &model.Equipment{ID: "table", Name: "Banquet Table", TotalQty: 20}
	require.NoError(t, repos.Equipment.Save(ctx, table))

	got, err := repos.Equipment.GetByID(ctx, "chair")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.OrderIncrement)
	require.Len(t, got.PricingTiers, 2)
	assert.True(t, got.PricingTiers[1].PriceEach.Equal(decimal.RequireFromString("1.5")))

	missing, err := repos.Equipment.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repos.Equipment.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "table", list[0].ID)

	some, err := repos.Equipment.GetByIDs(ctx, []string{"chair", "nope"})
	require.NoError(t, err)
	require.Len(t, some, 1)

	none, err := repos.Equipment.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	item.TotalQty = 150
	require.NoError(t, repos.Equipment.Save(ctx, item))
	got, err = repos.Equipment.GetByID(ctx, "chair")
	require.NoError(t, err)
	assert.Equal(t, 150, got.TotalQty)

	deleted, err := repos.Equipment.Delete(ctx, "chair")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repos.Equipment.Delete(ctx, "chair")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testCategories(t *testing.T, repos Repositories) {
	ctx := context.Background()

	require.NoError(t, repos.Categories.Save(ctx, &model.Category{ID: "seating", Name: "Seating", AnnualEligible: true, SortOrder: 2}))
	require.NoError(t, repos.Categories.Save(ctx, &model.Category{ID: "tables", Name: "Tables", SortOrder: 1}))

	item := chair()
	item.CategoryID = strPtr("seating")
	require.NoError(t, repos.Equipment.Save(ctx, item))

	list, err := repos.Categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "tables", list[0].ID)

	got, err := repos.Categories.GetByID(ctx, "seating")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.AnnualEligible)

	deleted, err := repos.Categories.Delete(ctx, "seating")
	require.NoError(t, err)
	assert.True(t, deleted)

	detached, err := repos.Equipment.GetByID(ctx, "chair")
	require.NoError(t, err)
	require.NotNil(t, detached, "deleting a category must keep its equipment")
	assert.Nil(t, detached.CategoryID)

	missing, err := repos.Categories.GetByID(ctx, "seating")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testCoupons(t *testing.T, repos Repositories) {
	ctx := context.Background()

	err := repos.Coupons.ReplaceAll(ctx, []model.Coupon{
		{Code: " save10 ", Type: model.DiscountPercent, Amount: decimal.NewFromInt(10), Enabled: true},
		{Code: "FLAT5", Type: "fixed", Amount: decimal.NewFromInt(5), Enabled: false},
	})
	require.NoError(t, err)

	list, err := repos.Coupons.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "FLAT5", list[0].Code)
	assert.Equal(t, model.DiscountAmount, list[0].Type)

	got, err := repos.Coupons.GetByCode(ctx, "Save10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SAVE10", got.Code)
	assert.True(t, got.Enabled)

	require.NoError(t, repos.Coupons.ReplaceAll(ctx, nil))
	got, err = repos.Coupons.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testSettings(t *testing.T, repos Repositories) {
	ctx := context.Background()

	s, err := repos.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, s.AnnualDateCount)
	assert.True(t, s.AnnualPromoRate.Equal(decimal.RequireFromString("0.75")))

	s.SameDayFee = decimal.NewFromInt(25)
	s.LowStockThreshold = 3
	require.NoError(t, repos.Settings.Save(ctx, s))

	s, err = repos.Settings.Get(ctx)
	require.NoError(t, err)
	assert.True(t, s.SameDayFee.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 3, s.LowStockThreshold)
}

func testBookings(t *testing.T, repos Repositories) {
	ctx := context.Background()

	group := uuid.New()
	first := booking(group, 0, "2026-11-02", "s1", map[string]int{"chair": 40})
	first.Total = decimal.NewNullDecimal(decimal.RequireFromString("76.00"))
	first.CouponCode = strPtr("SAVE10")
	second := booking(group, 1, "2027-09-10", "s1", map[string]int{"chair": 40})
	second.CreatedAt = first.CreatedAt

	require.NoError(t, repos.Bookings.CreateGroup(ctx, []model.Booking{first, second}, nil))
	require.NoError(t, repos.Bookings.CreateGroup(ctx, nil, nil))

	onDate, err := repos.Bookings.ListByDates(ctx, []string{"2026-11-02"})
	require.NoError(t, err)
	require.Len(t, onDate, 1)
	assert.Equal(t, 40, onDate[0].BookedQty("chair"))
	assert.True(t, onDate[0].Total.Valid)
	assert.True(t, onDate[0].Total.Decimal.Equal(decimal.RequireFromString("76")))
	require.NotNil(t, onDate[0].CouponCode)

	mine, err := repos.Bookings.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, 0, mine[0].Sequence)
	assert.True(t, mine[0].Total.Valid)
	assert.False(t, mine[1].Total.Valid)

	others, err := repos.Bookings.ListBySession(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, others)

	errFull := errors.New("full")
	var seen []model.Booking
	err = repos.Bookings.CreateGroup(ctx,
		[]model.Booking{booking(uuid.New(), 0, "2026-11-02", "s2", map[string]int{"chair": 1})},
		func(existing []model.Booking) error {
			seen = existing
			return errFull
		})
	assert.ErrorIs(t, err, errFull)
	require.Len(t, seen, 1)
	assert.Equal(t, first.ID, seen[0].ID)

	all, err := repos.Bookings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "rejected group must not be written")
}

// testConcurrentGroups races placements for the last units on one date; the
// verify step must see every committed group.
func testConcurrentGroups(t *testing.T, repos Repositories) {
	ctx := context.Background()
	const stock, each, workers = 10, 3, 8

	verify := func(existing []model.Booking) error {
		booked := 0
		for _, b := range existing {
			booked += b.BookedQty("chair")
		}
		if booked+each > stock {
			return model.ErrDateUnavailable
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		placed   int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repos.Bookings.CreateGroup(ctx,
				[]model.Booking{booking(uuid.New(), 0, "2026-12-01", "race", map[string]int{"chair": each})},
				verify)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, model.ErrDateUnavailable):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock/each, placed)
	assert.Equal(t, workers-stock/each, rejected)
}
