package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-storefront/internal/availability"
	"rental-storefront/internal/checkout"
	"rental-storefront/internal/coupon"
	"rental-storefront/internal/events"
	"rental-storefront/internal/model"
	"rental-storefront/internal/repository"
	"rental-storefront/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestBookingService(repos repository.Repositories, sessions session.Store, locker session.Locker, pub events.Publisher) *bookingService {
	svc := NewBookingService(repos, sessions, locker, pub, nil, zerolog.Nop()).(*bookingService)
	svc.clock = fixedClock()
	return svc
}

// book writes an existing booking for items on date.
func book(t *testing.T, repos repository.Repositories, date string, items map[string]int) {
	t.Helper()
	id := uuid.New()
	require.NoError(t, repos.Bookings.CreateGroup(context.Background(), []model.Booking{{
		ID: id, GroupID: id, SessionID: "other", Date: date, Items: items, CreatedAt: fixedNow.Add(-time.Hour),
	}}, nil))
}

// prepare stores a cart and checkout for session s1.
func prepare(t *testing.T, sessions session.Store, cart model.Cart, co model.Checkout) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, sessions.SetCart(ctx, "s1", cart))
	require.NoError(t, sessions.SetCheckout(ctx, "s1", co))
}

func TestBookingService_Availability(t *testing.T) {
	repos := seededRepos(t)
	svc := newTestBookingService(repos, session.NewMemoryStore(), session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
	ctx := context.Background()
	book(t, repos, "2026-11-02", map[string]int{"table": 37})

	view, err := svc.Availability(ctx, "2026-11-02", model.Cart{{ItemID: "chair", Qty: 40}, {ItemID: "table", Qty: 3}})
	require.NoError(t, err)
	assert.True(t, view.Available)
	assert.Equal(t, availability.LevelIn, view.Levels["chair"])
	assert.Equal(t, availability.LevelLow, view.Levels["table"])

	view, err = svc.Availability(ctx, "2026-11-02", model.Cart{{ItemID: "table", Qty: 4}})
	require.NoError(t, err)
	assert.False(t, view.Available)
	require.Len(t, view.Shortages, 1)
	assert.Equal(t, 3, view.Shortages[0].Remaining)

	_, err = svc.Availability(ctx, "next week", nil)
	assert.ErrorIs(t, err, model.ErrInvalidDate)
}

func TestBookingService_Calendar(t *testing.T) {
	repos := seededRepos(t)
	svc := newTestBookingService(repos, session.NewMemoryStore(), session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
	ctx := context.Background()
	book(t, repos, "2026-11-03", map[string]int{"table": 40})

	dates := []string{"2026-11-02", "2026-11-03", "2026-11-04"}
	blocked, err := svc.Calendar(ctx, dates, model.Cart{{ItemID: "table", Qty: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-11-03"}, blocked)

	_, err = svc.Calendar(ctx, []string{"2026-11-02", "bad"}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidDate)
}

func TestBookingService_Upsell(t *testing.T) {
	ctx := context.Background()

	t.Run("Offers the next cheaper tier", func(t *testing.T) {
		sessions := session.NewMemoryStore()
		svc := newTestBookingService(seededRepos(t), sessions, session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
		prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}, {ItemID: "table", Qty: 2}}, model.Checkout{})

		offers, err := svc.Upsell(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, "chair", offers[0].ItemID)
		assert.Equal(t, 50, offers[0].NextQty)
		assert.Equal(t, 10, offers[0].AddQty)
		assert.Equal(t, "3.00", offers[0].IncrementalCost.StringFixed(2))
		assert.Equal(t, "15.00", offers[0].Savings.StringFixed(2))
		assert.Nil(t, offers[0].Step, "one increment already reaches the tier")
	})

	t.Run("Step offer stops short of the tier", func(t *testing.T) {
		sessions := session.NewMemoryStore()
		svc := newTestBookingService(seededRepos(t), sessions, session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
		prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 20}}, model.Checkout{})

		offers, err := svc.Upsell(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, 50, offers[0].NextQty)
		require.NotNil(t, offers[0].Step)
		assert.Equal(t, 30, offers[0].Step.NextQty)
		assert.Equal(t, 10, offers[0].Step.AddQty)
		assert.Equal(t, "18.00", offers[0].Step.IncrementalCost.StringFixed(2))
	})

	t.Run("Remaining stock on the date bounds the offer", func(t *testing.T) {
		repos := seededRepos(t)
		sessions := session.NewMemoryStore()
		svc := newTestBookingService(repos, sessions, session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
		book(t, repos, "2026-11-02", map[string]int{"chair": 455})
		prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}}, singleCheckout("2026-11-02"))

		offers, err := svc.Upsell(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, offers)
	})

	t.Run("Guests get no offers", func(t *testing.T) {
		sessions := session.NewMemoryStore()
		svc := newTestBookingService(seededRepos(t), sessions, session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
		prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}}, model.Checkout{Guest: true})

		offers, err := svc.Upsell(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, offers)
	})
}

func TestBookingService_Quote(t *testing.T) {
	sessions := session.NewMemoryStore()
	svc := newTestBookingService(seededRepos(t), sessions, session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
	co := singleCheckout(today)
	co.CouponCode = "SAVE10"
	prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}}, co)

	res, err := svc.Quote(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, coupon.OutcomeApplied, res.Coupon.Outcome)
	assert.Equal(t, "72.00", res.Subtotal.StringFixed(2))
	assert.Equal(t, "25.00", res.SameDayFee.StringFixed(2))
	assert.Equal(t, "7.20", res.Discount.StringFixed(2))
	assert.Equal(t, "89.80", res.Total.StringFixed(2))
}

func TestBookingService_Place_Single(t *testing.T) {
	repos := seededRepos(t)
	sessions := session.NewMemoryStore()
	pub := new(MockPublisher)
	svc := newTestBookingService(repos, sessions, session.NewMemoryLocker(), pub)
	ctx := context.Background()

	co := singleCheckout(today)
	co.CouponCode = "SAVE10"
	prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}}, co)

	pub.On("BookingPlaced", mock.Anything, mock.MatchedBy(func(records []model.Booking) bool {
		return len(records) == 1 && records[0].SessionID == "s1"
	})).Return(nil)

	placement, err := svc.Place(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StageBooked, placement.Stage)
	require.Len(t, placement.Bookings, 1)

	record := placement.Bookings[0]
	assert.Equal(t, placement.GroupID, record.GroupID)
	assert.Equal(t, today, record.Date)
	assert.Equal(t, "08:00", record.Delivery)
	assert.Equal(t, map[string]int{"chair": 40}, record.Items)
	require.NotNil(t, record.CouponCode)
	assert.Equal(t, "SAVE10", *record.CouponCode)
	assert.Equal(t, "89.80", record.Total.Decimal.StringFixed(2))
	assert.False(t, record.PromoTotal.Valid)

	cart, err := sessions.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart, "session is cleared after booking")

	history, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)

	pub.AssertExpectations(t)
}

func TestBookingService_Place_Annual(t *testing.T) {
	repos := seededRepos(t)
	sessions := session.NewMemoryStore()
	svc := newTestBookingService(repos, sessions, session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
	prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 50}}, annualCheckout())

	placement, err := svc.Place(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, placement.Bookings, 5)

	first := placement.Bookings[0]
	assert.Equal(t, 0, first.Sequence)
	assert.Equal(t, "375.00", first.NormalTotal.Decimal.StringFixed(2))
	assert.Equal(t, "187.50", first.PromoTotal.Decimal.StringFixed(2))
	assert.True(t, first.SameDayFee.Decimal.IsZero())
	assert.Equal(t, "187.50", first.Total.Decimal.StringFixed(2))

	for i, b := range placement.Bookings[1:] {
		assert.Equal(t, i+1, b.Sequence)
		assert.Equal(t, first.GroupID, b.GroupID)
		assert.True(t, b.Annual)
		assert.False(t, b.Total.Valid, "only the first record carries totals")
	}
}

func TestBookingService_Place_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("Incomplete checkout", func(t *testing.T) {
		sessions := session.NewMemoryStore()
		svc := newTestBookingService(seededRepos(t), sessions, session.NewMemoryLocker(), new(MockPublisher))
		prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}}, model.Checkout{Date: today})

		_, err := svc.Place(ctx, "s1")
		assert.ErrorIs(t, err, model.ErrCheckoutIncomplete)

		var ve *model.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.NotEmpty(t, ve.Problems)
	})

	t.Run("Date sold out", func(t *testing.T) {
		repos := seededRepos(t)
		sessions := session.NewMemoryStore()
		pub := new(MockPublisher)
		svc := newTestBookingService(repos, sessions, session.NewMemoryLocker(), pub)
		book(t, repos, "2026-11-02", map[string]int{"chair": 470})
		prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}}, singleCheckout("2026-11-02"))

		_, err := svc.Place(ctx, "s1")
		assert.ErrorIs(t, err, model.ErrDateUnavailable)
		assert.Contains(t, err.Error(), "2026-11-02")

		cart, err := sessions.Cart(ctx, "s1")
		require.NoError(t, err)
		assert.NotEmpty(t, cart, "a rejected booking keeps the session")
		pub.AssertNotCalled(t, "BookingPlaced", mock.Anything, mock.Anything)
	})

	t.Run("Equipment removed after it was added", func(t *testing.T) {
		repos := seededRepos(t)
		sessions := session.NewMemoryStore()
		svc := newTestBookingService(repos, sessions, session.NewMemoryLocker(), new(MockPublisher))
		prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}, {ItemID: "table", Qty: 1}}, singleCheckout("2026-11-02"))
		_, err := repos.Equipment.Delete(ctx, "table")
		require.NoError(t, err)

		_, err = svc.Place(ctx, "s1")
		assert.ErrorIs(t, err, model.ErrEquipmentNotFound)
	})

	t.Run("Booking already in progress", func(t *testing.T) {
		sessions := session.NewMemoryStore()
		locker := session.NewMemoryLocker()
		svc := newTestBookingService(seededRepos(t), sessions, locker, new(MockPublisher))
		prepare(t, sessions, model.Cart{{ItemID: "chair", Qty: 40}}, singleCheckout("2026-11-02"))

		release, err := locker.Acquire(ctx, "booking:s1")
		require.NoError(t, err)
		defer release()

		_, err = svc.Place(ctx, "s1")
		assert.ErrorIs(t, err, model.ErrBookingInProgress)
	})

	t.Run("Session required", func(t *testing.T) {
		svc := newTestBookingService(seededRepos(t), session.NewMemoryStore(), session.NewMemoryLocker(), new(MockPublisher))

		_, err := svc.Place(ctx, "")
		assert.ErrorIs(t, err, model.ErrSessionRequired)
		_, err = svc.History(ctx, "")
		assert.ErrorIs(t, err, model.ErrSessionRequired)
	})
}

func TestBookingService_Place_AfterWriteFailures(t *testing.T) {
	repos := seededRepos(t)
	store := &MockStore{Store: session.NewMemoryStore()}
	pub := new(MockPublisher)
	svc := newTestBookingService(repos, store, session.NewMemoryLocker(), pub)
	ctx := context.Background()
	prepare(t, store, model.Cart{{ItemID: "table", Qty: 2}}, singleCheckout("2026-11-02"))

	pub.On("BookingPlaced", mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))
	store.On("Clear", mock.Anything, "s1").Return(errors.New("session store unavailable"))

	placement, err := svc.Place(ctx, "s1")
	require.NoError(t, err, "the booking stands once written")
	require.Len(t, placement.Bookings, 1)

	stored, err := repos.Bookings.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	pub.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestBookingService_Place_Concurrent(t *testing.T) {
	repos := seededRepos(t)
	sessions := session.NewMemoryStore()
	svc := newTestBookingService(repos, sessions, session.NewMemoryLocker(), events.NewNopPublisher(zerolog.Nop()))
	ctx := context.Background()

	const shoppers = 6
	for i := 0; i < shoppers; i++ {
		id := "s" + string(rune('a'+i))
		require.NoError(t, sessions.SetCart(ctx, id, model.Cart{{ItemID: "table", Qty: 15}}))
		require.NoError(t, sessions.SetCheckout(ctx, id, singleCheckout("2026-11-02")))
	}

	errs := make(chan error, shoppers)
	for i := 0; i < shoppers; i++ {
		go func(id string) {
			_, err := svc.Place(ctx, id)
			errs <- err
		}("s" + string(rune('a'+i)))
	}

	placed, rejected := 0, 0
	for i := 0; i < shoppers; i++ {
		err := <-errs
		switch {
		case err == nil:
			placed++
		case errors.Is(err, model.ErrDateUnavailable):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 2, placed, "40 tables cover two orders of 15")
	assert.Equal(t, 4, rejected)
}
