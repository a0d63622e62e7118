package service

import (
	"context"
	"fmt"
	"time"

	"rental-storefront/internal/availability"
	"rental-storefront/internal/checkout"
	"rental-storefront/internal/coupon"
	"rental-storefront/internal/events"
	"rental-storefront/internal/model"
	"rental-storefront/internal/pricing"
	"rental-storefront/internal/quote"
	"rental-storefront/internal/repository"
	"rental-storefront/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// bookingService implements BookingService.
type bookingService struct {
	repos     repository.Repositories
	sessions  session.Store
	locker    session.Locker
	publisher events.Publisher
	resolver  coupon.Resolver
	clock     clock
	logger    zerolog.Logger
}

// NewBookingService creates a new booking service. loc is the store's time
// zone, used to decide what "today" is.
func NewBookingService(
	repos repository.Repositories,
	sessions session.Store,
	locker session.Locker,
	publisher events.Publisher,
	loc *time.Location,
	logger zerolog.Logger,
) BookingService {
	return &bookingService{
		repos:     repos,
		sessions:  sessions,
		locker:    locker,
		publisher: publisher,
		resolver:  coupon.NewResolver(repos.Coupons, logger),
		clock:     newClock(loc),
		logger:    logger.With().Str("service", "booking").Logger(),
	}
}

func (s *bookingService) Availability(ctx context.Context, date string, lines model.Cart) (*AvailabilityView, error) {
	if !checkout.ValidDate(date) {
		return nil, model.ErrInvalidDate
	}

	items, bookings, err := s.inventory(ctx, lines, []string{date})
	if err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}

	res := availability.Check(date, lines, items, bookings)
	view := &AvailabilityView{Result: res, Levels: make(map[string]availability.Level, len(res.Items))}
	for _, stock := range res.Items {
		view.Levels[stock.ItemID] = availability.LevelFor(stock.Remaining, settings.LowStockThreshold)
	}
	return view, nil
}

func (s *bookingService) Calendar(ctx context.Context, dates []string, lines model.Cart) ([]string, error) {
	for _, d := range dates {
		if !checkout.ValidDate(d) {
			return nil, model.ErrInvalidDate
		}
	}

	items, bookings, err := s.inventory(ctx, lines, dates)
	if err != nil {
		return nil, err
	}
	return availability.UnavailableDates(dates, lines, items, bookings), nil
}

// Upsell bounds each offer by the stock left on the selected date, or by
// total stock when no date is chosen yet. Guests pay flat prices and get
// no offers.
func (s *bookingService) Upsell(ctx context.Context, sessionID string) ([]UpsellOffer, error) {
	cart, co, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	offers := make([]UpsellOffer, 0)
	if co.Guest || len(cart) == 0 {
		return offers, nil
	}

	dates := co.SelectedDates()
	items, bookings, err := s.inventory(ctx, cart, dates)
	if err != nil {
		return nil, err
	}

	for _, line := range cart.Compact() {
		item, ok := items[line.ItemID]
		if !ok {
			continue
		}

		limit := item.Stock()
		for _, d := range dates {
			for _, stock := range availability.Remaining(d, []string{item.ID}, items, bookings) {
				if stock.Remaining < limit {
					limit = stock.Remaining
				}
			}
		}

		offer, ok := pricing.NextTierOffer(item.PricingTiers, line.Qty, item.Increment(), limit)
		if !ok {
			continue
		}
		up := UpsellOffer{ItemID: item.ID, Name: item.Name, Qty: line.Qty, Offer: offer}
		if step, ok := pricing.NextIncrementOffer(item.PricingTiers, line.Qty, item.Increment(), limit); ok && step.NextQty < offer.NextQty {
			up.Step = &step
		}
		offers = append(offers, up)
	}
	return offers, nil
}

func (s *bookingService) Quote(ctx context.Context, sessionID string) (*quote.Result, error) {
	cart, co, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	res, _, err := s.quote(ctx, cart, co)
	return res, err
}

func (s *bookingService) quote(ctx context.Context, cart model.Cart, co model.Checkout) (*quote.Result, model.EquipmentIndex, error) {
	items, _, err := s.inventory(ctx, cart, nil)
	if err != nil {
		return nil, nil, err
	}
	categories, err := s.repos.Categories.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list categories: %w", err)
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := s.resolver.Resolve(ctx, co.CouponCode)
	if err != nil {
		return nil, nil, err
	}

	res, err := quote.Build(quote.Input{
		Cart:       cart,
		Checkout:   co,
		Items:      items,
		Categories: categories,
		Settings:   settings,
		Coupon:     resolved,
		Today:      s.clock.today(),
	})
	if err != nil {
		return nil, nil, err
	}
	return &res, items, nil
}

// Place runs the full booking sequence under a per-session lock: validate,
// price, then write every date in one transaction that re-checks stock.
// A booking that was written is never rolled back by a failure to publish
// its event or clear the session.
func (s *bookingService) Place(ctx context.Context, sessionID string) (*Placement, error) {
	if sessionID == "" {
		return nil, model.ErrSessionRequired
	}

	release, err := s.locker.Acquire(ctx, "booking:"+sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	cart, co, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}

	if err := checkout.Validate(cart, co, settings.AnnualDateCount, s.clock.today()); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("checkout rejected")
		return nil, err
	}

	res, items, err := s.quote(ctx, cart, co)
	if err != nil {
		return nil, err
	}
	if len(res.Skipped) > 0 {
		s.logger.Warn().Str("session_id", sessionID).Strs("skipped", res.Skipped).Msg("cart holds unbookable items")
		return nil, model.ErrEquipmentNotFound
	}

	groupID := uuid.New()
	records := quote.Records(*res, co, sessionID, groupID, s.clock.now().UTC())

	verify := func(existing []model.Booking) error {
		for _, date := range res.Dates {
			if !availability.Check(date, cart, items, existing).Available {
				return fmt.Errorf("%w: %s", model.ErrDateUnavailable, date)
			}
		}
		return nil
	}
	if err := s.repos.Bookings.CreateGroup(ctx, records, verify); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("booking not placed")
		return nil, err
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("group_id", groupID.String()).
		Int("dates", len(records)).
		Str("total", res.Total.StringFixed(2)).
		Msg("booking placed successfully")

	if err := s.publisher.BookingPlaced(ctx, records); err != nil {
		s.logger.Error().Err(err).Str("group_id", groupID.String()).Msg("failed to publish booking event")
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear session after booking")
	}

	return &Placement{
		GroupID:  groupID,
		Stage:    checkout.StageBooked,
		Quote:    res,
		Bookings: records,
	}, nil
}

func (s *bookingService) History(ctx context.Context, sessionID string) ([]model.Booking, error) {
	if sessionID == "" {
		return nil, model.ErrSessionRequired
	}
	bookings, err := s.repos.Bookings.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) session(ctx context.Context, sessionID string) (model.Cart, model.Checkout, error) {
	if sessionID == "" {
		return nil, model.Checkout{}, model.ErrSessionRequired
	}
	cart, err := s.sessions.Cart(ctx, sessionID)
	if err != nil {
		return nil, model.Checkout{}, fmt.Errorf("failed to get cart: %w", err)
	}
	co, err := s.sessions.Checkout(ctx, sessionID)
	if err != nil {
		return nil, model.Checkout{}, fmt.Errorf("failed to get checkout: %w", err)
	}
	return cart, co, nil
}

func (s *bookingService) settings(ctx context.Context) (model.Settings, error) {
	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings.WithDefaults(), nil
}

// inventory loads the equipment on lines and, when dates are given, the
// bookings on those dates.
func (s *bookingService) inventory(ctx context.Context, lines model.Cart, dates []string) (model.EquipmentIndex, []model.Booking, error) {
	items, err := s.repos.Equipment.GetByIDs(ctx, lines.ItemIDs())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get equipment: %w", err)
	}
	if len(dates) == 0 {
		return model.IndexEquipment(items), nil, nil
	}

	bookings, err := s.repos.Bookings.ListByDates(ctx, dates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return model.IndexEquipment(items), bookings, nil
}
