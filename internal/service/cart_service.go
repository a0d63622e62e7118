package service

import (
	"context"
	"fmt"
	"time"

	"rental-storefront/internal/checkout"
	"rental-storefront/internal/coupon"
	"rental-storefront/internal/model"
	"rental-storefront/internal/repository"
	"rental-storefront/internal/session"

	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	repos    repository.Repositories
	sessions session.Store
	clock    clock
	logger   zerolog.Logger
}

// NewCartService creates a new cart service. loc is the store's time zone.
func NewCartService(repos repository.Repositories, sessions session.Store, loc *time.Location, logger zerolog.Logger) CartService {
	return &cartService{
		repos:    repos,
		sessions: sessions,
		clock:    newClock(loc),
		logger:   logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) Cart(ctx context.Context, sessionID string) (model.Cart, error) {
	if sessionID == "" {
		return nil, model.ErrSessionRequired
	}
	cart, err := s.sessions.Cart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) SetLine(ctx context.Context, sessionID, itemID string, qty int) (model.Cart, error) {
	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if qty != 0 {
		if err := s.validateLines(ctx, model.Cart{{ItemID: itemID, Qty: qty}}); err != nil {
			return nil, err
		}
	}

	cart = cart.Set(itemID, qty)
	if err := s.sessions.SetCart(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Debug().Str("session_id", sessionID).Str("item_id", itemID).Int("qty", qty).Msg("cart line set")
	return cart, nil
}

func (s *cartService) SetCart(ctx context.Context, sessionID string, cart model.Cart) (model.Cart, error) {
	if sessionID == "" {
		return nil, model.ErrSessionRequired
	}
	for _, line := range cart {
		if line.Qty < 0 {
			return nil, model.ErrInvalidQuantity
		}
	}

	cart = cart.Compact()
	if err := s.validateLines(ctx, cart); err != nil {
		return nil, err
	}

	if err := s.sessions.SetCart(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Debug().Str("session_id", sessionID).Int("lines", len(cart)).Msg("cart replaced")
	return cart, nil
}

// validateLines applies the order increment and stock rules to every line.
func (s *cartService) validateLines(ctx context.Context, lines model.Cart) error {
	if len(lines) == 0 {
		return nil
	}

	items, err := s.repos.Equipment.GetByIDs(ctx, lines.ItemIDs())
	if err != nil {
		return fmt.Errorf("failed to get equipment: %w", err)
	}
	index := model.IndexEquipment(items)

	for _, line := range lines {
		item, ok := index[line.ItemID]
		if !ok {
			s.logger.Warn().Str("item_id", line.ItemID).Msg("cart line for unknown equipment")
			return model.ErrEquipmentNotFound
		}
		if line.Qty < 0 || line.Qty > item.Stock() {
			s.logger.Warn().Str("item_id", line.ItemID).Int("qty", line.Qty).Int("stock", item.Stock()).Msg("quantity out of range")
			return model.ErrInvalidQuantity
		}
		if inc := item.Increment(); inc > 0 && line.Qty%inc != 0 {
			s.logger.Warn().Str("item_id", line.ItemID).Int("qty", line.Qty).Int("increment", inc).Msg("quantity off increment")
			return model.ErrInvalidIncrement
		}
	}
	return nil
}

func (s *cartService) Checkout(ctx context.Context, sessionID string) (*CheckoutState, error) {
	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	co, err := s.sessions.Checkout(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout: %w", err)
	}
	return s.stateOf(ctx, cart, co)
}

func (s *cartService) SetCheckout(ctx context.Context, sessionID string, co model.Checkout) (*CheckoutState, error) {
	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if co.Annual && co.Guest {
		return nil, model.ErrAnnualNotAllowed
	}
	for _, d := range append([]string{co.Date}, co.Dates...) {
		if d != "" && !checkout.ValidDate(d) {
			s.logger.Warn().Str("session_id", sessionID).Str("date", d).Msg("malformed checkout date")
			return nil, model.ErrInvalidDate
		}
	}
	co.CouponCode = coupon.Normalize(co.CouponCode)

	if err := s.sessions.SetCheckout(ctx, sessionID, co); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	return s.stateOf(ctx, cart, co)
}

func (s *cartService) stateOf(ctx context.Context, cart model.Cart, co model.Checkout) (*CheckoutState, error) {
	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	settings = settings.WithDefaults()

	stage := checkout.StageOf(cart, co, settings.AnnualDateCount, s.clock.today())
	state := &CheckoutState{
		Checkout: co,
		Stage:    stage,
		Step:     checkout.Gate(stage, checkout.StepReview),
	}

	if co.Annual && len(co.Dates) > 0 && len(co.Dates) < settings.AnnualDateCount {
		if w, err := checkout.AnnualWindow(co.Dates[len(co.Dates)-1]); err == nil {
			state.NextWindow = &w
		}
	}
	return state, nil
}
