package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"rental-storefront/internal/model"
	"rental-storefront/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SessionHeader carries the shopper's opaque session ID.
const SessionHeader = "X-Session-ID"

const maxBodyBytes = 1 << 20

// ExecRequest is the body of POST /api/exec.
type ExecRequest struct {
	Action  string          `json:"action" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type action func(ctx context.Context, sessionID string, payload json.RawMessage) (response, error)

// Facade dispatches storefront and admin actions behind a single endpoint.
type Facade struct {
	catalog  service.CatalogService
	carts    service.CartService
	bookings service.BookingService
	validate *validator.Validate
	actions  map[string]action
	logger   zerolog.Logger
}

// NewFacade creates a new facade handler.
func NewFacade(
	catalog service.CatalogService,
	carts service.CartService,
	bookings service.BookingService,
	logger zerolog.Logger,
) *Facade {
	f := &Facade{
		catalog:  catalog,
		carts:    carts,
		bookings: bookings,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("handler", "facade").Logger(),
	}
	f.actions = map[string]action{
		"equipment.list":        f.listEquipment,
		"equipment.get":         f.getEquipment,
		"category.list":         f.listCategories,
		"availability.check":    f.checkAvailability,
		"availability.calendar": f.calendar,
		"cart.get":              f.getCart,
		"cart.set":              f.setCart,
		"checkout.get":          f.getCheckout,
		"checkout.set":          f.setCheckout,
		"upsell.list":           f.upsell,
		"coupon.check":          f.checkCoupon,
		"booking.quote":         f.quote,
		"booking.create":        f.createBooking,
		"booking.my":            f.myBookings,
		"admin.snapshot":        f.snapshot,
		"admin.saveCoupons":     f.saveCoupons,
		"admin.saveEquipment":   f.saveEquipment,
		"admin.deleteEquipment": f.deleteEquipment,
		"admin.saveCategory":    f.saveCategory,
		"admin.deleteCategory":  f.deleteCategory,
		"admin.saveSettings":    f.saveSettings,
	}
	return f
}

// Actions returns the number of registered actions.
func (f *Facade) Actions() int {
	return len(f.actions)
}

// Exec handles POST /api/exec requests.
func (f *Facade) Exec(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewDomainError(model.ErrCodeInvalidJSON, "Invalid request body"), f.logger)
		return
	}
	if err := f.validate.Struct(req); err != nil {
		writeError(w, err, f.logger)
		return
	}

	logger := f.logger.With().Str("action", req.Action).Logger()
	act, ok := f.actions[req.Action]
	if !ok {
		writeError(w, model.ErrUnknownAction, logger)
		return
	}

	sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
	res, err := act(r.Context(), sessionID, req.Payload)
	if err != nil {
		writeError(w, err, logger)
		return
	}

	logger.Debug().Str("session_id", sessionID).Msg("action completed")
	writeOK(w, res)
}

// decode unmarshals payload into dst and validates it. A missing payload
// decodes as an empty object.
func (f *Facade) decode(payload json.RawMessage, dst any) error {
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Invalid payload")
	}
	return f.validate.Struct(dst)
}

type idPayload struct {
	ID string `json:"id" validate:"required"`
}

type availabilityPayload struct {
	Date  string     `json:"date" validate:"required,datetime=2006-01-02"`
	Items model.Cart `json:"items" validate:"dive"`
}

type calendarPayload struct {
	Dates []string   `json:"dates" validate:"required,min=1,max=366,dive,datetime=2006-01-02"`
	Items model.Cart `json:"items" validate:"dive"`
}

// cartPayload either replaces the cart (items) or sets one line (id, qty).
type cartPayload struct {
	Items model.Cart `json:"items" validate:"omitempty,dive"`
	ID    string     `json:"id" validate:"required_without=Items"`
	Qty   int        `json:"qty"`
}

type couponPayload struct {
	Code string `json:"code"`
}

type couponsPayload struct {
	Coupons []model.Coupon `json:"coupons" validate:"dive"`
}

func (f *Facade) listEquipment(ctx context.Context, _ string, _ json.RawMessage) (response, error) {
	views, err := f.catalog.ListEquipment(ctx)
	if err != nil {
		return nil, err
	}
	return response{"equipment": views}, nil
}

func (f *Facade) getEquipment(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var p idPayload
	if err := f.decode(payload, &p); err != nil {
		return nil, err
	}
	view, err := f.catalog.GetEquipment(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return response{"equipment": view}, nil
}

func (f *Facade) listCategories(ctx context.Context, _ string, _ json.RawMessage) (response, error) {
	categories, err := f.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return response{"categories": categories}, nil
}

func (f *Facade) checkAvailability(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var p availabilityPayload
	if err := f.decode(payload, &p); err != nil {
		return nil, err
	}
	view, err := f.bookings.Availability(ctx, p.Date, p.Items)
	if err != nil {
		return nil, err
	}
	return response{"availability": view}, nil
}

func (f *Facade) calendar(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var p calendarPayload
	if err := f.decode(payload, &p); err != nil {
		return nil, err
	}
	unavailable, err := f.bookings.Calendar(ctx, p.Dates, p.Items)
	if err != nil {
		return nil, err
	}
	return response{"unavailable": unavailable}, nil
}

func (f *Facade) getCart(ctx context.Context, sessionID string, _ json.RawMessage) (response, error) {
	cart, err := f.carts.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return response{"cart": nonNil(cart)}, nil
}

func (f *Facade) setCart(ctx context.Context, sessionID string, payload json.RawMessage) (response, error) {
	var p cartPayload
	if err := f.decode(payload, &p); err != nil {
		return nil, err
	}

	var (
		cart model.Cart
		err  error
	)
	if p.Items != nil {
		cart, err = f.carts.SetCart(ctx, sessionID, p.Items)
	} else {
		cart, err = f.carts.SetLine(ctx, sessionID, p.ID, p.Qty)
	}
	if err != nil {
		return nil, err
	}
	return response{"cart": nonNil(cart)}, nil
}

func (f *Facade) getCheckout(ctx context.Context, sessionID string, _ json.RawMessage) (response, error) {
	state, err := f.carts.Checkout(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return response{"checkout": state}, nil
}

func (f *Facade) setCheckout(ctx context.Context, sessionID string, payload json.RawMessage) (response, error) {
	var co model.Checkout
	if err := f.decode(payload, &co); err != nil {
		return nil, err
	}
	state, err := f.carts.SetCheckout(ctx, sessionID, co)
	if err != nil {
		return nil, err
	}
	return response{"checkout": state}, nil
}

func (f *Facade) upsell(ctx context.Context, sessionID string, _ json.RawMessage) (response, error) {
	offers, err := f.bookings.Upsell(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return response{"offers": offers}, nil
}

func (f *Facade) checkCoupon(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var p couponPayload
	if err := f.decode(payload, &p); err != nil {
		return nil, err
	}
	res, err := f.catalog.CheckCoupon(ctx, p.Code)
	if err != nil {
		return nil, err
	}
	return response{"coupon": res}, nil
}

func (f *Facade) quote(ctx context.Context, sessionID string, _ json.RawMessage) (response, error) {
	res, err := f.bookings.Quote(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return response{"quote": res}, nil
}

func (f *Facade) createBooking(ctx context.Context, sessionID string, _ json.RawMessage) (response, error) {
	placement, err := f.bookings.Place(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return response{"booking": placement}, nil
}

func (f *Facade) myBookings(ctx context.Context, sessionID string, _ json.RawMessage) (response, error) {
	bookings, err := f.bookings.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return response{"bookings": bookings}, nil
}

func (f *Facade) snapshot(ctx context.Context, _ string, _ json.RawMessage) (response, error) {
	snap, err := f.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return response{"snapshot": snap}, nil
}

func (f *Facade) saveCoupons(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var p couponsPayload
	if err := f.decode(payload, &p); err != nil {
		return nil, err
	}
	if err := f.catalog.SaveCoupons(ctx, p.Coupons); err != nil {
		return nil, err
	}
	coupons, err := f.catalog.ListCoupons(ctx)
	if err != nil {
		return nil, err
	}
	return response{"coupons": coupons}, nil
}

func (f *Facade) saveEquipment(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var item model.Equipment
	if err := f.decode(payload, &item); err != nil {
		return nil, err
	}
	if err := f.catalog.SaveEquipment(ctx, &item); err != nil {
		return nil, err
	}
	return response{"equipment": item}, nil
}

func (f *Facade) deleteEquipment(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var p idPayload
	if err := f.decode(payload, &p); err != nil {
		return nil, err
	}
	if err := f.catalog.DeleteEquipment(ctx, p.ID); err != nil {
		return nil, err
	}
	return response{"deleted": p.ID}, nil
}

func (f *Facade) saveCategory(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var c model.Category
	if err := f.decode(payload, &c); err != nil {
		return nil, err
	}
	if err := f.catalog.SaveCategory(ctx, &c); err != nil {
		return nil, err
	}
	return response{"category": c}, nil
}

func (f *Facade) deleteCategory(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var p idPayload
	if err := f.decode(payload, &p); err != nil {
		return nil, err
	}
	if err := f.catalog.DeleteCategory(ctx, p.ID); err != nil {
		return nil, err
	}
	return response{"deleted": p.ID}, nil
}

func (f *Facade) saveSettings(ctx context.Context, _ string, payload json.RawMessage) (response, error) {
	var s model.Settings
	if err := f.decode(payload, &s); err != nil {
		return nil, err
	}
	if err := f.catalog.SaveSettings(ctx, s); err != nil {
		return nil, err
	}
	saved, err := f.catalog.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return response{"settings": saved}, nil
}

func nonNil(cart model.Cart) model.Cart {
	if cart == nil {
		return model.Cart{}
	}
	return cart
}
