package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rental-storefront/internal/coupon"
	"rental-storefront/internal/model"

	"github.com/rs/zerolog"
)

// memoryStore holds every entity for mock mode behind one lock, so
// cross-entity rules (detaching equipment from a deleted category) stay
// consistent.
type memoryStore struct {
	mu         sync.RWMutex
	equipment  map[string]model.Equipment
	categories map[string]model.Category
	coupons    []model.Coupon
	couponBook coupon.Book
	settings   *model.Settings
	bookings   []model.Booking
	now        func() time.Time
}

// NewMemoryRepositories returns in-memory implementations of every
// repository sharing one store.
func NewMemoryRepositories(logger zerolog.Logger) Repositories {
	s := &memoryStore{
		equipment:  make(map[string]model.Equipment),
		categories: make(map[string]model.Category),
		couponBook: coupon.BookOf(nil),
		now:        time.Now,
	}
	return Repositories{
		Equipment:  &memoryEquipment{store: s, logger: logger.With().Str("repository", "memory-equipment").Logger()},
		Categories: &memoryCategories{store: s, logger: logger.With().Str("repository", "memory-category").Logger()},
		Coupons:    &memoryCoupons{store: s, logger: logger.With().Str("repository", "memory-coupon").Logger()},
		Settings:   &memorySettings{store: s, logger: logger.With().Str("repository", "memory-settings").Logger()},
		Bookings:   &memoryBookings{store: s, logger: logger.With().Str("repository", "memory-booking").Logger()},
	}
}

type memoryEquipment struct {
	store  *memoryStore
	logger zerolog.Logger
}

func (r *memoryEquipment) List(_ context.Context) ([]model.Equipment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := make([]model.Equipment, 0, len(r.store.equipment))
	for _, item := range r.store.equipment {
		items = append(items, cloneEquipment(item))
	}
	sortEquipment(items)
	return items, nil
}

func (r *memoryEquipment) GetByID(_ context.Context, id string) (*model.Equipment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.equipment[id]
	if !ok {
		r.logger.Debug().Str("equipment_id", id).Msg("equipment not found")
		return nil, nil
	}
	item = cloneEquipment(item)
	return &item, nil
}

func (r *memoryEquipment) GetByIDs(_ context.Context, ids []string) ([]model.Equipment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := make([]model.Equipment, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := r.store.equipment[id]; ok {
			items = append(items, cloneEquipment(item))
		}
	}
	sortEquipment(items)
	return items, nil
}

func (r *memoryEquipment) Save(_ context.Context, item *model.Equipment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.now()
	if existing, ok := r.store.equipment[item.ID]; ok {
		item.CreatedAt = existing.CreatedAt
	} else {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	item.TotalQty = item.Stock()
	item.OrderIncrement = item.Increment()
	if item.CategoryID != nil {
		if _, ok := r.store.categories[*item.CategoryID]; !ok {
			item.CategoryID = nil
		}
	}

	r.store.equipment[item.ID] = cloneEquipment(*item)
	r.logger.Debug().Str("equipment_id", item.ID).Msg("equipment saved")
	return nil
}

func (r *memoryEquipment) Delete(_ context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, ok := r.store.equipment[id]
	delete(r.store.equipment, id)
	return ok, nil
}

type memoryCategories struct {
	store  *memoryStore
	logger zerolog.Logger
}

func (r *memoryCategories) List(_ context.Context) ([]model.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	categories := make([]model.Category, 0, len(r.store.categories))
	for _, c := range r.store.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].SortOrder != categories[j].SortOrder {
			return categories[i].SortOrder < categories[j].SortOrder
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (r *memoryCategories) GetByID(_ context.Context, id string) (*model.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.categories[id]
	if !ok {
		r.logger.Debug().Str("category_id", id).Msg("category not found")
		return nil, nil
	}
	return &c, nil
}

func (r *memoryCategories) Save(_ context.Context, c *model.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.categories[c.ID] = *c
	r.logger.Debug().Str("category_id", c.ID).Msg("category saved")
	return nil
}

func (r *memoryCategories) Delete(_ context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.categories[id]; !ok {
		return false, nil
	}
	delete(r.store.categories, id)

	detached := 0
	for key, item := range r.store.equipment {
		if item.CategoryID != nil && *item.CategoryID == id {
			item.CategoryID = nil
			r.store.equipment[key] = item
			detached++
		}
	}
	r.logger.Debug().Str("category_id", id).Int("detached", detached).Msg("category deleted")
	return true, nil
}

type memoryCoupons struct {
	store  *memoryStore
	logger zerolog.Logger
}

func (r *memoryCoupons) List(_ context.Context) ([]model.Coupon, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]model.Coupon, len(r.store.coupons))
	copy(out, r.store.coupons)
	return out, nil
}

func (r *memoryCoupons) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.couponBook.Lookup(code)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memoryCoupons) ReplaceAll(_ context.Context, coupons []model.Coupon) error {
	book := coupon.BookOf(coupons)

	list := make([]model.Coupon, 0, book.Size())
	for _, c := range coupons {
		stored, ok := book.Lookup(c.Code)
		if !ok {
			continue
		}
		stored.Type = stored.NormalizedType()
		if !containsCode(list, stored.Code) {
			list = append(list, stored)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.coupons = list
	r.store.couponBook = coupon.BookOf(list)
	r.logger.Info().Int("count", len(list)).Msg("coupons replaced")
	return nil
}

func containsCode(list []model.Coupon, code string) bool {
	for _, c := range list {
		if c.Code == code {
			return true
		}
	}
	return false
}

type memorySettings struct {
	store  *memoryStore
	logger zerolog.Logger
}

func (r *memorySettings) Get(_ context.Context) (model.Settings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if r.store.settings == nil {
		return model.DefaultSettings(), nil
	}
	return *r.store.settings, nil
}

func (r *memorySettings) Save(_ context.Context, s model.Settings) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s = s.WithDefaults()
	r.store.settings = &s
	r.logger.Info().Msg("settings saved")
	return nil
}

type memoryBookings struct {
	store  *memoryStore
	logger zerolog.Logger
}

func (r *memoryBookings) List(_ context.Context) ([]model.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return newestFirst(r.filter(func(model.Booking) bool { return true })), nil
}

func (r *memoryBookings) ListByDates(_ context.Context, dates []string) ([]model.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.onDates(dates), nil
}

func (r *memoryBookings) ListBySession(_ context.Context, sessionID string) ([]model.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return newestFirst(r.filter(func(b model.Booking) bool { return b.SessionID == sessionID })), nil
}

// CreateGroup holds the store's write lock across verify and append.
func (r *memoryBookings) CreateGroup(_ context.Context, records []model.Booking, verify VerifyFunc) error {
	if len(records) == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if verify != nil {
		if err := verify(r.onDates(distinctDates(records))); err != nil {
			r.logger.Warn().Err(err).Str("group_id", records[0].GroupID.String()).Msg("booking group not written")
			return err
		}
	}

	for _, b := range records {
		r.store.bookings = append(r.store.bookings, cloneBooking(b))
	}
	r.logger.Debug().
		Str("group_id", records[0].GroupID.String()).
		Int("records", len(records)).
		Msg("booking group created successfully")
	return nil
}

func (r *memoryBookings) onDates(dates []string) []model.Booking {
	wanted := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		wanted[d] = struct{}{}
	}
	return r.filter(func(b model.Booking) bool {
		_, ok := wanted[b.Date]
		return ok
	})
}

// filter must be called with the store lock held.
func (r *memoryBookings) filter(keep func(model.Booking) bool) []model.Booking {
	out := make([]model.Booking, 0)
	for _, b := range r.store.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func newestFirst(bookings []model.Booking) []model.Booking {
	sort.SliceStable(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
		}
		if bookings[i].GroupID != bookings[j].GroupID {
			return strings.Compare(bookings[i].GroupID.String(), bookings[j].GroupID.String()) < 0
		}
		return bookings[i].Sequence < bookings[j].Sequence
	})
	return bookings
}

func sortEquipment(items []model.Equipment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
}

func cloneEquipment(item model.Equipment) model.Equipment {
	if item.PricingTiers != nil {
		item.PricingTiers = append(model.Tiers(nil), item.PricingTiers...)
	}
	if item.CategoryID != nil {
		id := *item.CategoryID
		item.CategoryID = &id
	}
	return item
}

func cloneBooking(b model.Booking) model.Booking {
	if b.Items != nil {
		items := make(map[string]int, len(b.Items))
		for k, v := range b.Items {
			items[k] = v
		}
		b.Items = items
	}
	if b.CouponCode != nil {
		code := *b.CouponCode
		b.CouponCode = &code
	}
	return b
}
