package service

import (
	"context"
	"fmt"
	"strings"

	"rental-storefront/internal/catalog"
	"rental-storefront/internal/coupon"
	"rental-storefront/internal/model"
	"rental-storefront/internal/pricing"
	"rental-storefront/internal/repository"

	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	repos    repository.Repositories
	resolver coupon.Resolver
	logger   zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repos repository.Repositories, logger zerolog.Logger) CatalogService {
	return &catalogService{
		repos:    repos,
		resolver: coupon.NewResolver(repos.Coupons, logger),
		logger:   logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListEquipment(ctx context.Context) ([]EquipmentView, error) {
	items, err := s.repos.Equipment.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	categories, err := s.repos.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	views := make([]EquipmentView, len(items))
	for i, item := range items {
		views[i] = viewOf(item, categories)
	}
	return views, nil
}

func (s *catalogService) GetEquipment(ctx context.Context, id string) (*EquipmentView, error) {
	item, err := s.repos.Equipment.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}
	if item == nil {
		return nil, model.ErrEquipmentNotFound
	}
	categories, err := s.repos.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	view := viewOf(*item, categories)
	return &view, nil
}

func viewOf(item model.Equipment, categories []model.Category) EquipmentView {
	view := EquipmentView{
		Equipment: item,
		Promotion: pricing.PromotionEligibility(item, categories),
	}
	if r, ok := pricing.PriceRange(item.PricingTiers); ok {
		view.PriceRange = &r
	}
	if base, ok := pricing.BaseUnitPrice(item.PricingTiers); ok {
		view.BasePrice = &base
	}
	return view
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repos.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) SaveEquipment(ctx context.Context, item *model.Equipment) error {
	item.ID = strings.TrimSpace(item.ID)
	item.Name = strings.TrimSpace(item.Name)
	if item.ID == "" || item.Name == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Equipment ID and name are required")
	}
	if item.TotalQty < 0 {
		s.logger.Warn().Str("equipment_id", item.ID).Int("total_qty", item.TotalQty).Msg("invalid stock")
		return model.ErrInvalidQuantity
	}
	if item.OrderIncrement < 0 {
		return model.ErrInvalidIncrement
	}
	item.PricingTiers = model.NewTiers(item.PricingTiers...)

	if item.CategoryID != nil {
		if *item.CategoryID == "" {
			item.CategoryID = nil
		} else {
			category, err := s.repos.Categories.GetByID(ctx, *item.CategoryID)
			if err != nil {
				return fmt.Errorf("failed to get category: %w", err)
			}
			if category == nil {
				s.logger.Warn().Str("equipment_id", item.ID).Str("category_id", *item.CategoryID).Msg("unknown category")
				return model.ErrCategoryNotFound
			}
		}
	}

	if err := s.repos.Equipment.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save equipment: %w", err)
	}

	s.logger.Info().Str("equipment_id", item.ID).Int("tiers", len(item.PricingTiers)).Msg("equipment saved")
	return nil
}

func (s *catalogService) DeleteEquipment(ctx context.Context, id string) error {
	deleted, err := s.repos.Equipment.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	if !deleted {
		return model.ErrEquipmentNotFound
	}

	s.logger.Info().Str("equipment_id", id).Msg("equipment deleted")
	return nil
}

func (s *catalogService) SaveCategory(ctx context.Context, category *model.Category) error {
	category.ID = strings.TrimSpace(category.ID)
	category.Name = strings.TrimSpace(category.Name)
	if category.ID == "" || category.Name == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Category ID and name are required")
	}

	if err := s.repos.Categories.Save(ctx, category); err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}

	s.logger.Info().Str("category_id", category.ID).Bool("annual_eligible", category.AnnualEligible).Msg("category saved")
	return nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	deleted, err := s.repos.Categories.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if !deleted {
		return model.ErrCategoryNotFound
	}

	s.logger.Info().Str("category_id", id).Msg("category deleted")
	return nil
}

func (s *catalogService) ListCoupons(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.repos.Coupons.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

func (s *catalogService) SaveCoupons(ctx context.Context, coupons []model.Coupon) error {
	for i, c := range coupons {
		if coupon.Normalize(c.Code) == "" || c.Amount.IsNegative() {
			s.logger.Warn().Int("index", i).Str("coupon_code", c.Code).Msg("invalid coupon")
			return model.ErrInvalidCoupon
		}
	}

	if err := s.repos.Coupons.ReplaceAll(ctx, coupons); err != nil {
		return fmt.Errorf("failed to save coupons: %w", err)
	}

	s.logger.Info().Int("count", len(coupons)).Msg("coupons saved")
	return nil
}

func (s *catalogService) CheckCoupon(ctx context.Context, code string) (coupon.Result, error) {
	return s.resolver.Resolve(ctx, code)
}

func (s *catalogService) Settings(ctx context.Context) (model.Settings, error) {
	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

func (s *catalogService) SaveSettings(ctx context.Context, settings model.Settings) error {
	if settings.SameDayFee.IsNegative() || settings.AnnualPromoRate.IsNegative() ||
		settings.AnnualDateCount < 0 || settings.LowStockThreshold < 0 {
		s.logger.Warn().Msg("invalid settings")
		return model.ErrInvalidSettings
	}

	if err := s.repos.Settings.Save(ctx, settings.WithDefaults()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info().Str("same_day_fee", settings.SameDayFee.String()).Msg("settings saved")
	return nil
}

func (s *catalogService) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := catalog.Capture(ctx, s.repos)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to capture snapshot")
		return nil, fmt.Errorf("failed to capture snapshot: %w", err)
	}
	return snap, nil
}
