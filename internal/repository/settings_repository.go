package repository

import (
	"context"
	"fmt"

	"rental-storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// settingsRepository implements the SettingsRepository interface using a
// single-row PostgreSQL table.
type settingsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(pool *pgxpool.Pool, logger zerolog.Logger) SettingsRepository {
	return &settingsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "settings").Logger(),
	}
}

// Get returns the stored settings, or the defaults when none are stored.
func (r *settingsRepository) Get(ctx context.Context) (model.Settings, error) {
	query := `
		SELECT same_day_fee, annual_promo_rate, annual_date_count, low_stock_threshold
		FROM settings
		WHERE id = 1
	`

	var s model.Settings
	err := r.pool.QueryRow(ctx, query).Scan(&s.SameDayFee, &s.AnnualPromoRate, &s.AnnualDateCount, &s.LowStockThreshold)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Msg("no stored settings, using defaults")
			return model.DefaultSettings(), nil
		}
		r.logger.Error().Err(err).Msg("failed to query settings")
		return model.Settings{}, fmt.Errorf("failed to query settings: %w", err)
	}
	return s.WithDefaults(), nil
}

// Save replaces the stored settings.
func (r *settingsRepository) Save(ctx context.Context, s model.Settings) error {
	s = s.WithDefaults()

	query := `
		INSERT INTO settings (id, same_day_fee, annual_promo_rate, annual_date_count, low_stock_threshold)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			same_day_fee = EXCLUDED.same_day_fee,
			annual_promo_rate = EXCLUDED.annual_promo_rate,
			annual_date_count = EXCLUDED.annual_date_count,
			low_stock_threshold = EXCLUDED.low_stock_threshold
	`

	if _, err := r.pool.Exec(ctx, query, s.SameDayFee, s.AnnualPromoRate, s.AnnualDateCount, s.LowStockThreshold); err != nil {
		r.logger.Error().Err(err).Msg("failed to save settings")
		return fmt.Errorf("failed to save settings: %w", err)
	}

	r.logger.Info().Msg("settings saved")
	return nil
}
