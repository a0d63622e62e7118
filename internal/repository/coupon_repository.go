package repository

import (
	"context"
	"fmt"

	"rental-storefront/internal/coupon"
	"rental-storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// List returns every coupon ordered by code.
func (r *couponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, discount_type, amount, enabled FROM coupons ORDER BY code`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]model.Coupon, 0)
	for rows.Next() {
		var c model.Coupon
		if err := rows.Scan(&c.Code, &c.Type, &c.Amount, &c.Enabled); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coupon rows")
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// GetByCode returns the coupon or nil when it does not exist.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	code = coupon.Normalize(code)

	var c model.Coupon
	err := r.pool.QueryRow(ctx,
		`SELECT code, discount_type, amount, enabled FROM coupons WHERE code = $1`, code,
	).Scan(&c.Code, &c.Type, &c.Amount, &c.Enabled)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("coupon_code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return &c, nil
}

// ReplaceAll swaps the stored coupon list inside one transaction.
func (r *couponRepository) ReplaceAll(ctx context.Context, coupons []model.Coupon) error {
	book := coupon.BookOf(coupons)

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM coupons`); err != nil {
			return fmt.Errorf("failed to clear coupons: %w", err)
		}

		query := `
			INSERT INTO coupons (code, discount_type, amount, enabled)
			VALUES ($1, $2, $3, $4)
		`

		batch := &pgx.Batch{}
		queued := make([]string, 0, book.Size())
		for _, c := range coupons {
			stored, ok := book.Lookup(c.Code)
			if !ok || containsString(queued, stored.Code) {
				continue
			}
			queued = append(queued, stored.Code)
			batch.Queue(query, stored.Code, string(stored.NormalizedType()), stored.Amount, stored.Enabled)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for _, code := range queued {
			if _, err := results.Exec(); err != nil {
				r.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to insert coupon")
				return fmt.Errorf("failed to insert coupon %s: %w", code, err)
			}
		}
		return results.Close()
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to replace coupons")
		return fmt.Errorf("failed to replace coupons: %w", err)
	}

	r.logger.Info().Int("count", book.Size()).Msg("coupons replaced")
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
