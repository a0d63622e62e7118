package repository

import (
	"context"
	"fmt"

	"rental-storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// categoryRepository implements the CategoryRepository interface using PostgreSQL.
type categoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) CategoryRepository {
	return &categoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "category").Logger(),
	}
}

// List returns every category by sort order, then name.
func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	query := `
		SELECT id, name, annual_eligible, sort_order
		FROM categories
		ORDER BY sort_order, name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.AnnualEligible, &c.SortOrder); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category row")
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating category rows")
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetByID returns the category or nil when it does not exist.
func (r *categoryRepository) GetByID(ctx context.Context, id string) (*model.Category, error) {
	query := `SELECT id, name, annual_eligible, sort_order FROM categories WHERE id = $1`

	var c model.Category
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.AnnualEligible, &c.SortOrder)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("category_id", id).Msg("category not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("category_id", id).Msg("failed to query category")
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &c, nil
}

// Save inserts or replaces the category.
func (r *categoryRepository) Save(ctx context.Context, c *model.Category) error {
	query := `
		INSERT INTO categories (id, name, annual_eligible, sort_order)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			annual_eligible = EXCLUDED.annual_eligible,
			sort_order = EXCLUDED.sort_order
	`

	if _, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.AnnualEligible, c.SortOrder); err != nil {
		r.logger.Error().Err(err).Str("category_id", c.ID).Msg("failed to save category")
		return fmt.Errorf("failed to save category: %w", err)
	}

	r.logger.Debug().Str("category_id", c.ID).Msg("category saved")
	return nil
}

// Delete removes the category. The foreign key sets category_id to NULL on
// the equipment that referenced it.
func (r *categoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("category_id", id).Msg("failed to delete category")
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
