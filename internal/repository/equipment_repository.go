package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"rental-storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const equipmentColumns = `id, name, description, image_url, category_id, legacy_category,
	total_qty, order_increment, pricing_tiers, created_at, updated_at`

// equipmentRepository implements the EquipmentRepository interface using PostgreSQL.
type equipmentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewEquipmentRepository creates a new PostgreSQL-backed equipment repository.
func NewEquipmentRepository(pool *pgxpool.Pool, logger zerolog.Logger) EquipmentRepository {
	return &equipmentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "equipment").Logger(),
	}
}

// List returns every item ordered by name.
func (r *equipmentRepository) List(ctx context.Context) ([]model.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query equipment")
		return nil, fmt.Errorf("failed to query equipment: %w", err)
	}
	return r.collect(rows)
}

// GetByID returns the item or nil when it does not exist.
func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*model.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`

	item, err := scanEquipment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("equipment_id", id).Msg("equipment not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("equipment_id", id).Msg("failed to query equipment item")
		return nil, fmt.Errorf("failed to query equipment item: %w", err)
	}
	return &item, nil
}

// GetByIDs returns the items that exist among ids.
func (r *equipmentRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Equipment, error) {
	if len(ids) == 0 {
		return []model.Equipment{}, nil
	}

	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = ANY($1) ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query equipment by IDs")
		return nil, fmt.Errorf("failed to query equipment by IDs: %w", err)
	}
	return r.collect(rows)
}

// Save inserts or replaces the item. Timestamps are set by the database.
func (r *equipmentRepository) Save(ctx context.Context, item *model.Equipment) error {
	tiers, err := json.Marshal(item.PricingTiers)
	if err != nil {
		return fmt.Errorf("failed to encode pricing tiers: %w", err)
	}

	query := `
		INSERT INTO equipment (id, name, description, image_url, category_id, legacy_category,
			total_qty, order_increment, pricing_tiers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			category_id = EXCLUDED.category_id,
			legacy_category = EXCLUDED.legacy_category,
			total_qty = EXCLUDED.total_qty,
			order_increment = EXCLUDED.order_increment,
			pricing_tiers = EXCLUDED.pricing_tiers,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.ImageURL,
		item.CategoryID,
		item.LegacyCategory,
		item.Stock(),
		item.Increment(),
		tiers,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("equipment_id", item.ID).Msg("failed to save equipment")
		return fmt.Errorf("failed to save equipment: %w", err)
	}

	r.logger.Debug().Str("equipment_id", item.ID).Msg("equipment saved")
	return nil
}

// Delete removes the item and reports whether it existed.
func (r *equipmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("equipment_id", id).Msg("failed to delete equipment")
		return false, fmt.Errorf("failed to delete equipment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *equipmentRepository) collect(rows pgx.Rows) ([]model.Equipment, error) {
	defer rows.Close()

	items := make([]model.Equipment, 0)
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan equipment row")
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating equipment rows")
		return nil, fmt.Errorf("error iterating equipment: %w", err)
	}

	return items, nil
}

// scanEquipment reads one row in equipmentColumns order and normalises the
// stored price schedule.
func scanEquipment(row pgx.Row) (model.Equipment, error) {
	var (
		item  model.Equipment
		tiers []byte
	)
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.ImageURL,
		&item.CategoryID,
		&item.LegacyCategory,
		&item.TotalQty,
		&item.OrderIncrement,
		&tiers,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return model.Equipment{}, err
	}
	item.PricingTiers = model.ParseTiers(tiers)
	return item, nil
}
