package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates every table the storefront uses. It is idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		annual_eligible BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS equipment (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
		legacy_category TEXT NOT NULL DEFAULT '',
		total_qty INTEGER NOT NULL DEFAULT 0 CHECK (total_qty >= 0),
		order_increment INTEGER NOT NULL DEFAULT 0 CHECK (order_increment >= 0),
		pricing_tiers JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_equipment_category ON equipment(category_id);

	CREATE TABLE IF NOT EXISTS coupons (
		code TEXT PRIMARY KEY CHECK (code = UPPER(code)),
		discount_type TEXT NOT NULL CHECK (discount_type IN ('percent', 'amount')),
		amount NUMERIC(12,4) NOT NULL CHECK (amount >= 0),
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS settings (
		id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		same_day_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
		annual_promo_rate NUMERIC(12,4) NOT NULL DEFAULT 0.75,
		annual_date_count INTEGER NOT NULL DEFAULT 5,
		low_stock_threshold INTEGER NOT NULL DEFAULT 5
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		group_id UUID NOT NULL,
		sequence INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		booking_date TEXT NOT NULL CHECK (booking_date ~ '^[0-9]{4}-[0-9]{2}-[0-9]{2}$'),
		delivery_time TEXT NOT NULL DEFAULT '',
		pickup_time TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		items JSONB NOT NULL,
		coupon_code TEXT,
		annual BOOLEAN NOT NULL DEFAULT FALSE,
		normal_total NUMERIC(12,2),
		promo_total NUMERIC(12,2),
		same_day_fee NUMERIC(12,2),
		discount NUMERIC(12,2),
		total NUMERIC(12,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (group_id, sequence)
	);
	CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(booking_date);
	CREATE INDEX IF NOT EXISTS idx_bookings_session ON bookings(session_id, created_at DESC);
`

// EnsureSchema applies Schema to the database.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
