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

const bookingColumns = `id, group_id, sequence, session_id, booking_date, delivery_time, pickup_time,
	address, items, coupon_code, annual, normal_total, promo_total, same_day_fee, discount, total, created_at`

// bookingRepository implements the BookingRepository interface using PostgreSQL.
type bookingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewBookingRepository creates a new PostgreSQL-backed booking repository.
func NewBookingRepository(pool *pgxpool.Pool, logger zerolog.Logger) BookingRepository {
	return &bookingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "booking").Logger(),
	}
}

// List returns every booking, newest first.
func (r *bookingRepository) List(ctx context.Context) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, group_id, sequence`
	return r.query(ctx, r.pool, query)
}

// ListByDates returns the bookings on any of dates.
func (r *bookingRepository) ListByDates(ctx context.Context, dates []string) ([]model.Booking, error) {
	if len(dates) == 0 {
		return []model.Booking{}, nil
	}
	return r.query(ctx, r.pool, selectBookingsByDates, dates)
}

// ListBySession returns the bookings a session placed, newest first.
func (r *bookingRepository) ListBySession(ctx context.Context, sessionID string) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE session_id = $1 ORDER BY created_at DESC, group_id, sequence`
	return r.query(ctx, r.pool, query, sessionID)
}

const selectBookingsByDates = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_date = ANY($1) ORDER BY booking_date, created_at`

// CreateGroup writes records in one transaction. It first takes a
// transaction-scoped advisory lock per date, in sorted order, so two
// placements touching the same date serialise on the verify step.
func (r *bookingRepository) CreateGroup(ctx context.Context, records []model.Booking, verify VerifyFunc) error {
	if len(records) == 0 {
		return nil
	}
	dates := distinctDates(records)
	groupID := records[0].GroupID.String()

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, date := range dates {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('bookings'), hashtext($1))`, date); err != nil {
				return fmt.Errorf("failed to lock booking date %s: %w", date, err)
			}
		}

		if verify != nil {
			existing, err := r.query(ctx, tx, selectBookingsByDates, dates)
			if err != nil {
				return err
			}
			if err := verify(existing); err != nil {
				return err
			}
		}

		return r.insert(ctx, tx, records)
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("group_id", groupID).Strs("dates", dates).Msg("booking group not written")
		return err
	}

	r.logger.Debug().
		Str("group_id", groupID).
		Int("records", len(records)).
		Msg("booking group created successfully")
	return nil
}

func (r *bookingRepository) insert(ctx context.Context, tx pgx.Tx, records []model.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	batch := &pgx.Batch{}
	for _, b := range records {
		items, err := json.Marshal(b.Items)
		if err != nil {
			return fmt.Errorf("failed to encode booking items: %w", err)
		}
		batch.Queue(query,
			b.ID, b.GroupID, b.Sequence, b.SessionID, b.Date, b.Delivery, b.Pickup,
			b.Address, items, b.CouponCode, b.Annual,
			b.NormalTotal, b.PromoTotal, b.SameDayFee, b.Discount, b.Total, b.CreatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("booking_id", records[i].ID.String()).
				Str("date", records[i].Date).
				Msg("failed to create booking")
			return fmt.Errorf("failed to create booking: %w", err)
		}
	}
	return results.Close()
}

func (r *bookingRepository) query(ctx context.Context, q querier, sql string, args ...any) ([]model.Booking, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query bookings")
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var (
			b     model.Booking
			items []byte
		)
		err := rows.Scan(
			&b.ID, &b.GroupID, &b.Sequence, &b.SessionID, &b.Date, &b.Delivery, &b.Pickup,
			&b.Address, &items, &b.CouponCode, &b.Annual,
			&b.NormalTotal, &b.PromoTotal, &b.SameDayFee, &b.Discount, &b.Total, &b.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan booking row")
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if err := json.Unmarshal(items, &b.Items); err != nil {
			r.logger.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to decode booking items")
			return nil, fmt.Errorf("failed to decode booking items: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating booking rows")
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}
