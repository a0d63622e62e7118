package database

import (
	"context"
	"fmt"
	"time"

	"rental-storefront/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	return newPool(ctx, cfg.ConnectionString(), poolLimits{
		maxConns:        int32(cfg.MaxConnections),
		minConns:        int32(cfg.MinConnections),
		maxConnLifetime: time.Duration(cfg.MaxConnLifetime) * time.Second,
	}, logger.With().Str("host", cfg.Host).Str("database", cfg.Database).Logger())
}

type poolLimits struct {
	maxConns        int32
	minConns        int32
	maxConnLifetime time.Duration
}

// newPool creates a pool from a connection URL. Zero limits keep the
// pgx defaults.
func newPool(ctx context.Context, connString string, limits poolLimits, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if limits.maxConns > 0 {
		poolConfig.MaxConns = limits.maxConns
	}
	if limits.minConns > 0 {
		poolConfig.MinConns = limits.minConns
	}
	if limits.maxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = limits.maxConnLifetime
	}
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	logger.Info().
		Int32("max_connections", poolConfig.MaxConns).
		Int32("min_connections", poolConfig.MinConns).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created successfully")

	return pool, nil
}
