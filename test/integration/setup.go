package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"rental-storefront/internal/catalog"
	"rental-storefront/internal/database"
	"rental-storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the storefront schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// seedSnapshot is a small store: tiered chairs in an annual-eligible
// category and flat-priced tables.
const seedSnapshot = `{
	"categories": [
		{"id": "seating", "name": "Seating", "annualEligible": true},
		{"id": "tables", "name": "Tables", "sortOrder": 1}
	],
	"equipment": [
		{"id": "chair", "name": "Folding Chair", "categoryId": "seating", "totalQty": 500, "orderIncrement": 10,
		 "pricingTiers": [{"minQty": 10, "priceEach": 1.9}, {"minQty": 20, "priceEach": 1.8}, {"minQty": 50, "priceEach": 1.5}, {"minQty": 100, "priceEach": 1.0}]},
		{"id": "table", "name": "Banquet Table", "categoryId": "tables", "totalQty": 40,
		 "pricingTiers": {"1": "12.00"}}
	],
	"coupons": [
		{"code": "save10", "type": "percent", "amount": 10, "enabled": true},
		{"code": "TENOFF", "type": "fixed", "amount": 10, "enabled": true}
	],
	"settings": {"sameDayFee": 25, "annualPromoRate": 0.75, "annualDateCount": 5, "lowStockThreshold": 5}
}`

// SeedCatalog writes seedSnapshot into repos.
func SeedCatalog(t *testing.T, repos repository.Repositories) {
	t.Helper()

	snap, err := catalog.Decode(strings.NewReader(seedSnapshot))
	if err != nil {
		t.Fatalf("failed to decode seed snapshot: %v", err)
	}
	if _, err := catalog.Apply(context.Background(), snap, repos); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
}

// CleanupDB removes all data from the storefront tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `TRUNCATE bookings, equipment, categories, coupons, settings`)
	if err != nil {
		t.Logf("failed to clean tables: %v", err)
	}
}
