//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"

	"rental-storefront/internal/catalog"
	"rental-storefront/internal/config"
	"rental-storefront/internal/database"
	"rental-storefront/internal/repository"
)

// seedCatalog loads a catalog snapshot into the configured PostgreSQL
// database. Usage: go run scripts/seed_catalog.go [snapshot path]
func main() {
	ctx := context.Background()

	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logger)

	path := cfg.Store.SeedPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Connected to database: %s\n", dbName)

	if err := database.EnsureSchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to apply schema: %v\n", err)
		os.Exit(1)
	}

	snap, err := catalog.NewFileLoader(logger).Load(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load snapshot: %v\n", err)
		os.Exit(1)
	}

	counts, err := catalog.Apply(ctx, snap, repository.NewPostgresRepositories(pool, logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nSeeded %s from %s:\n", dbName, path)
	fmt.Printf("  - %d categories\n", counts.Categories)
	fmt.Printf("  - %d equipment items\n", counts.Equipment)
	fmt.Printf("  - %d coupons\n", counts.Coupons)
	fmt.Printf("  - %d bookings\n", counts.Bookings)
}
