package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-storefront/internal/catalog"
	"rental-storefront/internal/config"
	"rental-storefront/internal/database"
	"rental-storefront/internal/events"
	"rental-storefront/internal/handler"
	"rental-storefront/internal/repository"
	"rental-storefront/internal/router"
	"rental-storefront/internal/service"
	"rental-storefront/internal/session"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Bool("mock_mode", cfg.Store.MockMode).Msg("starting rental storefront API server")

	decimal.MarshalJSONWithoutQuotes = true

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize repositories
	var repos repository.Repositories
	if cfg.Store.MockMode {
		repos = repository.NewMemoryRepositories(logger)
		seed(ctx, cfg, repos, logger)
	} else {
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
		repos = repository.NewPostgresRepositories(pool, logger)
	}

	// Initialize session store and booking lock
	var (
		sessions session.Store
		locker   session.Locker
	)
	if cfg.Redis.Enabled {
		client, err := session.Connect(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer client.Close()

		sessions = session.NewRedisStore(client, cfg.Redis.SessionTTLDuration(), logger)
		locker = session.NewRedisLocker(client, cfg.Redis.LockTTLDuration(), logger)
	} else {
		logger.Info().Msg("using in-memory sessions (redis disabled)")
		sessions = session.NewMemoryStore()
		locker = session.NewMemoryLocker()
	}

	// Initialize booking event publisher
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		publisher = events.NewNopPublisher(logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Initialize services
	loc := cfg.Store.Location()
	catalogService := service.NewCatalogService(repos, logger)
	cartService := service.NewCartService(repos, sessions, loc, logger)
	bookingService := service.NewBookingService(repos, sessions, locker, publisher, loc, logger)

	// Initialize HTTP handler and router
	facade := handler.NewFacade(catalogService, cartService, bookingService, logger)
	mux := router.New(facade, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Int("actions", facade.Actions()).
			Str("timezone", loc.String()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// seed loads the catalog snapshot into the in-memory repositories. A
// missing or unreadable snapshot leaves the store empty.
func seed(ctx context.Context, cfg *config.Config, repos repository.Repositories, logger zerolog.Logger) {
	if cfg.Store.SeedPath == "" {
		logger.Warn().Msg("no seed path configured, starting with an empty catalog")
		return
	}

	var s3Loader catalog.Loader
	if cfg.S3.Enabled {
		l, err := catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	}
	loader := catalog.NewFallbackLoader(s3Loader, catalog.NewFileLoader(logger), cfg.S3.Prefix, cfg.S3.Enabled, logger)

	snap, err := loader.Load(ctx, cfg.Store.SeedPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Store.SeedPath).Msg("failed to load catalog snapshot, starting with an empty catalog")
		return
	}

	counts, err := catalog.Apply(ctx, snap, repos)
	if err != nil {
		logger.Error().Err(err).Msg("failed to apply catalog snapshot")
		return
	}

	logger.Info().
		Int("equipment", counts.Equipment).
		Int("categories", counts.Categories).
		Int("coupons", counts.Coupons).
		Int("bookings", counts.Bookings).
		Msg("catalog seeded")
}
