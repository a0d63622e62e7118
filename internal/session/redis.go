package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rental-storefront/internal/config"
	"rental-storefront/internal/model"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 20,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to redis")
	return client, nil
}

// redisStore implements Store with one JSON value per session and kind.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed session store. Every write refreshes
// the session's expiry to ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis-session-store").Logger(),
	}
}

func cartKey(sessionID string) string     { return "session:" + sessionID + ":cart" }
func checkoutKey(sessionID string) string { return "session:" + sessionID + ":checkout" }

func (s *redisStore) Cart(ctx context.Context, sessionID string) (model.Cart, error) {
	cart := model.Cart{}
	if err := s.get(ctx, cartKey(sessionID), &cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *redisStore) SetCart(ctx context.Context, sessionID string, cart model.Cart) error {
	return s.set(ctx, cartKey(sessionID), cart.Compact())
}

func (s *redisStore) Checkout(ctx context.Context, sessionID string) (model.Checkout, error) {
	var co model.Checkout
	if err := s.get(ctx, checkoutKey(sessionID), &co); err != nil {
		return model.Checkout{}, err
	}
	return co, nil
}

func (s *redisStore) SetCheckout(ctx context.Context, sessionID string, checkout model.Checkout) error {
	return s.set(ctx, checkoutKey(sessionID), checkout)
}

func (s *redisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID), checkoutKey(sessionID)).Err(); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear session")
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *redisStore) get(ctx context.Context, key string, dst any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to read session value")
		return fmt.Errorf("failed to read session value: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable session value")
		return nil
	}
	return nil
}

func (s *redisStore) set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session value: %w", err)
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to write session value")
		return fmt.Errorf("failed to write session value: %w", err)
	}
	return nil
}

// redisLocker implements Locker with redislock.
type redisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisLocker creates a Locker whose locks expire after ttl even if the
// holder never releases them.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) Locker {
	return &redisLocker{
		locker: redislock.New(client),
		ttl:    ttl,
		logger: logger.With().Str("component", "redis-locker").Logger(),
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:" + key
	lock, err := l.locker.Obtain(ctx, lockKey, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn().Str("key", lockKey).Msg("lock already held")
		return nil, model.ErrBookingInProgress
	}
	if err != nil {
		l.logger.Error().Err(err).Str("key", lockKey).Msg("failed to obtain lock")
		return nil, fmt.Errorf("failed to obtain lock %s: %w", lockKey, err)
	}

	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn().Err(err).Str("key", lockKey).Msg("failed to release lock")
		}
	}, nil
}
