package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"rental-storefront/internal/config"
	"rental-storefront/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts an in-memory Redis server and a client for it.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := Connect(context.Background(), config.RedisConfig{Addr: addr}, zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to ping redis")
}

func TestStores(t *testing.T) {
	client, _ := setupTestRedis(t)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client, time.Hour, zerolog.Nop()),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			cart, err := store.Cart(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, cart)

			co, err := store.Checkout(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, model.Checkout{}, co)

			require.NoError(t, store.SetCart(ctx, "s1", model.Cart{
				{ItemID: "chair", Qty: 10},
				{ItemID: "table", Qty: 0},
				{ItemID: "chair", Qty: 10},
			}))
			cart, err = store.Cart(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, model.Cart{{ItemID: "chair", Qty: 20}}, cart)

			want := model.Checkout{
				Annual:  true,
				Dates:   []string{"2026-11-02", "2027-10-01"},
				Times:   map[string]model.TimeSlot{"2026-11-02": {Delivery: "09:00", Pickup: "17:00"}},
				Address: "1 Main St",
			}
			require.NoError(t, store.SetCheckout(ctx, "s1", want))
			co, err = store.Checkout(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, want, co)

			co.Dates[0] = "mutated"
			again, err := store.Checkout(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "2026-11-02", again.Dates[0])

			other, err := store.Cart(ctx, "s2")
			require.NoError(t, err)
			assert.Empty(t, other)

			require.NoError(t, store.Clear(ctx, "s1"))
			cart, err = store.Cart(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, cart)
			co, err = store.Checkout(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, co.Address)
		})
	}
}

func TestRedisStore_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, 2*time.Hour, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, store.SetCart(ctx, "s1", model.Cart{{ItemID: "chair", Qty: 10}}))
	assert.Equal(t, 2*time.Hour, mr.TTL(cartKey("s1")))

	mr.FastForward(3 * time.Hour)

	cart, err := store.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart, "expired sessions read as empty")
}

func TestRedisStore_UnreadableValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour, zerolog.Nop())

	require.NoError(t, mr.Set(checkoutKey("s1"), "{not json"))

	co, err := store.Checkout(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.Checkout{}, co)
}

func TestRedisStore_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour, zerolog.Nop())
	mr.Close()

	_, err := store.Cart(context.Background(), "s1")
	assert.Error(t, err)
	assert.Error(t, store.SetCart(context.Background(), "s1", model.Cart{{ItemID: "a", Qty: 1}}))
}

func TestLockers(t *testing.T) {
	client, _ := setupTestRedis(t)

	lockers := map[string]Locker{
		"memory": NewMemoryLocker(),
		"redis":  NewRedisLocker(client, 30*time.Second, zerolog.Nop()),
	}

	for name, locker := range lockers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			release, err := locker.Acquire(ctx, "booking:s1")
			require.NoError(t, err)
			require.NotNil(t, release)

			_, err = locker.Acquire(ctx, "booking:s1")
			assert.ErrorIs(t, err, model.ErrBookingInProgress)

			otherRelease, err := locker.Acquire(ctx, "booking:s2")
			require.NoError(t, err)
			otherRelease()

			release()
			release()

			release, err = locker.Acquire(ctx, "booking:s1")
			require.NoError(t, err)
			release()
		})
	}
}

func TestLockers_Concurrent(t *testing.T) {
	client, _ := setupTestRedis(t)

	lockers := map[string]Locker{
		"memory": NewMemoryLocker(),
		"redis":  NewRedisLocker(client, 30*time.Second, zerolog.Nop()),
	}

	for name, locker := range lockers {
		t.Run(name, func(t *testing.T) {
			const workers = 10
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				acquired int
			)
			start := make(chan struct{})
			hold := make(chan struct{})

			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					release, err := locker.Acquire(context.Background(), "booking:race")
					if err != nil {
						return
					}
					mu.Lock()
					acquired++
					mu.Unlock()
					<-hold
					release()
				}()
			}

			close(start)
			time.Sleep(100 * time.Millisecond)
			close(hold)
			wg.Wait()

			assert.Equal(t, 1, acquired)
		})
	}
}

func TestRedisLocker_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client, 5*time.Second, zerolog.Nop())
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "booking:s1")
	require.NoError(t, err)

	mr.FastForward(6 * time.Second)

	next, err := locker.Acquire(ctx, "booking:s1")
	require.NoError(t, err, "an expired lock must not block a new holder")
	next()

	release()
}
