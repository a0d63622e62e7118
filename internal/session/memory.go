package session

import (
	"context"
	"sync"

	"rental-storefront/internal/model"
)

type memoryEntry struct {
	cart     model.Cart
	checkout model.Checkout
}

// memoryStore implements Store in process memory.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *memoryStore) Cart(_ context.Context, sessionID string) (model.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(model.Cart{}, s.sessions[sessionID].cart...), nil
}

func (s *memoryStore) SetCart(_ context.Context, sessionID string, cart model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.sessions[sessionID]
	e.cart = cart.Compact()
	s.sessions[sessionID] = e
	return nil
}

func (s *memoryStore) Checkout(_ context.Context, sessionID string) (model.Checkout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyCheckout(s.sessions[sessionID].checkout), nil
}

func (s *memoryStore) SetCheckout(_ context.Context, sessionID string, checkout model.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.sessions[sessionID]
	e.checkout = copyCheckout(checkout)
	s.sessions[sessionID] = e
	return nil
}

func (s *memoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func copyCheckout(co model.Checkout) model.Checkout {
	if co.Dates != nil {
		co.Dates = append([]string(nil), co.Dates...)
	}
	if co.Times != nil {
		times := make(map[string]model.TimeSlot, len(co.Times))
		for k, v := range co.Times {
			times[k] = v
		}
		co.Times = times
	}
	return co
}

// memoryLocker implements Locker for a single process.
type memoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker creates an in-process Locker.
func NewMemoryLocker() Locker {
	return &memoryLocker{held: make(map[string]struct{})}
}

func (l *memoryLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, model.ErrBookingInProgress
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
