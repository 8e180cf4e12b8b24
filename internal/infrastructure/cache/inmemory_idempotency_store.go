package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore implements shared.IdempotencyStore in process
// memory. Suitable for single-instance deployments and tests; distributed
// deployments use RedisIdempotencyStore.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // event ID -> expiration
	done    chan struct{}
	once    sync.Once
}

// NewInMemoryIdempotencyStore creates an in-memory idempotency store with a
// background janitor that evicts expired entries
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// MarkProcessed claims an event ID with a TTL. Returns true if the ID was
// newly claimed, false if it is already present and unexpired.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.entries[eventID]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	s.entries[eventID] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed checks whether an event ID has been claimed and is unexpired
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.entries[eventID]
	return ok && time.Now().Before(expiry), nil
}

// Close stops the janitor
func (s *InMemoryIdempotencyStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *InMemoryIdempotencyStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, expiry := range s.entries {
				if now.After(expiry) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
