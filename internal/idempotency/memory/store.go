package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/cafe/internal/idempotency"
)

type entry struct {
	response idempotency.Response
	savedAt  time.Time
}

// Store keeps responses in process memory until they expire.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]entry
	now   func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	return &Store{ttl: ttl, items: make(map[string]entry), now: time.Now}
}

func (s *Store) Get(_ context.Context, key string) (*idempotency.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.live(key)
	if !ok {
		return nil, nil
	}
	response := value.response
	return &response, nil
}

func (s *Store) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.items[key] = entry{savedAt: s.now()}
	return true, nil
}

// Save keeps the first response for a key until it expires.
func (s *Store) Save(_ context.Context, key string, response idempotency.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.live(key); ok && !current.response.Pending() {
		return nil
	}
	s.items[key] = entry{response: response, savedAt: s.now()}
	return nil
}

func (s *Store) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.items[key]; ok && current.response.Pending() {
		delete(s.items, key)
	}
	return nil
}

// live returns the entry for key unless it expired. Callers hold mu.
func (s *Store) live(key string) (entry, bool) {
	value, ok := s.items[key]
	if !ok {
		return entry{}, false
	}
	limit := s.ttl
	if value.response.Pending() {
		limit = idempotency.ReservationTimeout
	}
	if s.now().Sub(value.savedAt) >= limit {
		delete(s.items, key)
		return entry{}, false
	}
	return value, true
}
