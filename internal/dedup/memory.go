package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local fallback used when no redis is configured.
// Marks do not survive restarts, so a restart may re-notify recent events.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.items[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiry) {
		delete(s.items, key)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Mark(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = s.now().Add(ttl)
	return nil
}

// Len counts keys that have not yet expired.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, expiry := range s.items {
		if s.now().Before(expiry) {
			n++
		}
	}
	return n
}
