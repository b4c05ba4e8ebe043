package kv

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process fallback used when Redis is not
// configured. Values are only visible within one instance, acceptable
// for abuse deterrence but not for the shared archive.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero = no expiration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: expires}

	s.cleanupLocked()
	return nil
}

// cleanupLocked evicts expired entries once the map grows past a
// threshold, keeping the fallback from growing forever.
func (s *MemoryStore) cleanupLocked() {
	if len(s.entries) < 500 {
		return
	}
	now := s.now()
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
			delete(s.entries, k)
		}
	}
}
