package entitlement

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and previews.
type MemoryStore struct {
	mu     sync.RWMutex
	record UserEntitlements
	loaded bool
}

// NewMemoryStore returns an empty in-memory store. The first Load returns
// Free(), mirroring the file store's fresh-install behavior.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (UserEntitlements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.record = Free()
		s.loaded = true
	}
	return s.record, nil
}

func (s *MemoryStore) Save(ctx context.Context, e UserEntitlements) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Schema = SchemaVersion
	s.record = e
	s.loaded = true
	return nil
}
