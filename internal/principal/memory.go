package principal

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and single-process runs.
type MemoryStore struct {
	mu         sync.RWMutex
	principals map[uuid.UUID]*Principal
}

// NewMemoryStore creates a MemoryStore seeded with the given principals.
func NewMemoryStore(seed ...*Principal) *MemoryStore {
	s := &MemoryStore{principals: make(map[uuid.UUID]*Principal)}
	for _, p := range seed {
		s.principals[p.ID] = p
	}
	return s
}

// Add registers a principal. Test helper; the Trust Core itself never writes.
func (s *MemoryStore) Add(p *Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[p.ID] = p
}

// Exists implements Store.
func (s *MemoryStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.principals[id]
	return ok, nil
}

// ByID implements Store.
func (s *MemoryStore) ByID(_ context.Context, id uuid.UUID) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.principals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}
