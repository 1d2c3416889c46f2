package contentstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-process runs.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// failPuts, when positive, makes the next N Put calls report
	// ErrUnavailable. Test hook for the pipeline's bounded retry.
	failPuts int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// FailNextPuts makes the next n Put calls fail with ErrUnavailable.
func (s *MemoryStore) FailNextPuts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts = n
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPuts > 0 {
		s.failPuts--
		return "", ErrUnavailable
	}
	addr := Address(data)
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[addr] = cp
	return addr, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, address string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[address]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, address)
	return nil
}
