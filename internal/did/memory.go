package did

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and single-process runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*Record)}
}

// Create implements Repository.
func (r *MemoryRepository) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.DID]; exists {
		return fmt.Errorf("did %s already exists", rec.DID)
	}
	cp := *rec
	r.records[rec.DID] = &cp
	return nil
}

// Get implements Repository.
func (r *MemoryRepository) Get(_ context.Context, did string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[did]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListByPrincipal implements Repository.
func (r *MemoryRepository) ListByPrincipal(_ context.Context, principal uuid.UUID) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Record
	for _, rec := range r.records {
		if rec.Principal == principal {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// TransitionStatus implements Repository.
func (r *MemoryRepository) TransitionStatus(_ context.Context, did string, from, to Status) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[did]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Status != from {
		if rec.Status == StatusRevoked {
			return nil, ErrAlreadyRevoked
		}
		return nil, fmt.Errorf("did %s is %s, cannot transition from %s", did, rec.Status, from)
	}
	rec.Status = to
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	return &cp, nil
}
