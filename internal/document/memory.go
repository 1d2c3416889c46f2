package document

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and single-process runs.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*Document
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[uuid.UUID]*Document)}
}

// Create implements Repository.
func (r *MemoryRepository) Create(_ context.Context, d *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[d.ID]; exists {
		return fmt.Errorf("document %s already exists", d.ID)
	}
	cp := *d
	r.docs[d.ID] = &cp
	return nil
}

// Get implements Repository.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// ListByDID implements Repository.
func (r *MemoryRepository) ListByDID(_ context.Context, didID string) ([]*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Document
	for _, d := range r.docs {
		if d.DID == didID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// TransitionStatus implements Repository.
func (r *MemoryRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to Status, note string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Status != from {
		if d.Status == StatusVerified || d.Status == StatusRejected {
			return nil, ErrAlreadyFinal
		}
		return nil, fmt.Errorf("document %s is %s, cannot transition from %s", id, d.Status, from)
	}
	d.Status = to
	d.VerifyNote = note
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	return &cp, nil
}

// Update implements Repository.
func (r *MemoryRepository) Update(_ context.Context, d *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[d.ID]; !ok {
		return ErrNotFound
	}
	cp := *d
	r.docs[d.ID] = &cp
	return nil
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	return nil
}
