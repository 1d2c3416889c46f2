package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and single-process runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	creds map[uuid.UUID]*Credential
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{creds: make(map[uuid.UUID]*Credential)}
}

func copyCred(c *Credential) *Credential {
	cp := *c
	if c.Claims != nil {
		// Deep-copy claims through JSON so callers cannot alias stored state.
		raw, _ := json.Marshal(c.Claims)
		var claims map[string]any
		_ = json.Unmarshal(raw, &claims)
		cp.Claims = claims
	}
	cp.Types = append([]string(nil), c.Types...)
	return &cp
}

// Create implements Repository.
func (r *MemoryRepository) Create(_ context.Context, c *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.creds[c.ID]; exists {
		return fmt.Errorf("credential %s already exists", c.ID)
	}
	r.creds[c.ID] = copyCred(c)
	return nil
}

// Get implements Repository.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.creds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCred(c), nil
}

// ListByHolder implements Repository.
func (r *MemoryRepository) ListByHolder(_ context.Context, holder string) ([]*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Credential
	for _, c := range r.creds {
		if c.Holder == holder {
			out = append(out, copyCred(c))
		}
	}
	return out, nil
}

// ListActive implements Repository.
func (r *MemoryRepository) ListActive(_ context.Context) ([]*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Credential
	for _, c := range r.creds {
		if c.Status == StatusActive {
			out = append(out, copyCred(c))
		}
	}
	return out, nil
}

// TransitionStatus implements Repository.
func (r *MemoryRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to Status) (*Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creds[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c.Status != from {
		if c.Status == StatusRevoked {
			return nil, ErrAlreadyRevoked
		}
		return nil, fmt.Errorf("credential %s is %s, cannot transition from %s", id, c.Status, from)
	}
	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	return copyCred(c), nil
}

// Update implements Repository.
func (r *MemoryRepository) Update(_ context.Context, c *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[c.ID]; !ok {
		return ErrNotFound
	}
	r.creds[c.ID] = copyCred(c)
	return nil
}
