package pattern

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Registry owns pattern definitions.
//
// Implementations can be backed by SQL, a document store, or memory.
// Save is an upsert and never sets LastRefinedAt on its own; only the
// refinement applier writes that field.
type Registry interface {
	// Get retrieves a pattern by ID, returning ErrPatternNotFound if absent.
	Get(ctx context.Context, id string) (*Pattern, error)

	// ListActive returns all patterns with IsActive set, ordered by creation time.
	ListActive(ctx context.Context) ([]*Pattern, error)

	// Save validates and upserts a pattern, refreshing UpdatedAt.
	Save(ctx context.Context, p *Pattern) (*Pattern, error)

	// Delete removes a pattern, returning ErrPatternNotFound if absent.
	Delete(ctx context.Context, id string) error
}

// InMemoryRegistry is a mutex-guarded in-memory Registry, suitable for
// tests and single-process deployments.
type InMemoryRegistry struct {
	mu       sync.RWMutex
	patterns map[string]*Pattern
}

// NewInMemoryRegistry creates an empty in-memory registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		patterns: make(map[string]*Pattern),
	}
}

// Get retrieves a copy of the pattern with the given ID.
func (r *InMemoryRegistry) Get(ctx context.Context, id string) (*Pattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patterns[id]
	if !ok {
		return nil, ErrPatternNotFound
	}
	return p.Clone(), nil
}

// ListActive returns copies of all active patterns, oldest first.
func (r *InMemoryRegistry) ListActive(ctx context.Context) ([]*Pattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		if p.IsActive {
			result = append(result, p.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Save validates and upserts the pattern, returning the stored copy.
func (r *InMemoryRegistry) Save(ctx context.Context, p *Pattern) (*Pattern, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := p.Clone()
	stored.UpdatedAt = time.Now()
	if existing, ok := r.patterns[stored.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	r.patterns[stored.ID] = stored
	return stored.Clone(), nil
}

// Delete removes the pattern with the given ID.
func (r *InMemoryRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patterns[id]; !ok {
		return ErrPatternNotFound
	}
	delete(r.patterns, id)
	return nil
}

// Compile-time check that InMemoryRegistry implements Registry.
var _ Registry = (*InMemoryRegistry)(nil)
