package feedback

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultContextWindow bounds the surrounding-context text stored with
// an event, in bytes.
const DefaultContextWindow = 200

// Store persists feedback events.
//
// The contract is append-only: no update or delete is exposed.
// Implementations assign ID and CreatedAt at record time.
type Store interface {
	// Record validates and appends an event, returning the stored copy
	// with ID and CreatedAt assigned.
	Record(ctx context.Context, e *Event) (*Event, error)

	// ListByPattern returns all events for a pattern in record order.
	ListByPattern(ctx context.Context, patternID string) ([]*Event, error)
}

// InMemoryStore is a mutex-guarded in-memory Store.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]*Event // patternID -> events in record order

	contextWindow int
}

// NewInMemoryStore creates an empty in-memory store with the default
// context window.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events:        make(map[string][]*Event),
		contextWindow: DefaultContextWindow,
	}
}

// Record validates and appends the event.
func (s *InMemoryStore) Record(ctx context.Context, e *Event) (*Event, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	stored := *e
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()
	if len(stored.SurroundingContext) > s.contextWindow {
		// Cut at the last rune boundary at or below the window so the
		// stored audit text stays valid UTF-8.
		cut := s.contextWindow
		for cut > 0 && !utf8.RuneStart(stored.SurroundingContext[cut]) {
			cut--
		}
		stored.SurroundingContext = stored.SurroundingContext[:cut]
	}

	s.mu.Lock()
	s.events[stored.PatternID] = append(s.events[stored.PatternID], &stored)
	s.mu.Unlock()

	result := stored
	return &result, nil
}

// ListByPattern returns copies of all events for the pattern.
func (s *InMemoryStore) ListByPattern(ctx context.Context, patternID string) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[patternID]
	result := make([]*Event, len(events))
	for i, e := range events {
		copied := *e
		result[i] = &copied
	}
	return result, nil
}

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)
