package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/cartwise/pkg/domain"
)

type record struct {
	data      []byte
	version   int64
	expiresAt time.Time
}

// Store implements ports.CheckpointStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]record
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithTTL expires sessions that have not been saved for ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]record),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists the checkpoint in memory with compare-and-swap on its version.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	current, exists := s.live(cp.ThreadID, now)
	if exists && current.version != cp.Version {
		return fmt.Errorf("checkpoint %s at version %d, got %d: %w", cp.ThreadID, current.version, cp.Version, domain.ErrConflict)
	}
	if !exists && cp.Version != 0 {
		return fmt.Errorf("checkpoint %s does not exist at version %d: %w", cp.ThreadID, cp.Version, domain.ErrConflict)
	}

	// Serialize to ensure isolation, similar to a real backend
	next := *cp
	next.Version++
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	rec := record{data: data, version: next.Version}
	if s.ttl > 0 {
		rec.expiresAt = now.Add(s.ttl)
	}
	s.data[cp.ThreadID] = rec
	cp.Version = next.Version
	return nil
}

// Load retrieves the checkpoint from memory.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.live(threadID, s.now())
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Decode a fresh copy so callers can't mutate store state directly by pointer
	var cp domain.Checkpoint
	if err := json.Unmarshal(rec.data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, threadID)
	return nil
}

// List returns live sessions and drops expired ones.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		if _, ok := s.live(id, now); !ok {
			delete(s.data, id)
			continue
		}
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}

// live returns the record for id unless it has expired. Callers hold s.mu.
func (s *Store) live(id string, now time.Time) (record, bool) {
	rec, ok := s.data[id]
	if !ok {
		return record{}, false
	}
	if !rec.expiresAt.IsZero() && !now.Before(rec.expiresAt) {
		return record{}, false
	}
	return rec, true
}
