package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/cartwise/internal/logging"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 2 * time.Minute

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring at most one driver per thread.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.CheckpointStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given checkpoint store.
func NewManager(store ports.CheckpointStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST call release(threadID) when done with the entry.
func (m *Manager) acquire(threadID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		entry = &lockEntry{}
		m.locks[threadID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, threadID)
	}
}

// Load retrieves an existing checkpoint from the store without locking.
// Readers may observe the last committed checkpoint while a driver runs.
func (m *Manager) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	return m.store.Load(ctx, threadID)
}

// Create persists the first checkpoint of a new session.
// Returns domain.ErrConflict if the thread ID is already taken.
func (m *Manager) Create(ctx context.Context, cp *domain.Checkpoint) error {
	if cp.Version != 0 {
		return fmt.Errorf("create %s: checkpoint already versioned: %w", cp.ThreadID, domain.ErrConflict)
	}
	return m.store.Save(ctx, cp)
}

// Save persists a checkpoint with compare-and-swap on its version.
func (m *Manager) Save(ctx context.Context, cp *domain.Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()
	return m.store.Save(ctx, cp)
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, threadID string) error {
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		return m.store.Delete(ctx, threadID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying checkpoint store.
func (m *Manager) Store() ports.CheckpointStore {
	return m.store
}

// WithLock executes fn while holding the exclusive right to drive the session.
// It never waits: if another caller holds the session it returns domain.ErrConflict.
func (m *Manager) WithLock(ctx context.Context, threadID string, fn func(context.Context) error) error {
	entry := m.acquire(threadID)
	defer m.release(threadID)

	if !entry.mu.TryLock() {
		return fmt.Errorf("session %s is busy: %w", threadID, domain.ErrConflict)
	}
	defer entry.mu.Unlock()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.TryLock(ctx, threadID, m.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("session %s is busy: %w", threadID, err)
			}
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's context may already be canceled; release with a fresh one.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := unlock(releaseCtx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"thread_id", threadID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
