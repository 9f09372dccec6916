package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// It allows the Session Manager to coordinate access across multiple instances (replicas).
type DistributedLocker interface {
	// TryLock attempts to acquire a distributed lock for the given key (e.g., thread ID).
	// It does not wait: if another holder owns the key it returns domain.ErrConflict.
	// The lock expires after ttl if never released.
	// Returns an UnlockFunc that MUST be called to release the lock.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
