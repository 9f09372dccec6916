package ports

import (
	"context"

	"github.com/aretw0/cartwise/pkg/domain"
)

// CheckpointStore defines the interface for persisting session checkpoints.
// This allows for durable execution, enabling "Suspend & Resume" workflows
// across process restarts.
type CheckpointStore interface {
	// Save persists the checkpoint with a compare-and-swap on Version.
	// A checkpoint with Version 0 must not exist yet. Otherwise the stored
	// version must equal cp.Version. On success cp.Version is advanced.
	// Returns domain.ErrConflict when the comparison fails.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Load retrieves the checkpoint for a given thread ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, threadID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a given thread ID.
	Delete(ctx context.Context, threadID string) error

	// List returns the IDs of all live sessions.
	List(ctx context.Context) ([]string, error)
}
