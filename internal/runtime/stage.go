package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/cartwise/pkg/domain"
)

// Stage is one step of the pipeline.
// Run receives a private copy of the state and must not keep it.
type Stage interface {
	ID() domain.StageID
	// Owns is the set of fields the stage may write.
	Owns() domain.Field
	Run(ctx context.Context, st *domain.State) (Result, error)
}

// Reviewer is a stage that can suspend for human review.
// Resume receives the pending review and the caller's data; a Continue result
// advances past the stage, a Suspend result re-surfaces an updated review.
type Reviewer interface {
	Stage
	Resume(ctx context.Context, st *domain.State, review *domain.Review, data map[string]any) (Result, error)
}

// StageError wraps a collaborator failure raised while a stage ran.
// The checkpoint is left at the failing stage, so resuming retries it.
type StageError struct {
	Stage domain.StageID
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
