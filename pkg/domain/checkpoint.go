package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle of a session.
type Status string

const (
	StatusRunning   Status = "running"   // A stage is pending and no review is outstanding
	StatusSuspended Status = "suspended" // Waiting for human input
	StatusDone      Status = "done"      // The pipeline reached its end
)

// StageID names a pipeline stage.
type StageID string

const (
	StageClassify   StageID = "classify"
	StageExpand     StageID = "expand"
	StageCategorize StageID = "categorize"
	StageDiscover   StageID = "discover"
	StageOptimize   StageID = "optimize"
	StageCart       StageID = "cart"

	// StageEnd is the terminal marker.
	StageEnd StageID = "__end__"
)

// StepRecord is one entry of the session's audit trail.
type StepRecord struct {
	Stage     StageID    `json:"stage"`
	Outcome   string     `json:"outcome"` // continue, suspend or resume
	Review    ReviewKind `json:"review,omitempty"`
	Changed   string     `json:"changed,omitempty"`
	Fallbacks []string   `json:"fallbacks,omitempty"`
	At        time.Time  `json:"at"`
}

// ResumeRecord remembers the last accepted resumption for idempotent replay.
type ResumeRecord struct {
	ReviewID string   `json:"review_id"`
	Outcome  *Outcome `json:"outcome"`
}

// Checkpoint is the durable snapshot of a session at a stage boundary.
type Checkpoint struct {
	ThreadID     string        `json:"thread_id"`
	State        *State        `json:"shared_state"`
	PendingStage StageID       `json:"pending_stage"`
	Status       Status        `json:"status"`
	Review       *Review       `json:"review,omitempty"`
	Seq          int           `json:"seq"`
	LastResume   *ResumeRecord `json:"last_resume,omitempty"`
	Result       *Result       `json:"result,omitempty"`
	History      []StepRecord  `json:"history,omitempty"`

	// Sealed carries the encrypted session payload when the store encrypts at rest.
	Sealed string `json:"sealed,omitempty"`

	// Version is the optimistic concurrency token. Stores advance it on Save.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCheckpoint prepares the first snapshot of a session.
func NewCheckpoint(threadID, userInput string, start StageID) *Checkpoint {
	now := time.Now().UTC()
	return &Checkpoint{
		ThreadID:     threadID,
		State:        NewState(userInput),
		PendingStage: start,
		Status:       StatusRunning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ReviewID builds the identifier of the given suspension.
func ReviewID(threadID string, seq int) string {
	return fmt.Sprintf("%s:%d", threadID, seq)
}

// Outcome projects the checkpoint into what callers see.
func (c *Checkpoint) Outcome() *Outcome {
	out := &Outcome{
		ThreadID: c.ThreadID,
		Status:   c.Status,
	}
	switch c.Status {
	case StatusSuspended:
		if c.Review != nil {
			r := *c.Review
			out.Review = &r
		}
	case StatusDone:
		if c.Result != nil {
			res := *c.Result
			out.Result = &res
		} else {
			res := c.State.Result()
			out.Result = &res
		}
	}
	return out
}

// Outcome is returned by Start and Resume.
type Outcome struct {
	ThreadID string  `json:"thread_id"`
	Status   Status  `json:"status"`
	Result   *Result `json:"result,omitempty"`
	Review   *Review `json:"review,omitempty"`
}

// Done reports whether the pipeline finished.
func (o *Outcome) Done() bool {
	return o != nil && o.Status == StatusDone
}
