package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/cartwise/internal/logging"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/session"
)

// DefaultMaxSteps bounds the transitions of a single Start or Resume call.
const DefaultMaxSteps = 64

// Driver executes the graph for one session at a time, persisting a
// checkpoint after every transition, suspension and termination.
type Driver struct {
	graph    *Graph
	sessions *session.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxSteps int
	now      func() time.Time
}

// DriverOption configures the Driver.
type DriverOption func(*Driver)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) DriverOption {
	return func(d *Driver) {
		d.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the driver.
func WithLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.maxSteps = n
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) {
		d.now = now
	}
}

// NewDriver creates a driver over a validated graph.
func NewDriver(graph *Graph, sessions *session.Manager, opts ...DriverOption) (*Driver, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	d := &Driver{
		graph:    graph,
		sessions: sessions,
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start creates a session for input and drives it until it finishes or suspends.
// Returns domain.ErrConflict if threadID is already in use.
func (d *Driver) Start(ctx context.Context, threadID, input string) (*domain.Outcome, error) {
	var out *domain.Outcome
	err := d.sessions.WithLock(ctx, threadID, func(ctx context.Context) error {
		cp := domain.NewCheckpoint(threadID, input, d.graph.Entry())
		cp.CreatedAt, cp.UpdatedAt = d.now(), d.now()
		if err := d.sessions.Create(ctx, cp); err != nil {
			return fmt.Errorf("failed to create session %s: %w", threadID, err)
		}
		d.logger.Info("session started", "thread_id", threadID)

		var err error
		out, err = d.drive(ctx, cp)
		return err
	})
	return out, err
}

// Resume continues a session with the caller's data.
//
//   - done: the stored result is returned unchanged.
//   - running: the pending stage is driven again and data is ignored.
//   - suspended: data answers the pending review.
//
// A "review_id" entry in data pins the answer to one suspension. Naming the
// last consumed review replays its outcome; naming any other review fails
// with domain.ErrStaleReview.
func (d *Driver) Resume(ctx context.Context, threadID string, data map[string]any) (*domain.Outcome, error) {
	var out *domain.Outcome
	err := d.sessions.WithLock(ctx, threadID, func(ctx context.Context) error {
		cp, err := d.sessions.Load(ctx, threadID)
		if err != nil {
			return err
		}

		reviewID, data := splitReviewID(data)

		switch cp.Status {
		case domain.StatusDone:
			out = cp.Outcome()
			return nil
		case domain.StatusRunning:
			d.logger.Info("re-driving interrupted session", "thread_id", threadID, "stage", cp.PendingStage)
			out, err = d.drive(ctx, cp)
			return err
		}

		if cp.Review == nil {
			return fmt.Errorf("session %s: %w", threadID, domain.ErrNoPendingReview)
		}
		if reviewID != "" && reviewID != cp.Review.ID {
			if cp.LastResume != nil && cp.LastResume.ReviewID == reviewID && cp.LastResume.Outcome != nil {
				d.emitResume(ctx, cp, reviewID, true)
				out = cp.LastResume.Outcome
				return nil
			}
			return fmt.Errorf("review %s is not pending (pending: %s): %w", reviewID, cp.Review.ID, domain.ErrStaleReview)
		}

		out, err = d.answer(ctx, cp, data)
		return err
	})
	return out, err
}

// answer feeds the caller's data to the suspended stage and keeps driving.
func (d *Driver) answer(ctx context.Context, cp *domain.Checkpoint, data map[string]any) (*domain.Outcome, error) {
	stage, ok := d.graph.Stage(cp.PendingStage)
	if !ok {
		return nil, fmt.Errorf("pending stage %s: %w", cp.PendingStage, domain.ErrUnknownStage)
	}
	reviewer, ok := stage.(Reviewer)
	if !ok {
		return nil, fmt.Errorf("stage %s cannot be resumed: %w", stage.ID(), domain.ErrNoPendingReview)
	}

	consumed := cp.Review.ID
	d.emitResume(ctx, cp, consumed, false)

	res, err := reviewer.Resume(ctx, cp.State.Clone(), cp.Review, data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidReviewResponse) {
			return nil, err
		}
		return nil, &StageError{Stage: stage.ID(), Err: err}
	}

	// The outcome is filled in by the save that ends this call.
	cp.LastResume = &domain.ResumeRecord{ReviewID: consumed}

	if err := d.commit(ctx, cp, stage, res, "resume"); err != nil {
		return nil, err
	}
	if cp.Status != domain.StatusRunning {
		return cp.Outcome(), nil
	}
	return d.drive(ctx, cp)
}

// drive runs stages from the pending one until the session suspends or ends.
func (d *Driver) drive(ctx context.Context, cp *domain.Checkpoint) (*domain.Outcome, error) {
	for steps := 0; ; steps++ {
		if cp.Status != domain.StatusRunning {
			return cp.Outcome(), nil
		}
		if steps >= d.maxSteps {
			return nil, fmt.Errorf("session %s after %d steps: %w", cp.ThreadID, steps, domain.ErrStepLimit)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if cp.PendingStage == domain.StageEnd {
			if err := d.finish(ctx, cp); err != nil {
				return nil, err
			}
			continue
		}

		stage, ok := d.graph.Stage(cp.PendingStage)
		if !ok {
			return nil, fmt.Errorf("pending stage %s: %w", cp.PendingStage, domain.ErrUnknownStage)
		}

		d.emitStageEnter(ctx, cp.ThreadID, stage.ID())
		start := d.now()

		res, err := stage.Run(ctx, cp.State.Clone())
		if err != nil {
			d.emitStageLeave(ctx, cp.ThreadID, stage.ID(), "error", err)
			d.logger.Error("stage failed", "thread_id", cp.ThreadID, "stage", stage.ID(), "err", err)
			return nil, &StageError{Stage: stage.ID(), Err: err}
		}

		if err := d.commit(ctx, cp, stage, res, res.Kind.String()); err != nil {
			d.emitStageLeave(ctx, cp.ThreadID, stage.ID(), "error", err)
			return nil, err
		}
		d.emitStageLeave(ctx, cp.ThreadID, stage.ID(), res.Kind.String(), nil)
		d.logger.Debug("stage completed",
			"thread_id", cp.ThreadID,
			"stage", stage.ID(),
			"outcome", res.Kind.String(),
			"duration", d.now().Sub(start),
		)
	}
}

// commit applies a stage result to the checkpoint and persists it.
// On error nothing is persisted and the stored checkpoint stays authoritative.
func (d *Driver) commit(ctx context.Context, cp *domain.Checkpoint, stage Stage, res Result, label string) error {
	// 1. Ownership
	if extra := res.Patch.Fields() &^ stage.Owns(); extra != 0 {
		return fmt.Errorf("stage %s wrote %s: %w", stage.ID(), extra, domain.ErrFieldOwnership)
	}

	// 2. Apply to a copy
	next := cp.State.Clone()
	next.Apply(res.Patch)

	record := domain.StepRecord{
		Stage:     stage.ID(),
		Outcome:   label,
		Fallbacks: res.Fallbacks,
		At:        d.now(),
	}
	if changed := domain.Diff(cp.State, next); changed != 0 {
		record.Changed = changed.String()
	}

	// 3. Position
	var review *domain.Review
	switch res.Kind {
	case Suspend:
		payload, err := json.Marshal(res.Payload)
		if err != nil {
			return fmt.Errorf("stage %s produced an unencodable review: %w", stage.ID(), err)
		}
		seq := cp.Seq + 1
		review = &domain.Review{
			ID:      domain.ReviewID(cp.ThreadID, seq),
			Kind:    res.Review,
			Payload: payload,
			Message: res.Message,
		}
		next.InterruptType = res.Review
		record.Review = res.Review

		cp.Seq = seq
		cp.Status = domain.StatusSuspended
	case Continue:
		to, err := d.graph.Next(stage.ID(), next)
		if err != nil {
			return err
		}
		next.InterruptType = ""
		cp.PendingStage = to
		cp.Status = domain.StatusRunning
	default:
		return fmt.Errorf("stage %s returned %s", stage.ID(), res.Kind)
	}

	cp.State = next
	cp.Review = review
	cp.History = append(cp.History, record)
	if cp.PendingStage == domain.StageEnd {
		markDone(cp)
	}

	for _, reason := range res.Fallbacks {
		d.emitFallback(ctx, cp.ThreadID, stage.ID(), reason)
	}

	// 4. Persist
	if err := d.save(ctx, cp); err != nil {
		return err
	}

	if review != nil {
		d.emitSuspend(ctx, cp, stage.ID())
		d.logger.Info("session suspended", "thread_id", cp.ThreadID, "stage", stage.ID(), "review", review.ID, "kind", review.Kind)
	}
	if cp.Status == domain.StatusDone {
		d.logger.Info("session finished", "thread_id", cp.ThreadID, "items", len(next.OptimizedProducts), "cart", next.CartURL != "")
	}
	return nil
}

// finish handles a running checkpoint already positioned at the end marker.
func (d *Driver) finish(ctx context.Context, cp *domain.Checkpoint) error {
	markDone(cp)
	return d.save(ctx, cp)
}

func markDone(cp *domain.Checkpoint) {
	res := cp.State.Result()
	cp.Status = domain.StatusDone
	cp.Result = &res
	cp.Review = nil
	cp.State.InterruptType = ""
}

// save persists cp and records the outcome of a pending resumption once the
// call settles.
func (d *Driver) save(ctx context.Context, cp *domain.Checkpoint) error {
	if cp.LastResume != nil && cp.LastResume.Outcome == nil && cp.Status != domain.StatusRunning {
		cp.LastResume.Outcome = cp.Outcome()
	}
	if err := d.sessions.Save(ctx, cp); err != nil {
		return fmt.Errorf("failed to persist checkpoint %s: %w", cp.ThreadID, err)
	}
	return nil
}

// splitReviewID removes the review pin from data without mutating the caller's map.
func splitReviewID(data map[string]any) (string, map[string]any) {
	raw, ok := data[domain.KeyReviewID]
	if !ok {
		return "", data
	}
	rest := make(map[string]any, len(data)-1)
	for k, v := range data {
		if k != domain.KeyReviewID {
			rest[k] = v
		}
	}
	id, _ := raw.(string)
	return id, rest
}

func (d *Driver) event(threadID string, typ domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: d.now(), Type: typ, ThreadID: threadID}
}

func (d *Driver) emitStageEnter(ctx context.Context, threadID string, stage domain.StageID) {
	if d.hooks.OnStageEnter != nil {
		d.hooks.OnStageEnter(ctx, &domain.StageEvent{EventBase: d.event(threadID, domain.EventStageEnter), Stage: stage})
	}
}

func (d *Driver) emitStageLeave(ctx context.Context, threadID string, stage domain.StageID, outcome string, err error) {
	if d.hooks.OnStageLeave != nil {
		d.hooks.OnStageLeave(ctx, &domain.StageEvent{EventBase: d.event(threadID, domain.EventStageLeave), Stage: stage, Outcome: outcome, Err: err})
	}
}

func (d *Driver) emitSuspend(ctx context.Context, cp *domain.Checkpoint, stage domain.StageID) {
	if d.hooks.OnSuspend != nil {
		d.hooks.OnSuspend(ctx, &domain.ReviewEvent{
			EventBase: d.event(cp.ThreadID, domain.EventSuspend),
			Stage:     stage,
			Kind:      cp.Review.Kind,
			ReviewID:  cp.Review.ID,
		})
	}
}

func (d *Driver) emitResume(ctx context.Context, cp *domain.Checkpoint, reviewID string, replayed bool) {
	if d.hooks.OnResume != nil {
		kind := domain.ReviewKind("")
		if cp.Review != nil {
			kind = cp.Review.Kind
		}
		d.hooks.OnResume(ctx, &domain.ReviewEvent{
			EventBase: d.event(cp.ThreadID, domain.EventResume),
			Stage:     cp.PendingStage,
			Kind:      kind,
			ReviewID:  reviewID,
			Replayed:  replayed,
		})
	}
}

func (d *Driver) emitFallback(ctx context.Context, threadID string, stage domain.StageID, reason string) {
	d.logger.Warn("stage fell back", "thread_id", threadID, "stage", stage, "reason", reason)
	if d.hooks.OnFallback != nil {
		d.hooks.OnFallback(ctx, &domain.FallbackEvent{EventBase: d.event(threadID, domain.EventFallback), Stage: stage, Reason: reason})
	}
}
