package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/cartwise/pkg/domain"
)

// LogHooks emits one structured record per lifecycle event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.DebugContext(ctx, "stage_enter", "thread_id", e.ThreadID, "stage", e.Stage)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "stage_leave", "thread_id", e.ThreadID, "stage", e.Stage, "outcome", e.Outcome, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "stage_leave", "thread_id", e.ThreadID, "stage", e.Stage, "outcome", e.Outcome)
		},
		OnSuspend: func(ctx context.Context, e *domain.ReviewEvent) {
			logger.InfoContext(ctx, "suspend", "thread_id", e.ThreadID, "stage", e.Stage, "kind", e.Kind, "review_id", e.ReviewID)
		},
		OnResume: func(ctx context.Context, e *domain.ReviewEvent) {
			logger.InfoContext(ctx, "resume", "thread_id", e.ThreadID, "stage", e.Stage, "kind", e.Kind, "review_id", e.ReviewID, "replayed", e.Replayed)
		},
		OnFallback: func(ctx context.Context, e *domain.FallbackEvent) {
			logger.InfoContext(ctx, "fallback", "thread_id", e.ThreadID, "stage", e.Stage, "reason", e.Reason)
		},
	}
}
