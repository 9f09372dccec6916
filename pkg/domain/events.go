package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageEnter EventType = "stage_enter"
	EventStageLeave EventType = "stage_leave"
	EventSuspend    EventType = "suspend"
	EventResume     EventType = "resume"
	EventFallback   EventType = "fallback"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ThreadID  string    `json:"thread_id"`
}

// StageEvent represents entry into or exit from a stage.
type StageEvent struct {
	EventBase
	Stage   StageID `json:"stage"`
	Outcome string  `json:"outcome,omitempty"`
	Err     error   `json:"-"`
}

// ReviewEvent is emitted when a session suspends or resumes.
type ReviewEvent struct {
	EventBase
	Stage    StageID    `json:"stage"`
	Kind     ReviewKind `json:"kind"`
	ReviewID string     `json:"review_id"`
	Replayed bool       `json:"replayed,omitempty"`
}

// FallbackEvent records a degraded path taken by a stage.
type FallbackEvent struct {
	EventBase
	Stage  StageID `json:"stage"`
	Reason string  `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStageEnter func(context.Context, *StageEvent)
	OnStageLeave func(context.Context, *StageEvent)
	OnSuspend    func(context.Context, *ReviewEvent)
	OnResume     func(context.Context, *ReviewEvent)
	OnFallback   func(context.Context, *FallbackEvent)
}

// Merge chains two sets of hooks, calling h first.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageEnter: chain(h.OnStageEnter, other.OnStageEnter),
		OnStageLeave: chain(h.OnStageLeave, other.OnStageLeave),
		OnSuspend:    chain(h.OnSuspend, other.OnSuspend),
		OnResume:     chain(h.OnResume, other.OnResume),
		OnFallback:   chain(h.OnFallback, other.OnFallback),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
