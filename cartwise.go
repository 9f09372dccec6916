package cartwise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/cartwise/internal/logging"
	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/internal/sanitize"
	"github.com/aretw0/cartwise/internal/stages"
	"github.com/aretw0/cartwise/pkg/adapters/memory"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/aretw0/cartwise/pkg/session"
	"github.com/google/uuid"
)

// DiscoveryOptions tunes product search and extraction.
type DiscoveryOptions = stages.DiscoveryOptions

// Engine is the high-level entry point for the cartwise library.
// It owns the stage graph, the session manager and the driver that runs them.
type Engine struct {
	driver   *runtime.Driver
	sessions *session.Manager

	store     ports.CheckpointStore
	locker    ports.DistributedLocker
	lockTTL   time.Duration
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	reviews   domain.ReviewSet
	discovery DiscoveryOptions
	maxSteps  int
	maxInput  int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore sets the checkpoint store. Defaults to an in-memory store.
func WithStore(store ports.CheckpointStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of sessions across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithReviews selects the review checkpoints that suspend the pipeline.
// Passing an empty set runs every session straight through.
func WithReviews(reviews domain.ReviewSet) Option {
	return func(e *Engine) {
		e.reviews = reviews
	}
}

// WithDiscovery tunes product discovery.
func WithDiscovery(opts DiscoveryOptions) Option {
	return func(e *Engine) {
		e.discovery = opts
	}
}

// WithMaxSteps bounds the transitions of a single Start or Resume call.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithMaxInputSize bounds the size in bytes of a user request.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.maxInput = n
	}
}

// New initializes an Engine over the three external collaborators.
func New(gen ports.TextGenerator, search ports.Searcher, cart ports.CartBuilder, opts ...Option) (*Engine, error) {
	if gen == nil || search == nil || cart == nil {
		return nil, errors.New("text generator, searcher and cart builder are required")
	}

	eng := &Engine{reviews: domain.DefaultReviews()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	graph := stages.Graph(stages.Deps{
		Generator: gen,
		Searcher:  search,
		Cart:      cart,
		Reviews:   eng.reviews,
		Discovery: eng.discovery,
		Logger:    eng.logger,
	})

	driver, err := runtime.NewDriver(graph, eng.sessions,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMaxSteps(eng.maxSteps),
	)
	if err != nil {
		return nil, err
	}
	eng.driver = driver
	return eng, nil
}

// Start opens a session under a fresh thread ID and runs it until it
// finishes or suspends for review.
func (e *Engine) Start(ctx context.Context, input string) (*domain.Outcome, error) {
	return e.StartThread(ctx, uuid.NewString(), input)
}

// StartThread is Start with a caller-chosen thread ID.
// Returns domain.ErrConflict if the thread already exists.
func (e *Engine) StartThread(ctx context.Context, threadID, input string) (*domain.Outcome, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	clean, err := sanitize.Input(input, e.maxInput)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return e.driver.Start(ctx, threadID, clean)
}

// Resume answers the pending review of a session and keeps driving it.
// Include "review_id" in data to make the call safe to retry.
func (e *Engine) Resume(ctx context.Context, threadID string, data map[string]any) (*domain.Outcome, error) {
	return e.driver.Resume(ctx, threadID, data)
}

// Inspect returns the last durable checkpoint of a session.
func (e *Engine) Inspect(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	return e.sessions.Load(ctx, threadID)
}

// Sessions lists the IDs of live sessions.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Delete removes a session. It waits for no one: a session being driven
// right now yields domain.ErrConflict.
func (e *Engine) Delete(ctx context.Context, threadID string) error {
	return e.sessions.Delete(ctx, threadID)
}

// Store returns the checkpoint store backing the engine.
func (e *Engine) Store() ports.CheckpointStore {
	return e.store
}
