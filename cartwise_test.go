package cartwise_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/cartwise"
	"github.com/aretw0/cartwise/internal/stages"
	"github.com/aretw0/cartwise/internal/testutils"
	"github.com/aretw0/cartwise/pkg/adapters/memory"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groceries() *testutils.ScriptedGenerator {
	return testutils.NewScriptedGenerator().
		On(stages.HeaderClassify, `{"task_type": "direct_product_list", "item_list": ["eggs"], "budget": 5}`).
		On(stages.HeaderCategorize, `{"eggs": "Dairy & Eggs"}`).
		On(`about "eggs"`, `[
			{"name": "Great Value Large Eggs", "price": 3.12, "rating": 4.6},
			{"name": "Eggland's Best Eggs", "price": 5.47, "rating": 4.8}
		]`).
		On(stages.HeaderOptimize, `[{"item": "eggs", "name": "Great Value Large Eggs"}]`)
}

func newEngine(t *testing.T, gen ports.TextGenerator, opts ...cartwise.Option) (*cartwise.Engine, *testutils.RecordingCartBuilder) {
	t.Helper()
	search := &testutils.StaticSearcher{Results: []ports.SearchResult{
		{Title: "Eggs", Snippet: "Large eggs, 12 count", URL: "https://walmart.com/ip/2"},
	}}
	cart := &testutils.RecordingCartBuilder{URL: "https://walmart.com/cart?item=eggs"}
	eng, err := cartwise.New(gen, search, cart, opts...)
	require.NoError(t, err)
	return eng, cart
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := cartwise.New(nil, &testutils.StaticSearcher{}, &testutils.RecordingCartBuilder{})
	assert.Error(t, err)
}

func TestEngine_StartRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	eng, cart := newEngine(t, groceries(), cartwise.WithReviews(domain.NewReviewSet()))

	out, err := eng.Start(ctx, "a dozen eggs, $5 max")
	require.NoError(t, err)
	require.True(t, out.Done())
	assert.NotEmpty(t, out.ThreadID, "a thread id is generated")

	require.Len(t, out.Result.OptimizedProducts, 1)
	assert.Equal(t, "Great Value Large Eggs", out.Result.OptimizedProducts[0].Name)
	assert.Equal(t, "https://walmart.com/cart?item=eggs", out.Result.CartURL)
	assert.Len(t, cart.Calls(), 1)

	ids, err := eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{out.ThreadID}, ids)
}

func TestEngine_SuspendInspectResume(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t, groceries())

	out, err := eng.StartThread(ctx, "thread-1", "eggs under $5")
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, out.Status)
	assert.Equal(t, domain.ReviewCategory, out.Review.Kind)

	cp, err := eng.Inspect(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, cp.Status)
	assert.Equal(t, domain.StageCategorize, cp.PendingStage)
	assert.Equal(t, "eggs under $5", cp.State.UserInput)

	out, err = eng.Resume(ctx, "thread-1", map[string]any{"review_id": out.Review.ID})
	require.NoError(t, err)
	require.Equal(t, domain.ReviewOptimization, out.Review.Kind)

	out, err = eng.Resume(ctx, "thread-1", map[string]any{"action": "accept"})
	require.NoError(t, err)
	require.True(t, out.Done())
	assert.LessOrEqual(t, domain.SelectionTotal(out.Result.OptimizedProducts), 5.0)
}

func TestEngine_StartThreadConflict(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t, groceries())

	_, err := eng.StartThread(ctx, "dup", "eggs")
	require.NoError(t, err)
	_, err = eng.StartThread(ctx, "dup", "eggs")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestEngine_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	gen := groceries()
	eng, _ := newEngine(t, gen, cartwise.WithMaxInputSize(16))

	tests := []struct {
		name  string
		input string
	}{
		{"blank", "   \n\t"},
		{"too large", strings.Repeat("milk ", 10)},
		{"invalid utf8", "milk \xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Start(ctx, tt.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, gen.Prompts(), "rejected input never reaches the model")
}

func TestEngine_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	eng, _ := newEngine(t, groceries(), cartwise.WithStore(store))

	out, err := eng.Start(ctx, "eggs")
	require.NoError(t, err)
	assert.Same(t, store, eng.Store())

	require.NoError(t, eng.Delete(ctx, out.ThreadID))
	_, err = eng.Inspect(ctx, out.ThreadID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = eng.Resume(ctx, out.ThreadID, nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	ctx := context.Background()
	var entered []domain.StageID
	var suspended []domain.ReviewKind
	hooks := domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) { entered = append(entered, e.Stage) },
		OnSuspend:    func(_ context.Context, e *domain.ReviewEvent) { suspended = append(suspended, e.Kind) },
	}
	eng, _ := newEngine(t, groceries(),
		cartwise.WithLifecycleHooks(hooks),
		cartwise.WithReviews(domain.NewReviewSet(domain.ReviewOptimization)),
	)

	_, err := eng.Start(ctx, "eggs for $5")
	require.NoError(t, err)
	assert.Equal(t, []domain.StageID{
		domain.StageClassify, domain.StageCategorize, domain.StageDiscover, domain.StageOptimize,
	}, entered)
	assert.Equal(t, []domain.ReviewKind{domain.ReviewOptimization}, suspended)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(cartwise.Version))
}
