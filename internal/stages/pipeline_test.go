package stages_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/internal/stages"
	"github.com/aretw0/cartwise/internal/testutils"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/aretw0/cartwise/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartURL = "https://walmart.com/cart?items=test"

type pipeline struct {
	driver   *runtime.Driver
	sessions *session.Manager
	gen      *testutils.ScriptedGenerator
	search   *testutils.StaticSearcher
	cart     *testutils.RecordingCartBuilder
}

func newPipeline(t *testing.T, gen *testutils.ScriptedGenerator, reviews domain.ReviewSet) *pipeline {
	t.Helper()
	p := &pipeline{
		sessions: testutils.NewSessions(t),
		gen:      gen,
		search: &testutils.StaticSearcher{Results: []ports.SearchResult{
			{Title: "Walmart result", Snippet: "<b>Great</b> value $3.99", URL: "https://walmart.com/ip/1"},
		}},
		cart: &testutils.RecordingCartBuilder{URL: cartURL},
	}
	g := stages.Graph(stages.Deps{
		Generator: gen,
		Searcher:  p.search,
		Cart:      p.cart,
		Reviews:   reviews,
	})
	d, err := runtime.NewDriver(g, p.sessions)
	require.NoError(t, err)
	p.driver = d
	return p
}

func milkAndBread() *testutils.ScriptedGenerator {
	return testutils.NewScriptedGenerator().
		On(stages.HeaderClassify, `{"task_type": "direct_product_list", "item_list": ["milk", "bread"], "budget": 10.0}`).
		On(stages.HeaderCategorize, `{"milk": "Dairy & Eggs", "bread": "Bakery & Bread"}`).
		On(`about "milk"`, `[
			{"name": "Great Value Whole Milk", "price": "$3.68", "rating": 4.6, "brand": "Great Value"},
			{"name": "Horizon Organic Milk", "price": 6.98, "rating": 4.8, "brand": "Horizon"}
		]`).
		On(`about "bread"`, "```json\n"+`[
			{"name": "Wonder Bread", "price": 2.98, "rating": 4.5},
			{"name": "Dave's Killer Bread", "price": 6.48, "rating": 4.9},
			{"name": "", "price": 1.00}
		]`+"\n```").
		// Over budget on purpose: 6.98 + 6.48.
		On(stages.HeaderOptimize, `[
			{"item": "milk", "name": "Horizon Organic Milk", "price": 0.01},
			{"item": "bread", "name": "Dave's Killer Bread", "price": 6.48}
		]`)
}

func TestPipeline_DirectListWithBudget(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, milkAndBread(), domain.NewReviewSet())

	out, err := p.driver.Start(ctx, "t1", "I want 2 liters of milk and a loaf of bread for $10")
	require.NoError(t, err)
	require.True(t, out.Done())

	assert.Zero(t, p.gen.Calls(stages.HeaderExpand), "direct lists skip expansion")
	assert.Equal(t, 1, p.gen.Calls(stages.HeaderCategorize), "categories are resolved in one call")

	sel := out.Result.OptimizedProducts
	require.NotEmpty(t, sel)
	assert.LessOrEqual(t, domain.SelectionTotal(sel), 10.0)
	// The lower rated milk is dropped; the offered price is used, not the model's.
	require.Len(t, sel, 1)
	assert.Equal(t, "bread", sel[0].Item)
	assert.Equal(t, "Dave's Killer Bread", sel[0].Name)
	assert.Equal(t, 6.48, sel[0].Price)
	assert.Equal(t, "Bakery & Bread", sel[0].Category)

	assert.Equal(t, cartURL, out.Result.CartURL)
	require.Len(t, p.cart.Calls(), 1)
	assert.Equal(t, sel, p.cart.Calls()[0])

	assert.ElementsMatch(t, []string{
		"milk Dairy & Eggs site:walmart.com price rating",
		"bread Bakery & Bread site:walmart.com price rating",
	}, p.search.Queries())
}

func TestPipeline_GoalWithoutBudget(t *testing.T) {
	ctx := context.Background()
	gen := testutils.NewScriptedGenerator().
		On(stages.HeaderClassify, `Sure! {"task_type": "goal_or_dish", "item_list": ["make pasta"], "budget": null}`).
		On(stages.HeaderExpand, "```json\n[\"spaghetti\", \"tomato sauce\", \"Spaghetti\"]\n```").
		On(stages.HeaderCategorize, `{"spaghetti": "Pasta & Noodles", "tomato sauce": "Pantry"}`).
		On(`about "spaghetti"`, `[
			{"name": "Barilla Spaghetti", "price": 1.42, "rating": 4.7},
			{"name": "Great Value Spaghetti", "price": 0.98, "rating": 4.7},
			{"name": "Ronzoni Spaghetti", "price": 1.12, "rating": 4.2}
		]`).
		On(`about "tomato sauce"`, "no products here")
	p := newPipeline(t, gen, domain.NewReviewSet())

	out, err := p.driver.Start(ctx, "t1", "make pasta")
	require.NoError(t, err)
	require.True(t, out.Done())

	assert.Equal(t, 1, p.gen.Calls(stages.HeaderExpand))
	assert.Zero(t, p.gen.Calls(stages.HeaderOptimize), "no budget means no model call")

	sel := out.Result.OptimizedProducts
	require.Len(t, sel, 2)
	// Highest rated, cheaper on a tie.
	assert.Equal(t, "Great Value Spaghetti", sel[0].Name)
	// Unusable extraction yields the placeholder.
	assert.Equal(t, "tomato sauce", sel[1].Item)
	assert.Equal(t, "Tomato Sauce - Option 1", sel[1].Name)
	assert.Equal(t, 10.99, sel[1].Price)
	assert.Equal(t, cartURL, out.Result.CartURL)
}

func TestPipeline_FallbackTermination(t *testing.T) {
	ctx := context.Background()
	gen := testutils.NewScriptedGenerator().
		On(stages.HeaderClassify, "I'm sorry, I can't help with that.")
	p := newPipeline(t, gen, domain.DefaultReviews())

	out, err := p.driver.Start(ctx, "t1", "????")
	require.NoError(t, err)
	require.True(t, out.Done())

	assert.Equal(t, "", out.Result.CartURL)
	assert.NotNil(t, out.Result.OptimizedProducts)
	assert.Empty(t, out.Result.OptimizedProducts)
	assert.Empty(t, p.cart.Calls())
	assert.Empty(t, p.search.Queries())
	assert.Len(t, p.gen.Prompts(), 1)
}

func TestPipeline_ReviewCheckpoints(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, milkAndBread(), domain.DefaultReviews())

	out, err := p.driver.Start(ctx, "t1", "milk and bread for $10")
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, out.Status)
	require.Equal(t, domain.ReviewCategory, out.Review.Kind)
	assert.Equal(t, stages.MessageCategory, out.Review.Message)

	var cats stages.CategoryPayload
	require.NoError(t, out.Review.Decode(&cats))
	assert.Equal(t, []string{"milk", "bread"}, cats.Items)
	assert.Equal(t, "Dairy & Eggs", cats.SuggestedCategories["milk"])

	// The reviewed mapping replaces the proposal.
	out, err = p.driver.Resume(ctx, "t1", map[string]any{
		"review_id":  out.Review.ID,
		"categories": map[string]any{"milk": "Dairy", "bread": "Bakery & Bread"},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, out.Status)
	require.Equal(t, domain.ReviewOptimization, out.Review.Kind)
	assert.Contains(t, p.search.Queries(), "milk Dairy site:walmart.com price rating")

	var opt stages.OptimizationPayload
	require.NoError(t, out.Review.Decode(&opt))
	require.NotNil(t, opt.Budget)
	assert.Equal(t, 10.0, *opt.Budget)
	assert.LessOrEqual(t, opt.Total, 10.0)

	// Swap in the cheaper milk as well.
	out, err = p.driver.Resume(ctx, "t1", map[string]any{
		"action": "edit",
		"optimized_products": []any{
			map[string]any{"item": "milk", "name": "Great Value Whole Milk"},
			map[string]any{"item": "bread", "name": "Wonder Bread"},
		},
	})
	require.NoError(t, err)
	require.True(t, out.Done())
	require.Len(t, out.Result.OptimizedProducts, 2)
	assert.InDelta(t, 6.66, domain.SelectionTotal(out.Result.OptimizedProducts), 0.001)
	assert.Equal(t, "Dairy", out.Result.OptimizedProducts[0].Category)
}

func TestPipeline_ExpansionEditLoop(t *testing.T) {
	ctx := context.Background()
	gen := testutils.NewScriptedGenerator().
		On(stages.HeaderClassify, `{"task_type": "goal_or_dish", "item_list": ["make pasta"], "budget": "$20"}`).
		On(stages.HeaderExpand, `["spaghetti", "tomato sauce"]`).
		On(stages.HeaderCategorize, `{"spaghetti": "Pasta & Noodles", "parmesan": "Cheese"}`).
		On("about", `[{"name": "Something", "price": 2.50, "rating": 4.0}]`).
		On(stages.HeaderOptimize, `[{"name": "Something"}]`)
	p := newPipeline(t, gen, domain.NewReviewSet(domain.ReviewExpansion))

	out, err := p.driver.Start(ctx, "t1", "make pasta for $20")
	require.NoError(t, err)
	require.Equal(t, domain.ReviewExpansion, out.Review.Kind)

	var exp stages.ExpansionPayload
	require.NoError(t, out.Review.Decode(&exp))
	assert.Equal(t, "make pasta", exp.Goal)
	assert.Equal(t, []string{"spaghetti", "tomato sauce"}, exp.Items)

	out, err = p.driver.Resume(ctx, "t1", map[string]any{"action": "edit", "items": []any{"spaghetti", " parmesan "}})
	require.NoError(t, err)
	require.Equal(t, domain.ReviewExpansion, out.Review.Kind, "an edit is surfaced again")
	require.NoError(t, out.Review.Decode(&exp))
	assert.Equal(t, []string{"spaghetti", "parmesan"}, exp.Items)
	assert.Zero(t, p.gen.Calls(stages.HeaderCategorize))

	out, err = p.driver.Resume(ctx, "t1", map[string]any{"action": "accept"})
	require.NoError(t, err)
	require.True(t, out.Done())

	prompts := p.gen.Prompts()
	var categorize string
	for _, pr := range prompts {
		if strings.HasPrefix(pr, stages.HeaderCategorize) {
			categorize = pr
		}
	}
	assert.Contains(t, categorize, `["spaghetti","parmesan"]`)
	assert.NotContains(t, categorize, "tomato sauce")
	require.Len(t, out.Result.OptimizedProducts, 1, "the unnamed pick matches the first item offering it")
	assert.Equal(t, "spaghetti", out.Result.OptimizedProducts[0].Item)
}

func TestPipeline_CategoryCoverage(t *testing.T) {
	ctx := context.Background()
	gen := testutils.NewScriptedGenerator().
		On(stages.HeaderClassify, `{"task_type": "direct_product_list", "item_list": ["Milk", "eggs", "butter"], "budget": null}`).
		// butter is missing, a stranger is invented, eggs has a blank label.
		On(stages.HeaderCategorize, `{"milk": "Dairy & Eggs", "eggs": "  ", "caviar": "Seafood"}`).
		On("about", `[{"name": "Thing", "price": 1, "rating": 3}]`)
	p := newPipeline(t, gen, domain.NewReviewSet())

	out, err := p.driver.Start(ctx, "t1", "milk eggs butter")
	require.NoError(t, err)
	require.True(t, out.Done())

	cp, err := p.sessions.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Milk": "Dairy & Eggs"}, cp.State.Categories)
	for item, category := range cp.State.Categories {
		found := false
		for _, g := range cp.State.Products {
			if g.Item == item {
				found = true
				assert.Equal(t, category, g.Category)
				for _, o := range g.Options {
					assert.Equal(t, category, o.Category)
				}
			}
		}
		assert.True(t, found, "item %q has no products", item)
	}
	assert.Len(t, cp.State.Products, 1)

	var fallbacks []string
	for _, h := range cp.History {
		fallbacks = append(fallbacks, h.Fallbacks...)
	}
	assert.Contains(t, fallbacks, "2 item(s) left uncategorized")
}

func TestPipeline_IdempotentResume(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, milkAndBread(), domain.NewReviewSet(domain.ReviewOptimization))

	out, err := p.driver.Start(ctx, "t1", "milk and bread for $10")
	require.NoError(t, err)
	require.Equal(t, domain.ReviewOptimization, out.Review.Kind)

	data := map[string]any{"review_id": out.Review.ID, "action": "accept"}
	first, err := p.driver.Resume(ctx, "t1", data)
	require.NoError(t, err)
	second, err := p.driver.Resume(ctx, "t1", data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, p.cart.Calls(), 1)
}

func TestPipeline_CollaboratorFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	unreachable := errors.New("connection refused")

	t.Run("generator", func(t *testing.T) {
		gen := testutils.NewScriptedGenerator()
		gen.Err = unreachable
		p := newPipeline(t, gen, domain.NewReviewSet())

		_, err := p.driver.Start(ctx, "t1", "milk")
		require.ErrorIs(t, err, unreachable)
		var stageErr *runtime.StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, domain.StageClassify, stageErr.Stage)
	})

	t.Run("search", func(t *testing.T) {
		p := newPipeline(t, milkAndBread(), domain.NewReviewSet())
		p.search.Err = unreachable

		_, err := p.driver.Start(ctx, "t1", "milk and bread")
		require.ErrorIs(t, err, unreachable)

		// Retrying after recovery resumes at discovery.
		p.search.Err = nil
		out, err := p.driver.Resume(ctx, "t1", nil)
		require.NoError(t, err)
		assert.True(t, out.Done())
		assert.Equal(t, 1, p.gen.Calls(stages.HeaderClassify))
	})

	t.Run("cart", func(t *testing.T) {
		p := newPipeline(t, milkAndBread(), domain.NewReviewSet())
		p.cart.Err = unreachable

		_, err := p.driver.Start(ctx, "t1", "milk and bread")
		require.ErrorIs(t, err, unreachable)
	})
}
