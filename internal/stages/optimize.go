package stages

import (
	"context"
	"fmt"

	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/internal/sanitize"
	"github.com/aretw0/cartwise/pkg/domain"
)

// Optimize picks at most one option per item.
//
// Without a budget the highest rated option of every item is chosen and no
// model call is made. With a budget the model proposes a selection that is
// validated against the offered options and clamped to the budget. An
// unparseable proposal yields an empty selection.
type Optimize struct {
	deps Deps
}

func (s *Optimize) ID() domain.StageID { return domain.StageOptimize }

func (s *Optimize) Owns() domain.Field { return domain.FieldOptimizedProducts }

func (s *Optimize) Run(ctx context.Context, st *domain.State) (runtime.Result, error) {
	if len(st.Products) == 0 {
		return runtime.Next(domain.Patch{OptimizedProducts: domain.Set([]domain.Selection{})}), nil
	}

	if st.Budget == nil {
		return s.review(st, sanitize.HighestRated(st.Products)), nil
	}
	budget := *st.Budget

	out, err := s.deps.Generator.Generate(ctx, optimizePrompt(st.Products, budget))
	if err != nil {
		return runtime.Result{}, err
	}

	picks, err := sanitize.Decode[[]sanitize.RawProduct](out)
	if err != nil {
		s.deps.logger().Warn("unparseable selection", "stage", s.ID(), "err", err, "output", sanitize.Preview(out, previewLen))
		return runtime.Next(domain.Patch{OptimizedProducts: domain.Set([]domain.Selection{})}).
			WithFallback("selection unparseable"), nil
	}

	valid := sanitize.ValidateSelection(st.Products, picks)
	selection := sanitize.ClampToBudget(valid, budget)

	res := s.review(st, selection)
	if rejected := len(picks) - len(valid); rejected > 0 {
		res = res.WithFallback(fmt.Sprintf("%d pick(s) not among offered options", rejected))
	}
	if dropped := len(valid) - len(selection); dropped > 0 {
		res = res.WithFallback(fmt.Sprintf("%d pick(s) dropped to fit budget", dropped))
	}
	return res, nil
}

func (s *Optimize) review(st *domain.State, selection []domain.Selection) runtime.Result {
	patch := domain.Patch{OptimizedProducts: domain.Set(selection)}
	if len(selection) == 0 || !s.deps.Reviews.Enabled(domain.ReviewOptimization) {
		return runtime.Next(patch)
	}
	return runtime.Pause(patch, domain.ReviewOptimization, OptimizationPayload{
		OptimizedProducts: selection,
		Total:             domain.SelectionTotal(selection),
		Budget:            st.Budget,
	}, MessageOptimization)
}

// Resume accepts the selection or replaces it with the reviewed picks. Reviewed
// picks go through the same validation as model output.
func (s *Optimize) Resume(ctx context.Context, st *domain.State, review *domain.Review, data map[string]any) (runtime.Result, error) {
	var resp response
	if err := decode(data, &resp); err != nil {
		return runtime.Result{}, err
	}
	action, err := resp.action()
	if err != nil {
		return runtime.Result{}, err
	}

	rawPicks, present := data["optimized_products"]
	if !present || rawPicks == nil {
		if action == domain.ActionEdit {
			return runtime.Result{}, errMissing("optimized_products")
		}
		return runtime.Next(domain.Patch{}), nil
	}
	picks, err := rawProducts(rawPicks)
	if err != nil {
		return runtime.Result{}, err
	}

	selection := sanitize.ValidateSelection(st.Products, picks)
	if st.Budget != nil {
		selection = sanitize.ClampToBudget(selection, *st.Budget)
	}
	return runtime.Next(domain.Patch{OptimizedProducts: domain.Set(selection)}), nil
}
