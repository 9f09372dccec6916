package stages

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/internal/sanitize"
	"github.com/aretw0/cartwise/pkg/domain"
)

// Categorize assigns a store category to every work item in one batched call.
type Categorize struct {
	deps Deps
}

func (s *Categorize) ID() domain.StageID { return domain.StageCategorize }

func (s *Categorize) Owns() domain.Field { return domain.FieldCategories }

func (s *Categorize) Run(ctx context.Context, st *domain.State) (runtime.Result, error) {
	items := st.WorkItems()
	if len(items) == 0 {
		return runtime.Next(domain.Patch{Categories: domain.Set(map[string]string{})}), nil
	}

	out, err := s.deps.Generator.Generate(ctx, categorizePrompt(items))
	if err != nil {
		return runtime.Result{}, err
	}

	var fallbacks []string
	categories := map[string]string{}
	raw, err := sanitize.Decode[map[string]any](out)
	if err != nil {
		s.deps.logger().Warn("unparseable categories", "stage", s.ID(), "err", err, "output", sanitize.Preview(out, previewLen))
		fallbacks = append(fallbacks, "categories unparseable")
	} else {
		categories = sanitize.Categories(raw, items)
	}
	if dropped := len(items) - len(categories); dropped > 0 && err == nil {
		fallbacks = append(fallbacks, fmt.Sprintf("%d item(s) left uncategorized", dropped))
	}

	res := s.review(items, categories)
	for _, f := range fallbacks {
		res = res.WithFallback(f)
	}
	return res, nil
}

func (s *Categorize) review(items []string, categories map[string]string) runtime.Result {
	patch := domain.Patch{Categories: domain.Set(categories)}
	if len(categories) == 0 || !s.deps.Reviews.Enabled(domain.ReviewCategory) {
		return runtime.Next(patch)
	}
	return runtime.Pause(patch, domain.ReviewCategory, CategoryPayload{
		Items:               items,
		SuggestedCategories: categories,
	}, MessageCategory)
}

// Resume replaces the proposed mapping with the reviewed one when given.
// Reviewed keys need not be work items; blank labels are dropped.
func (s *Categorize) Resume(ctx context.Context, st *domain.State, review *domain.Review, data map[string]any) (runtime.Result, error) {
	var resp response
	if err := decode(data, &resp); err != nil {
		return runtime.Result{}, err
	}
	action, err := resp.action()
	if err != nil {
		return runtime.Result{}, err
	}
	if resp.Categories == nil {
		if action == domain.ActionEdit {
			return runtime.Result{}, errMissing("categories")
		}
		return runtime.Next(domain.Patch{}), nil
	}

	keys := make([]string, 0, len(resp.Categories))
	for k := range resp.Categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	reviewed := sanitize.Categories(resp.Categories, sanitize.Items(keys))
	return runtime.Next(domain.Patch{Categories: domain.Set(reviewed)}), nil
}
