package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/internal/sanitize"
	"github.com/aretw0/cartwise/pkg/domain"
)

// Expand turns a goal or dish into the concrete items it needs.
type Expand struct {
	deps Deps
}

func (s *Expand) ID() domain.StageID { return domain.StageExpand }

func (s *Expand) Owns() domain.Field { return domain.FieldExpandedItems }

func goalOf(st *domain.State) string {
	if len(st.ItemList) > 0 {
		return st.ItemList[0]
	}
	return strings.TrimSpace(st.UserInput)
}

func (s *Expand) Run(ctx context.Context, st *domain.State) (runtime.Result, error) {
	goal := goalOf(st)

	out, err := s.deps.Generator.Generate(ctx, expandPrompt(goal))
	if err != nil {
		return runtime.Result{}, err
	}

	var fallback string
	items := []string{}
	raw, err := sanitize.Decode[[]any](out)
	if err != nil {
		s.deps.logger().Warn("unparseable expansion", "stage", s.ID(), "err", err, "output", sanitize.Preview(out, previewLen))
		fallback = "expansion unparseable"
	} else {
		names := sanitize.AnyStrings(raw)
		items = sanitize.Items(names)
		switch {
		case len(items) == 0:
			fallback = "expansion empty"
			items = sanitize.Items([]string{goal})
		case len(names) < len(raw):
			s.deps.logger().Warn("non-string expansion items dropped", "stage", s.ID(), "dropped", len(raw)-len(names))
			fallback = "expansion items dropped"
		}
	}
	if err != nil {
		items = sanitize.Items([]string{goal})
	}

	res := s.review(goal, items)
	if fallback != "" {
		res = res.WithFallback(fallback)
	}
	return res, nil
}

func (s *Expand) review(goal string, items []string) runtime.Result {
	patch := domain.Patch{ExpandedItems: domain.Set(items)}
	if !s.deps.Reviews.Enabled(domain.ReviewExpansion) {
		return runtime.Next(patch)
	}
	return runtime.Pause(patch, domain.ReviewExpansion, ExpansionPayload{
		Goal:  goal,
		Items: items,
	}, MessageExpansion)
}

// Resume continues on accept. An edit re-surfaces the edited list until it is
// accepted. An answer with neither an action nor items is rejected.
func (s *Expand) Resume(ctx context.Context, st *domain.State, review *domain.Review, data map[string]any) (runtime.Result, error) {
	var resp response
	if err := decode(data, &resp); err != nil {
		return runtime.Result{}, err
	}
	if strings.TrimSpace(resp.Action) == "" && resp.Items == nil {
		return runtime.Result{}, fmt.Errorf("%w: expansion review needs an explicit accept or edited items", domain.ErrInvalidReviewResponse)
	}
	action, err := resp.action()
	if err != nil {
		return runtime.Result{}, err
	}

	switch action {
	case domain.ActionEdit:
		if resp.Items == nil {
			return runtime.Result{}, errMissing("items")
		}
		return s.review(goalOf(st), sanitize.Items(resp.Items)), nil
	default:
		if resp.Items == nil {
			return runtime.Next(domain.Patch{}), nil
		}
		return runtime.Next(domain.Patch{ExpandedItems: domain.Set(sanitize.Items(resp.Items))}), nil
	}
}
