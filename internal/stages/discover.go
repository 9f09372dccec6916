package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/internal/sanitize"
	"github.com/aretw0/cartwise/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// Discover searches for every categorized item and extracts product options
// from the results. Items are fetched concurrently; the output keeps the order
// in which categories were resolved.
type Discover struct {
	deps Deps
}

func (s *Discover) ID() domain.StageID { return domain.StageDiscover }

func (s *Discover) Owns() domain.Field { return domain.FieldProducts }

type discovered struct {
	group    domain.ProductGroup
	fallback string
}

func (s *Discover) Run(ctx context.Context, st *domain.State) (runtime.Result, error) {
	items := st.CategorizedItems()
	found := make([]discovered, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deps.Discovery.Concurrency)
	for i, item := range items {
		category := st.Categories[item]
		g.Go(func() error {
			d, err := s.discover(gctx, item, category)
			if err != nil {
				return fmt.Errorf("discover %q: %w", item, err)
			}
			found[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return runtime.Result{}, err
	}

	groups := make([]domain.ProductGroup, len(found))
	var fallbacks []string
	for i, d := range found {
		groups[i] = d.group
		if d.fallback != "" {
			fallbacks = append(fallbacks, d.fallback)
		}
	}

	patch := domain.Patch{Products: domain.Set(groups)}
	var res runtime.Result
	if len(groups) > 0 && s.deps.Reviews.Enabled(domain.ReviewProduct) {
		res = runtime.Pause(patch, domain.ReviewProduct, ProductPayload{Products: groups}, MessageProduct)
	} else {
		res = runtime.Next(patch)
	}
	for _, f := range fallbacks {
		res = res.WithFallback(f)
	}
	return res, nil
}

func (s *Discover) discover(ctx context.Context, item, category string) (discovered, error) {
	opts := s.deps.Discovery
	query := strings.NewReplacer("{item}", item, "{category}", category).Replace(opts.QueryTemplate)

	results, err := s.deps.Searcher.Search(ctx, query, opts.MaxResults)
	if err != nil {
		return discovered{}, err
	}

	out, err := s.deps.Generator.Generate(ctx, extractPrompt(item, category, results, opts.MaxOptions))
	if err != nil {
		return discovered{}, err
	}

	group := domain.ProductGroup{Item: item, Category: category}
	raw, err := sanitize.Decode[[]sanitize.RawProduct](out)
	if err != nil {
		s.deps.logger().Warn("unparseable extraction", "stage", s.ID(), "item", item, "err", err, "output", sanitize.Preview(out, previewLen))
	} else {
		group.Options = sanitize.Products(raw, category, opts.MaxOptions)
	}
	if len(group.Options) > 0 {
		return discovered{group: group}, nil
	}

	group.Options = []domain.ProductOption{sanitize.Placeholder(item, category)}
	return discovered{group: group, fallback: fmt.Sprintf("placeholder product for %q", item)}, nil
}

// Resume replaces the options of the reviewed items. Items that were not
// discovered are ignored and an emptied item gets the placeholder back.
func (s *Discover) Resume(ctx context.Context, st *domain.State, review *domain.Review, data map[string]any) (runtime.Result, error) {
	var resp response
	if err := decode(data, &resp); err != nil {
		return runtime.Result{}, err
	}
	action, err := resp.action()
	if err != nil {
		return runtime.Result{}, err
	}

	rawGroups, present := data["products"]
	if !present || rawGroups == nil {
		if action == domain.ActionEdit {
			return runtime.Result{}, errMissing("products")
		}
		return runtime.Next(domain.Patch{}), nil
	}
	reviewed, err := reviewedGroups(rawGroups)
	if err != nil {
		return runtime.Result{}, err
	}

	groups := make([]domain.ProductGroup, len(st.Products))
	for i, g := range st.Products {
		g.Options = append([]domain.ProductOption{}, g.Options...)
		groups[i] = g
	}
	for _, r := range reviewed {
		for i := range groups {
			if !strings.EqualFold(strings.TrimSpace(r.Item), groups[i].Item) {
				continue
			}
			opts := sanitize.Products(r.Options, groups[i].Category, s.deps.Discovery.MaxOptions)
			if len(opts) == 0 {
				opts = []domain.ProductOption{sanitize.Placeholder(groups[i].Item, groups[i].Category)}
			}
			groups[i].Options = opts
		}
	}
	return runtime.Next(domain.Patch{Products: domain.Set(groups)}), nil
}
