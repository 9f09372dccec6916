package sanitize

import (
	"math"
	"strings"

	"github.com/aretw0/cartwise/pkg/domain"
)

// ValidateSelection matches picks against the offered options.
// A pick survives only if it names an option offered for its item; at most one
// pick per item is kept and the price is always the offered one. Picks without
// an item are matched by option name against items not yet selected.
// The result follows the order of groups.
func ValidateSelection(groups []domain.ProductGroup, picks []RawProduct) []domain.Selection {
	chosen := make(map[int]domain.ProductOption, len(groups))

	for _, pick := range picks {
		name := normalize(pick.Name)
		if name == "" {
			continue
		}
		item := normalize(pick.Item)
		for gi, g := range groups {
			if _, taken := chosen[gi]; taken {
				continue
			}
			if item != "" && normalize(g.Item) != item {
				continue
			}
			if opt, ok := findOption(g.Options, name); ok {
				chosen[gi] = opt
				break
			}
		}
	}

	out := make([]domain.Selection, 0, len(chosen))
	for gi, g := range groups {
		if opt, ok := chosen[gi]; ok {
			out = append(out, domain.Selection{Item: g.Item, ProductOption: opt})
		}
	}
	return out
}

func findOption(opts []domain.ProductOption, name string) (domain.ProductOption, bool) {
	for _, o := range opts {
		if normalize(o.Name) == name {
			return o, true
		}
	}
	return domain.ProductOption{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// cents compares money without float drift.
func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// centsEpsilon absorbs the drift of a float that should hold whole cents.
const centsEpsilon = 1e-6

// WithinBudget reports whether the selection total fits the budget.
// Sub-cent prices count as the next cent up and a sub-cent budget as the cent
// below, so a fitting selection never exceeds the raw budget.
func WithinBudget(sel []domain.Selection, budget float64) bool {
	var total int64
	for _, s := range sel {
		total += int64(math.Ceil(s.Price*100 - centsEpsilon))
	}
	return total <= int64(math.Floor(budget*100+centsEpsilon))
}

// ClampToBudget drops picks until the total fits the budget. The lowest rated
// pick goes first; among equal ratings the more expensive one goes first.
func ClampToBudget(sel []domain.Selection, budget float64) []domain.Selection {
	out := append([]domain.Selection{}, sel...)
	for len(out) > 0 && !WithinBudget(out, budget) {
		drop := 0
		for i := 1; i < len(out); i++ {
			if worse(out[i], out[drop]) {
				drop = i
			}
		}
		out = append(out[:drop], out[drop+1:]...)
	}
	return out
}

// worse reports whether a is a better candidate for removal than b.
func worse(a, b domain.Selection) bool {
	ra, rb := ratingOf(a.ProductOption), ratingOf(b.ProductOption)
	if ra != rb {
		return ra < rb
	}
	return cents(a.Price) > cents(b.Price)
}

// ratingOf ranks unrated options below every rated one.
func ratingOf(o domain.ProductOption) float64 {
	if o.Rating == nil {
		return -1
	}
	return *o.Rating
}

// HighestRated picks the best rated option of every group. Ties go to the
// cheaper option, then to the one offered first. Groups without options are skipped.
func HighestRated(groups []domain.ProductGroup) []domain.Selection {
	out := make([]domain.Selection, 0, len(groups))
	for _, g := range groups {
		if len(g.Options) == 0 {
			continue
		}
		best := g.Options[0]
		for _, o := range g.Options[1:] {
			ro, rb := ratingOf(o), ratingOf(best)
			if ro > rb || (ro == rb && cents(o.Price) < cents(best.Price)) {
				best = o
			}
		}
		out = append(out, domain.Selection{Item: g.Item, ProductOption: best})
	}
	return out
}
