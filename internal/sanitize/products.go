package sanitize

import (
	"math"
	"strings"
	"unicode"

	"github.com/aretw0/cartwise/pkg/domain"
)

// Placeholder values used when extraction yields no valid candidate.
const (
	PlaceholderPrice  = 10.99
	PlaceholderRating = 4.0
	PlaceholderBrand  = "Generic"
)

// RawProduct is a product record as emitted by the model, before validation.
type RawProduct struct {
	Item        string  `json:"item,omitempty" mapstructure:"item"`
	Name        string  `json:"name" mapstructure:"name"`
	Price       Amount  `json:"price" mapstructure:"-"`
	Rating      *Amount `json:"rating,omitempty" mapstructure:"-"`
	Brand       string  `json:"brand,omitempty" mapstructure:"brand"`
	Category    string  `json:"category,omitempty" mapstructure:"category"`
	Description string  `json:"description,omitempty" mapstructure:"description"`
}

// Option validates a raw record. It rejects blank names and prices that are
// missing, unparseable or negative. A bad rating is dropped, not the record.
// Prices are rounded to whole cents.
func (r RawProduct) Option(category string) (domain.ProductOption, bool) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return domain.ProductOption{}, false
	}
	price, ok := r.Price.NonNegative()
	if !ok {
		return domain.ProductOption{}, false
	}

	opt := domain.ProductOption{
		Name:        name,
		Price:       math.Round(price*100) / 100,
		Brand:       strings.TrimSpace(r.Brand),
		Category:    category,
		Description: strings.TrimSpace(r.Description),
	}
	if r.Rating != nil {
		if v, ok := r.Rating.NonNegative(); ok {
			opt.Rating = &v
		}
	}
	return opt, true
}

// Products keeps at most max valid options in their original order.
// Every accepted option carries the item's category.
func Products(raw []RawProduct, category string, max int) []domain.ProductOption {
	out := make([]domain.ProductOption, 0, len(raw))
	for _, r := range raw {
		if max > 0 && len(out) >= max {
			break
		}
		if opt, ok := r.Option(category); ok {
			out = append(out, opt)
		}
	}
	return out
}

// Placeholder synthesizes the single option substituted for an item whose
// extraction produced nothing usable.
func Placeholder(item, category string) domain.ProductOption {
	rating := PlaceholderRating
	return domain.ProductOption{
		Name:        titleCase(item) + " - Option 1",
		Price:       PlaceholderPrice,
		Rating:      &rating,
		Brand:       PlaceholderBrand,
		Category:    category,
		Description: "Quality " + item + " product",
	}
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := true
	for _, r := range s {
		if unicode.IsLetter(r) {
			if start {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			start = false
			continue
		}
		b.WriteRune(r)
		start = true
	}
	return b.String()
}
