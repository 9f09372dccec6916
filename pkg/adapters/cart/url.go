// Package cart builds checkout links for a product selection.
package cart

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/aretw0/cartwise/pkg/domain"
)

// DefaultBaseURL is the checkout page used when none is configured.
const DefaultBaseURL = "https://walmart.com/cart"

// URLBuilder implements ports.CartBuilder by encoding the selection into the
// query string of a checkout link. It performs no network calls.
type URLBuilder struct {
	BaseURL string
}

// NewURLBuilder returns a builder for base, or DefaultBaseURL when base is empty.
func NewURLBuilder(base string) *URLBuilder {
	if base == "" {
		base = DefaultBaseURL
	}
	return &URLBuilder{BaseURL: base}
}

// BuildCart returns the checkout link with one "item" parameter per product.
func (b *URLBuilder) BuildCart(ctx context.Context, selection []domain.Selection) (string, error) {
	u, err := url.Parse(b.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid cart base URL %q: %w", b.BaseURL, err)
	}

	q := u.Query()
	for _, s := range selection {
		q.Add("item", s.Name)
	}
	q.Set("total", strconv.FormatFloat(domain.SelectionTotal(selection), 'f', 2, 64))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
