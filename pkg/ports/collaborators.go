package ports

import (
	"context"

	"github.com/aretw0/cartwise/pkg/domain"
)

// TextGenerator produces free text from a prompt (an LLM).
// Output is untrusted and always passes through the sanitizer.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SearchResult is one hit returned by a Searcher.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Searcher runs a web search query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// CartBuilder turns a selection into a checkout URL.
type CartBuilder interface {
	BuildCart(ctx context.Context, selection []domain.Selection) (string, error)
}
