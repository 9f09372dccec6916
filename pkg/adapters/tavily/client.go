// Package tavily implements ports.Searcher on the Tavily search API.
package tavily

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cartwise/internal/httpjson"
	"github.com/aretw0/cartwise/pkg/ports"
)

const (
	DefaultBaseURL = "https://api.tavily.com"
	DefaultTimeout = 30 * time.Second

	// maxResults is the API's upper bound.
	maxResults = 20
)

// ErrMissingAPIKey is returned when the client has no API key.
var ErrMissingAPIKey = errors.New("tavily API key is not set")

// Client searches the web through Tavily.
type Client struct {
	apiKey         string
	baseURL        string
	depth          string
	includeDomains []string
	http           *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithSearchDepth selects "basic" (default) or "advanced" search.
func WithSearchDepth(depth string) Option {
	return func(c *Client) {
		if depth != "" {
			c.depth = depth
		}
	}
}

// WithIncludeDomains restricts results to the given domains.
func WithIncludeDomains(domains ...string) Option {
	return func(c *Client) {
		c.includeDomains = domains
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// New creates a client for the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		depth:   "basic",
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

// Search runs query and returns at most maxResults hits in ranking order.
func (c *Client) Search(ctx context.Context, query string, max int) ([]ports.SearchResult, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if max <= 0 || max > maxResults {
		max = maxResults
	}

	resp, err := httpjson.Post[searchResponse](ctx, c.http, c.baseURL+"/search", searchRequest{
		Query:          query,
		SearchDepth:    c.depth,
		MaxResults:     max,
		IncludeDomains: c.includeDomains,
	}, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}

	out := make([]ports.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(out) >= max {
			break
		}
		out = append(out, ports.SearchResult{
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
		})
	}
	return out, nil
}
