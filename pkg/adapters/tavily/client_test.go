package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req searchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "milk Dairy site:walmart.com price rating", req.Query)
		assert.Equal(t, 2, req.MaxResults)
		assert.Equal(t, "basic", req.SearchDepth)
		assert.Equal(t, []string{"walmart.com"}, req.IncludeDomains)

		_, _ = w.Write([]byte(`{"query": "q", "results": [
			{"title": "Great Value Milk", "url": "https://walmart.com/ip/1", "content": "$3.68 4.6 stars", "score": 0.9},
			{"title": "Horizon Milk", "url": "https://walmart.com/ip/2", "content": "$6.98", "score": 0.8},
			{"title": "Extra", "url": "https://walmart.com/ip/3", "content": "", "score": 0.1}
		]}`))
	}))
	defer srv.Close()

	c := New("tvly-test", WithBaseURL(srv.URL), WithIncludeDomains("walmart.com"), WithHTTPClient(srv.Client()))
	results, err := c.Search(context.Background(), "milk Dairy site:walmart.com price rating", 2)
	require.NoError(t, err)
	assert.Equal(t, []ports.SearchResult{
		{Title: "Great Value Milk", Snippet: "$3.68 4.6 stars", URL: "https://walmart.com/ip/1"},
		{Title: "Horizon Milk", Snippet: "$6.98", URL: "https://walmart.com/ip/2"},
	}, results)
}

func TestSearch_MissingKey(t *testing.T) {
	_, err := New("").Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearch_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New("k", WithBaseURL(srv.URL)).Search(context.Background(), "q", 5)
	assert.ErrorContains(t, err, "503")
}
