package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/cartwise"
	"github.com/aretw0/cartwise/internal/stages"
	"github.com/aretw0/cartwise/internal/testutils"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gen := testutils.NewScriptedGenerator().
		On(stages.HeaderClassify, `{"task_type": "goal_or_dish", "item_list": ["guacamole"], "budget": null}`).
		On(stages.HeaderExpand, `["avocado", "lime"]`).
		On(stages.HeaderCategorize, `{"avocado": "Fresh Produce", "lime": "Fresh Produce"}`).
		On(`about "avocado"`, `[{"name": "Hass Avocado", "price": 0.98, "rating": 4.3}]`).
		On(`about "lime"`, `[{"name": "Fresh Lime", "price": 0.25, "rating": 4.1}]`)
	search := &testutils.StaticSearcher{Results: []ports.SearchResult{{Title: "Produce", Snippet: "fresh", URL: "https://walmart.com/ip/4"}}}
	cart := &testutils.RecordingCartBuilder{URL: "https://walmart.com/cart?item=Hass+Avocado&item=Fresh+Lime"}

	eng, err := cartwise.New(gen, search, cart, cartwise.WithReviews(domain.NewReviewSet(domain.ReviewExpansion)))
	require.NoError(t, err)
	return NewServer(eng)
}

func TestShoppingTools(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	resp, err := s.handleStart(ctx, mcp.CallToolRequest{}, startArgs{Message: "guacamole", ThreadID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, "g1", resp.ThreadID)
	assert.Equal(t, domain.StatusSuspended, resp.Status)
	require.NotNil(t, resp.Interrupt)
	assert.Equal(t, domain.ReviewExpansion, resp.Interrupt.Kind)
	assert.Equal(t, cartwise.WaitingMessage, resp.Message)

	resp, err = s.handleResume(ctx, mcp.CallToolRequest{}, resumeArgs{
		ThreadID: "g1",
		ReviewID: resp.Interrupt.ID,
		Data:     map[string]any{"action": "accept"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, resp.Status)
	assert.Equal(t, "Found 2 optimized products for $1.23", resp.Message)
	assert.Contains(t, resp.CartURL, "Hass+Avocado")

	res, err := s.handleGetSession(ctx, mcp.CallToolRequest{}, sessionArgs{ThreadID: "g1"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"thread_id":"g1"`)
	assert.Contains(t, text.Text, `"status":"done"`)
}

func TestShoppingTools_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, startArgs{Message: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.handleResume(ctx, mcp.CallToolRequest{}, resumeArgs{ThreadID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	res, err := s.handleGetSession(ctx, mcp.CallToolRequest{}, sessionArgs{ThreadID: "missing"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
