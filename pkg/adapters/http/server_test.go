package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/cartwise"
	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/internal/stages"
	"github.com/aretw0/cartwise/internal/testutils"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	gen := testutils.NewScriptedGenerator().
		On(stages.HeaderClassify, `{"task_type": "direct_product_list", "item_list": ["coffee"], "budget": 12}`).
		On(stages.HeaderCategorize, `{"coffee": "Coffee"}`).
		On(stages.HeaderExtract, `[
			{"name": "Folgers Classic Roast", "price": 8.97, "rating": 4.7},
			{"name": "Starbucks Pike Place", "price": 13.48, "rating": 4.8}
		]`).
		On(stages.HeaderOptimize, `[{"item": "coffee", "name": "Folgers Classic Roast"}]`)
	search := &testutils.StaticSearcher{Results: []ports.SearchResult{{Title: "Coffee", Snippet: "Ground coffee", URL: "https://walmart.com/ip/3"}}}
	cart := &testutils.RecordingCartBuilder{URL: "https://walmart.com/cart?item=Folgers"}

	eng, err := cartwise.New(gen, search, cart, cartwise.WithReviews(domain.NewReviewSet(domain.ReviewOptimization)))
	require.NoError(t, err)
	return NewHandler(eng, opts...)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeChat(t *testing.T, w *httptest.ResponseRecorder) ChatResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestChatAndResume(t *testing.T) {
	h := newTestHandler(t)

	resp := decodeChat(t, do(t, h, "POST", "/chat", ChatRequest{Message: "coffee under $12", ThreadID: "t1"}))
	assert.Equal(t, "t1", resp.ThreadID)
	assert.Equal(t, domain.StatusSuspended, resp.Status)
	assert.Equal(t, cartwise.WaitingMessage, resp.Message)
	require.NotNil(t, resp.Interrupt)
	assert.Equal(t, domain.ReviewOptimization, resp.Interrupt.Kind)
	assert.NotNil(t, resp.OptimizedProducts)

	resp = decodeChat(t, do(t, h, "POST", "/resume", ResumeRequest{
		ThreadID: "t1",
		Data:     map[string]any{"review_id": resp.Interrupt.ID, "action": "accept"},
	}))
	assert.Equal(t, domain.StatusDone, resp.Status)
	assert.Nil(t, resp.Interrupt)
	assert.Equal(t, "Found 1 optimized products for $8.97", resp.Message)
	assert.Equal(t, "https://walmart.com/cart?item=Folgers", resp.CartURL)
	require.Len(t, resp.OptimizedProducts, 1)
	assert.Equal(t, "Folgers Classic Roast", resp.OptimizedProducts[0].Name)
}

func TestChat_GeneratesThreadID(t *testing.T) {
	h := newTestHandler(t)
	resp := decodeChat(t, do(t, h, "POST", "/chat", ChatRequest{Message: "coffee"}))
	assert.NotEmpty(t, resp.ThreadID)
}

func TestErrorMapping(t *testing.T) {
	h := newTestHandler(t)
	first := decodeChat(t, do(t, h, "POST", "/chat", ChatRequest{Message: "coffee", ThreadID: "t1"}))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"blank message", "POST", "/chat", ChatRequest{Message: "  "}, http.StatusBadRequest},
		{"thread taken", "POST", "/chat", ChatRequest{Message: "tea", ThreadID: "t1"}, http.StatusConflict},
		{"missing thread", "POST", "/resume", ResumeRequest{Data: map[string]any{}}, http.StatusBadRequest},
		{"unknown thread", "POST", "/resume", ResumeRequest{ThreadID: "nope"}, http.StatusNotFound},
		{"stale review", "POST", "/resume", ResumeRequest{ThreadID: "t1", Data: map[string]any{"review_id": "t1:99"}}, http.StatusConflict},
		{"bad answer", "POST", "/resume", ResumeRequest{ThreadID: "t1", Data: map[string]any{"action": "shrug"}}, http.StatusBadRequest},
		{"unknown session", "GET", "/sessions/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	// Rejected answers leave the review pending.
	w := do(t, h, "GET", "/sessions/t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cp domain.Checkpoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cp))
	assert.Equal(t, domain.StatusSuspended, cp.Status)
	assert.Equal(t, first.Interrupt.ID, cp.Review.ID)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/chat", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessions(t *testing.T) {
	h := newTestHandler(t)
	decodeChat(t, do(t, h, "POST", "/chat", ChatRequest{Message: "coffee", ThreadID: "a"}))
	decodeChat(t, do(t, h, "POST", "/chat", ChatRequest{Message: "coffee", ThreadID: "b"}))

	w := do(t, h, "GET", "/sessions/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.ElementsMatch(t, []string{"a", "b"}, list["sessions"])

	w = do(t, h, "DELETE", "/sessions/a", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "GET", "/sessions/a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthInfoAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "cartwise_stage_runs_total 1")
	})
	h := newTestHandler(t, WithMetrics(metrics))

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", nil)
	assert.Contains(t, w.Body.String(), "cartwise-http")

	w = do(t, h, "GET", "/metrics", nil)
	assert.Contains(t, w.Body.String(), "cartwise_stage_runs_total")

	w = do(t, newTestHandler(t), "GET", "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeEvents_Session(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events?thread_id=t1", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	body, _ := json.Marshal(ChatRequest{Message: "coffee", ThreadID: "t1"})
	chat, err := srv.Client().Post(srv.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	chat.Body.Close()
	require.Equal(t, http.StatusOK, chat.StatusCode)

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var ev SessionEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "t1", ev.ThreadID)
	assert.Equal(t, domain.StatusSuspended, ev.Status)
	assert.Equal(t, domain.ReviewOptimization, ev.Review)
	assert.Contains(t, ev.Changed, "categories")
}

func TestSubscribeEvents_RequiresThread(t *testing.T) {
	w := do(t, newTestHandler(t), "GET", "/events", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, StatusFor(&runtime.StageError{Stage: domain.StageDiscover, Err: errors.New("timeout")}))
	assert.Equal(t, http.StatusConflict, StatusFor(fmt.Errorf("wrap: %w", domain.ErrConflict)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("disk full")))
}

func TestOpenAPIContract(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/sessions/{threadID}")

	w = do(t, h, "GET", "/swagger", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")

	swagger, err := GetSwagger()
	require.NoError(t, err)
	require.NoError(t, swagger.Validate(context.Background()))
	for _, p := range []string{"/chat", "/resume", "/events", "/sessions", "/sessions/{threadID}", "/health", "/info"} {
		assert.NotNil(t, swagger.Paths.Value(p), p)
	}
}

func TestSessions_WithoutTrailingSlash(t *testing.T) {
	h := newTestHandler(t)
	decodeChat(t, do(t, h, "POST", "/chat", ChatRequest{Message: "coffee", ThreadID: "a"}))

	w := do(t, h, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list SessionList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{"a"}, list.Sessions)
}
