package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/cartwise/pkg/adapters/memory"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/aretw0/cartwise/pkg/session"
)

// ScriptedGenerator answers prompts by matching a substring (usually a prompt
// header). Each rule holds a queue of replies; the last reply repeats once the
// queue runs dry. Safe for concurrent use.
type ScriptedGenerator struct {
	mu      sync.Mutex
	rules   []*rule
	prompts []string
	// Err, when set, is returned for every call.
	Err error
}

type rule struct {
	match   string
	replies []string
}

// NewScriptedGenerator returns an empty script. Unmatched prompts fail.
func NewScriptedGenerator() *ScriptedGenerator {
	return &ScriptedGenerator{}
}

// On queues replies for prompts containing match. Rules are tried in the order
// they were added.
func (g *ScriptedGenerator) On(match string, replies ...string) *ScriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.rules {
		if r.match == match {
			r.replies = append(r.replies, replies...)
			return g
		}
	}
	g.rules = append(g.rules, &rule{match: match, replies: replies})
	return g
}

func (g *ScriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	for _, r := range g.rules {
		if !strings.Contains(prompt, r.match) || len(r.replies) == 0 {
			continue
		}
		reply := r.replies[0]
		if len(r.replies) > 1 {
			r.replies = r.replies[1:]
		}
		return reply, nil
	}
	return "", fmt.Errorf("no scripted reply for prompt: %.80q", prompt)
}

// Calls counts the prompts that contained match.
func (g *ScriptedGenerator) Calls(match string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.prompts {
		if strings.Contains(p, match) {
			n++
		}
	}
	return n
}

// Prompts returns every prompt received so far.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.prompts...)
}

// StaticSearcher returns the same results for every query and records queries.
type StaticSearcher struct {
	mu      sync.Mutex
	Results []ports.SearchResult
	Err     error
	queries []string
}

func (s *StaticSearcher) Search(ctx context.Context, query string, maxResults int) ([]ports.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.Err != nil {
		return nil, s.Err
	}
	if maxResults > 0 && len(s.Results) > maxResults {
		return append([]ports.SearchResult{}, s.Results[:maxResults]...), nil
	}
	return append([]ports.SearchResult{}, s.Results...), nil
}

// Queries returns the queries received so far.
func (s *StaticSearcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.queries...)
}

// RecordingCartBuilder returns URL and records every selection it was given.
type RecordingCartBuilder struct {
	mu    sync.Mutex
	URL   string
	Err   error
	calls [][]domain.Selection
}

func (c *RecordingCartBuilder) BuildCart(ctx context.Context, selection []domain.Selection) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]domain.Selection{}, selection...))
	if c.Err != nil {
		return "", c.Err
	}
	return c.URL, nil
}

// Calls returns the recorded selections.
func (c *RecordingCartBuilder) Calls() [][]domain.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]domain.Selection{}, c.calls...)
}

// NewSessions returns a session manager over a fresh in-memory store.
func NewSessions(t *testing.T, opts ...session.Option) *session.Manager {
	t.Helper()
	return session.NewManager(memory.NewStore(), opts...)
}
