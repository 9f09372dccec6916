package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/cartwise/pkg/domain"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ThreadID -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(threadID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[threadID]; !ok {
		sm.subscribers[threadID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[threadID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[threadID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, threadID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(threadID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, ok := sm.subscribers[threadID]; ok {
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				slog.Warn("SSE: Client buffer full, dropping message", "thread_id", threadID)
			}
		}
	}
}

// publish broadcasts the new position of a session along with the fields
// that changed since before.
func (s *Server) publish(ctx context.Context, out *domain.Outcome, before *domain.State) {
	ev := SessionEvent{ThreadID: out.ThreadID, Status: out.Status}
	if out.Review != nil {
		ev.Review = out.Review.Kind
	}
	if cp, err := s.Engine.Inspect(ctx, out.ThreadID); err == nil {
		if changed := domain.Diff(before, cp.State); changed != 0 {
			ev.Changed = strings.Split(changed.String(), ",")
		}
	}
	if bytes, err := json.Marshal(ev); err == nil {
		s.Streams.Broadcast(out.ThreadID, string(bytes))
	}
}

// SubscribeEvents handles the GET /events?thread_id= request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	threadID := params.ThreadID

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(threadID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
