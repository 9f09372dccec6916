package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/cartwise"
	"github.com/aretw0/cartwise/internal/logging"
	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:generate go tool oapi-codegen -config ../../../api/oapi-codegen.yaml ../../../api/openapi.yaml

// Engine is the part of cartwise.Engine the HTTP front end needs.
type Engine interface {
	StartThread(ctx context.Context, threadID, input string) (*domain.Outcome, error)
	Resume(ctx context.Context, threadID string, data map[string]any) (*domain.Outcome, error)
	Inspect(ctx context.Context, threadID string) (*domain.Checkpoint, error)
	Sessions(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, threadID string) error
}

// Server implements the generated ServerInterface over an Engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// Option configures the Server.
type Option func(*Server)

// WithMetrics exposes h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			server.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}

	return HandlerWithOptions(server, ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: server.badRequest,
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Cartwise API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// badRequest reports parameters the generated wrapper could not bind.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("Invalid request parameters", "path", r.URL.Path, "err", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chat handles the POST /chat request.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Chat: Invalid request body", "err", err)
		return
	}

	out, err := s.Engine.StartThread(r.Context(), body.ThreadID, body.Message)
	if err != nil {
		s.fail(w, "Chat", err)
		return
	}
	s.publish(r.Context(), out, nil)
	writeJSON(w, http.StatusOK, newChatResponse(out))
}

// Resume handles the POST /resume request.
func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	var body ResumeJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Resume: Invalid request body", "err", err)
		return
	}
	if body.ThreadID == "" {
		http.Error(w, "thread_id is required", http.StatusBadRequest)
		return
	}

	var before *domain.State
	if cp, err := s.Engine.Inspect(r.Context(), body.ThreadID); err == nil {
		before = cp.State
	}

	out, err := s.Engine.Resume(r.Context(), body.ThreadID, body.Data)
	if err != nil {
		s.fail(w, "Resume", err)
		return
	}
	s.publish(r.Context(), out, before)
	writeJSON(w, http.StatusOK, newChatResponse(out))
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, SessionList{Sessions: ids})
}

// GetSession handles the GET /sessions/{threadID} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, threadID string) {
	cp, err := s.Engine.Inspect(r.Context(), threadID)
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// DeleteSession handles the DELETE /sessions/{threadID} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, threadID string) {
	if err := s.Engine.Delete(r.Context(), threadID); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Info{
		App:     "cartwise-http",
		Version: strings.TrimSpace(cartwise.Version),
	})
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) int {
	var stageErr *runtime.StageError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidReviewResponse):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrStaleReview), errors.Is(err, domain.ErrNoPendingReview):
		return http.StatusConflict
	case errors.As(err, &stageErr):
		// A collaborator failed; the session can be resumed once it recovers.
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "err", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), code)
}

func newChatResponse(out *domain.Outcome) ChatResponse {
	resp := ChatResponse{
		ThreadID:          out.ThreadID,
		Status:            out.Status,
		OptimizedProducts: []domain.Selection{},
		Message:           cartwise.OutcomeMessage(out),
		Interrupt:         out.Review,
	}
	if out.Result != nil {
		if out.Result.OptimizedProducts != nil {
			resp.OptimizedProducts = out.Result.OptimizedProducts
		}
		resp.CartURL = out.Result.CartURL
	}
	return resp
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
