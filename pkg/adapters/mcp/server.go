package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cartwise"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ShoppingResponse is the structured result of the shopping tools.
type ShoppingResponse struct {
	ThreadID          string             `json:"thread_id" jsonschema_description:"Session identifier to pass to resume_shopping"`
	Status            domain.Status      `json:"status" jsonschema_description:"running, suspended or done"`
	OptimizedProducts []domain.Selection `json:"optimized_products" jsonschema_description:"Selected products, one per item"`
	CartURL           string             `json:"cart_url" jsonschema_description:"Checkout link, empty when nothing was selected"`
	Message           string             `json:"message" jsonschema_description:"Human readable summary"`
	Interrupt         *domain.Review     `json:"interrupt,omitempty" jsonschema_description:"Pending review to answer with resume_shopping"`
}

// Engine defines the interface required by the MCP server to drive sessions.
type Engine interface {
	StartThread(ctx context.Context, threadID, input string) (*domain.Outcome, error)
	Resume(ctx context.Context, threadID string, data map[string]any) (*domain.Outcome, error)
	Inspect(ctx context.Context, threadID string) (*domain.Checkpoint, error)
	Sessions(ctx context.Context) ([]string, error)
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("cartwise-mcp", strings.TrimSpace(cartwise.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type startArgs struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

type resumeArgs struct {
	ThreadID string         `json:"thread_id"`
	ReviewID string         `json:"review_id"`
	Data     map[string]any `json:"data"`
}

type sessionArgs struct {
	ThreadID string `json:"thread_id"`
}

func (s *Server) registerTools() {
	// TOOL: start_shopping
	startTool := mcp.NewTool("start_shopping",
		mcp.WithDescription("Start a shopping session from a free-form request such as a list of products or a dish, optionally with a budget."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The shopping request")),
		mcp.WithString("thread_id", mcp.Description("Session identifier to use (optional, generated when omitted)")),
		mcp.WithOutputSchema[ShoppingResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	// TOOL: resume_shopping
	resumeTool := mcp.NewTool("resume_shopping",
		mcp.WithDescription("Answer the pending review of a shopping session. Omit data (or send {\"action\": \"accept\"}) to accept the proposal."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("review_id", mcp.Description("Identifier of the review being answered; makes retries safe")),
		mcp.WithObject("data", mcp.Description("Review answer, e.g. {\"action\": \"edit\", \"items\": [...]}")),
		mcp.WithOutputSchema[ShoppingResponse](),
	)
	s.mcpServer.AddTool(resumeTool, mcp.NewStructuredToolHandler(s.handleResume))

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the last checkpoint of a shopping session."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Session identifier")),
	), mcp.NewTypedToolHandler(s.handleGetSession))
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args startArgs) (ShoppingResponse, error) {
	out, err := s.engine.StartThread(ctx, args.ThreadID, args.Message)
	if err != nil {
		slog.Warn("MCP start_shopping failed", "err", err)
		return ShoppingResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return newShoppingResponse(out), nil
}

func (s *Server) handleResume(ctx context.Context, request mcp.CallToolRequest, args resumeArgs) (ShoppingResponse, error) {
	data := make(map[string]any, len(args.Data)+1)
	for k, v := range args.Data {
		data[k] = v
	}
	if args.ReviewID != "" {
		data["review_id"] = args.ReviewID
	}

	out, err := s.engine.Resume(ctx, args.ThreadID, data)
	if err != nil {
		slog.Warn("MCP resume_shopping failed", "thread_id", args.ThreadID, "err", err)
		return ShoppingResponse{}, fmt.Errorf("resume failed: %w", err)
	}
	return newShoppingResponse(out), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (*mcp.CallToolResult, error) {
	cp, err := s.engine.Inspect(ctx, args.ThreadID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(cp)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: cartwise://sessions
	s.mcpServer.AddResource(mcp.NewResource("cartwise://sessions", "Live shopping sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "cartwise://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func newShoppingResponse(out *domain.Outcome) ShoppingResponse {
	resp := ShoppingResponse{
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
