package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/runner"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionArgs identifies a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// PressArgs is the input of the press_keys tool.
type PressArgs struct {
	SessionID string `json:"session_id"`
	Keys      string `json:"keys"`
}

// SelectArgs is the input of the select_history tool.
type SelectArgs struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// EvaluateArgs is the input of the evaluate tool.
type EvaluateArgs struct {
	Expression string `json:"expression"`
}

// EvaluateResult is the output of the evaluate tool.
type EvaluateResult struct {
	Expression string `json:"expression" jsonschema_description:"The expression as evaluated"`
	Result     string `json:"result" jsonschema_description:"The formatted result"`
}

// Server exposes calculator sessions as MCP tools.
type Server struct {
	engine    ports.StatelessEngine
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.StatelessEngine, sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("abacus-mcp", abacus.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
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

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("press_keys",
		mcp.WithDescription("Press calculator keys on a session, creating it if needed. "+
			"Keys are written inline like on the keypad: digits, . + - × ÷ ( ), "+
			"sin cos tan √ x² % π, C (clear), del, =. Example: \"12+3×4=\"."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("keys", mcp.Required(), mcp.Description("Key script to apply in order")),
		mcp.WithOutputSchema[domain.State](),
	), mcp.NewStructuredToolHandler(s.handlePressKeys))

	s.mcpServer.AddTool(mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate an arithmetic expression without touching any session."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression using + - * / × ÷ ( ) and π")),
		mcp.WithOutputSchema[EvaluateResult](),
	), mcp.NewStructuredToolHandler(s.handleEvaluate))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the buffer, preview and history of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[domain.State](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("select_history",
		mcp.WithDescription("Load a previous result (0 is the newest) as the current value."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("History index, newest first")),
		mcp.WithOutputSchema[domain.State](),
	), mcp.NewStructuredToolHandler(s.handleSelectHistory))

	s.mcpServer.AddTool(mcp.NewTool("clear_history",
		mcp.WithDescription("Forget the finished calculations of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[domain.State](),
	), mcp.NewStructuredToolHandler(s.handleClearHistory))
}

func (s *Server) handlePressKeys(ctx context.Context, _ mcp.CallToolRequest, args PressArgs) (domain.State, error) {
	if args.SessionID == "" {
		return domain.State{}, fmt.Errorf("session_id is required")
	}
	script, err := runner.SanitizeInput(args.Keys)
	if err != nil {
		s.logger.Warn("MCP press_keys: input rejected", "err", err, "size", len(args.Keys))
		return domain.State{}, fmt.Errorf("input rejected: %w", err)
	}

	state, err := s.sessions.Update(ctx, args.SessionID, func(ctx context.Context, st *domain.State) (*domain.State, error) {
		return s.engine.PressScript(ctx, st, script)
	})
	if err != nil {
		return domain.State{}, fmt.Errorf("press_keys failed: %w", err)
	}
	return *state, nil
}

func (s *Server) handleEvaluate(_ context.Context, _ mcp.CallToolRequest, args EvaluateArgs) (EvaluateResult, error) {
	expr, err := runner.SanitizeInput(args.Expression)
	if err != nil {
		return EvaluateResult{}, fmt.Errorf("input rejected: %w", err)
	}
	result, err := s.engine.Evaluate(expr)
	if err != nil {
		return EvaluateResult{}, err
	}
	return EvaluateResult{Expression: expr, Result: result}, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.State, error) {
	state, err := s.sessions.Load(ctx, args.SessionID)
	if err != nil {
		return domain.State{}, fmt.Errorf("get_session %q: %w", args.SessionID, err)
	}
	return *state, nil
}

func (s *Server) handleSelectHistory(ctx context.Context, _ mcp.CallToolRequest, args SelectArgs) (domain.State, error) {
	state, err := s.sessions.Modify(ctx, args.SessionID, func(ctx context.Context, st *domain.State) (*domain.State, error) {
		return s.engine.SelectHistory(ctx, st, args.Index)
	})
	if err != nil {
		return domain.State{}, fmt.Errorf("select_history failed: %w", err)
	}
	return *state, nil
}

func (s *Server) handleClearHistory(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.State, error) {
	state, err := s.sessions.Modify(ctx, args.SessionID, s.engine.ClearHistory)
	if err != nil {
		return domain.State{}, fmt.Errorf("clear_history failed: %w", err)
	}
	return *state, nil
}

func (s *Server) registerResources() {
	// EXPOSE: abacus://sessions
	s.mcpServer.AddResource(mcp.NewResource("abacus://sessions", "Active calculator sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "abacus://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
