// Package mcp exposes conversations as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson"
	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CatalogURI is the resource holding the question catalog.
const CatalogURI = "spokesperson://catalog"

// KindInvalidAnswer marks a TurnResponse whose answer was rejected.
const KindInvalidAnswer = "invalid_answer"

// TurnResponse is the structured result of every conversation tool.
type TurnResponse struct {
	SessionID string               `json:"session_id" jsonschema_description:"Session to pass to the next call"`
	Kind      string               `json:"kind" jsonschema_description:"next_question, conversation_complete or invalid_answer"`
	Prompt    string               `json:"next_question,omitempty" jsonschema_description:"Question to ask the user"`
	Question  *domain.QuestionSpec `json:"question,omitempty"`
	Stage     int                  `json:"stage"`
	Reason    string               `json:"reason,omitempty" jsonschema_description:"Why the answer was rejected"`
	Summary   string               `json:"summary,omitempty" jsonschema_description:"Profile summary once complete"`
	Answers   map[string]string    `json:"answers,omitempty"`
	Warnings  []string             `json:"warnings,omitempty"`
}

// Service is the conversation API exposed as tools.
type Service interface {
	Start(ctx context.Context, sessionID, displayName string) (*spokesperson.Turn, error)
	Submit(ctx context.Context, sessionID, raw string) (*domain.ProgressionResult, error)
	Restart(ctx context.Context, sessionID string) (*spokesperson.Turn, error)
	History(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error)
	Catalog() *domain.Catalog
}

// Server wraps the Service and exposes it as an MCP Server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("spokesperson-mcp", strings.TrimSpace(spokesperson.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is canceled.
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

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down mcp server")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type startArgs struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
}

type submitArgs struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_conversation",
		mcp.WithDescription("Start a profile conversation and get the first question. Restarts the session when it exists."),
		mcp.WithString("session_id", mcp.Description("Session to start (optional, generated when empty)")),
		mcp.WithString("display_name", mcp.Description("Name shown in the answer history (optional)")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("submit_answer",
		mcp.WithDescription("Answer the current question. Rejected answers return kind invalid_answer and the same question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_conversation")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("The user's answer")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("restart_conversation",
		mcp.WithDescription("Discard answers and return to the first question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to restart")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleRestart))

	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("List the answers recorded for a session, oldest first."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to inspect")),
	), s.handleHistory)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args startArgs) (TurnResponse, error) {
	turn, err := s.svc.Start(ctx, args.SessionID, args.DisplayName)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return turnResponse(turn), nil
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args submitArgs) (TurnResponse, error) {
	clean, err := runner.SanitizeInput(args.Answer)
	if err != nil {
		s.logger.Warn("mcp submit: input rejected", "error", err, "size", len(args.Answer))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.svc.Submit(ctx, args.SessionID, clean)
	var invalid *domain.InvalidAnswerError
	switch {
	case errors.As(err, &invalid):
		q := invalid.Question
		return TurnResponse{
			SessionID: args.SessionID,
			Kind:      KindInvalidAnswer,
			Prompt:    q.Prompt,
			Question:  &q,
			Reason:    invalid.Reason,
		}, nil
	case err != nil:
		return TurnResponse{}, fmt.Errorf("submit failed: %w", err)
	}

	return TurnResponse{
		SessionID: args.SessionID,
		Kind:      string(res.Kind),
		Prompt:    res.Prompt,
		Question:  res.Question,
		Stage:     res.Stage,
		Summary:   res.Summary,
		Answers:   res.Answers,
		Warnings:  res.WarningMessages(),
	}, nil
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (TurnResponse, error) {
	turn, err := s.svc.Restart(ctx, args.SessionID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("restart failed: %w", err)
	}
	return turnResponse(turn), nil
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.svc.History(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(records)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Question Catalog",
		mcp.WithResourceDescription("The ordered profile questions"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.svc.Catalog().Questions())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CatalogURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func turnResponse(t *spokesperson.Turn) TurnResponse {
	q := t.Question
	resp := TurnResponse{
		SessionID: t.SessionID,
		Kind:      string(domain.ResultNextQuestion),
		Prompt:    t.Prompt(),
		Question:  &q,
		Stage:     t.Stage,
	}
	for _, w := range t.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp
}
