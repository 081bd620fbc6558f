// Package http serves conversations over HTTP, Server-Sent Events and WebSocket.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson"
	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Welcome to Spokesperson! POST /sessions to start a conversation."

// Service is the conversation API served by this package.
type Service interface {
	Start(ctx context.Context, sessionID, displayName string) (*spokesperson.Turn, error)
	Resume(ctx context.Context, sessionID string) (*spokesperson.Turn, error)
	Submit(ctx context.Context, sessionID, raw string) (*domain.ProgressionResult, error)
	Restart(ctx context.Context, sessionID string) (*spokesperson.Turn, error)
	History(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error)
	Catalog() *domain.Catalog
	Observe(fn spokesperson.Observer)
}

// Server holds the handlers' dependencies.
type Server struct {
	svc      Service
	streams  *StreamManager
	logger   *slog.Logger
	metrics  http.Handler
	maxInput int
	cookie   string
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

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxInputSize bounds answers in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// WithSessionCookie names the cookie used by the form-style compatibility routes.
func WithSessionCookie(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.cookie = name
		}
	}
}

// NewServer creates a Server and subscribes its stream manager to svc.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		logger:   logging.NewNop(),
		maxInput: runner.DefaultMaxInputSize,
		cookie:   "spokesperson_session",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)
	svc.Observe(s.publish)
	return s
}

// NewHandler is a shortcut for NewServer(svc, opts...).Handler().
func NewHandler(svc Service, opts ...Option) http.Handler {
	return NewServer(svc, opts...).Handler()
}

// Streams returns the SSE stream manager.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/", s.getWelcome)
	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/catalog", s.getCatalog)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/answers", s.submitAnswer)
			r.Post("/restart", s.restartSession)
			r.Get("/history", s.getHistory)
		})
	})

	r.Post("/start_conversation", s.startConversationCompat)
	r.Post("/generate_response", s.generateResponseCompat)

	r.Get("/events", s.subscribeEvents)
	r.Handle("/ws", s.websocketHandler())

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) getWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":       "spokesperson-http",
		"version":   strings.TrimSpace(spokesperson.Version),
		"questions": s.svc.Catalog().Len(),
	})
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": s.svc.Catalog().Questions()})
}

type createSessionRequest struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid request body")
			s.logger.Warn("createSession: invalid request body", "error", err)
			return
		}
	}

	turn, err := s.svc.Start(r.Context(), body.SessionID, body.DisplayName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTurnResponse(turn))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := s.svc.Resume(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTurnResponse(turn))
}

type answerRequest struct {
	UserInput *string `json:"user_input"`
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	s.answer(w, r, chi.URLParam(r, "sessionID"))
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request, sessionID string) {
	var body answerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, int64(s.maxInput)*4+1024)).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("answer: invalid request body", "error", err)
		return
	}
	if body.UserInput == nil {
		writeProblem(w, http.StatusBadRequest, "user_input is required")
		return
	}

	input, err := runner.SanitizeInputWithLimit(*body.UserInput, s.maxInput)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.svc.Submit(r.Context(), sessionID, input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnswerResponse(sessionID, res))
}

func (s *Server) restartSession(w http.ResponseWriter, r *http.Request) {
	turn, err := s.svc.Restart(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTurnResponse(turn))
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	records, err := s.svc.History(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Answers: records})
}

// startConversationCompat starts a session bound to a cookie.
func (s *Server) startConversationCompat(w http.ResponseWriter, r *http.Request) {
	turn, err := s.svc.Start(r.Context(), "", "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    turn.SessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, newTurnResponse(turn))
}

// generateResponseCompat answers for the session named by the cookie.
func (s *Server) generateResponseCompat(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(s.cookie)
	if err != nil || c.Value == "" {
		writeProblem(w, http.StatusBadRequest, "no conversation in progress, POST /start_conversation first")
		return
	}
	s.answer(w, r, c.Value)
}

func (s *Server) publish(ctx context.Context, ev spokesperson.Event) {
	if !s.streams.HasSubscribers(ev.SessionID) {
		return
	}
	payload, err := json.Marshal(newStreamEvent(ev))
	if err != nil {
		s.logger.Error("stream event encode failed", "session_id", ev.SessionID, "error", err)
		return
	}
	s.streams.Broadcast(ev.SessionID, string(payload))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var invalid *domain.InvalidAnswerError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, invalidAnswerResponse{
			Error:    "invalid answer",
			Question: invalid.Question.Prompt,
			Key:      invalid.Question.Key,
			Reason:   invalid.Reason,
		})
	case errors.Is(err, domain.ErrSessionNotFound):
		writeProblem(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConversationAlreadyComplete):
		writeProblem(w, http.StatusConflict, err.Error())
	case errors.Is(err, spokesperson.ErrEmptySessionID):
		writeProblem(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, spokesperson.ErrHistoryUnavailable):
		writeProblem(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, runner.ErrInputTooLarge):
		writeProblem(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, runner.ErrInvalidUTF8):
		writeProblem(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusServiceUnavailable, "request canceled")
	default:
		s.logger.Error("request failed", "error", err)
		writeProblem(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
