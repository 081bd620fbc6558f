package spokesperson

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/Tyler-Pritchard/Spokesperson/internal/progression"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/memory"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/session"
	"github.com/google/uuid"
)

// ErrHistoryUnavailable is returned by History when no answer log is configured.
var ErrHistoryUnavailable = errors.New("answer history is not available")

// ErrEmptySessionID is returned when an operation needs an explicit session ID.
var ErrEmptySessionID = errors.New("session id is required")

// Service is the entry point for transports. It owns the progression engine,
// serializes calls per session and persists states between calls.
type Service struct {
	catalog  *domain.Catalog
	engine   *progression.Engine
	sessions *session.Manager
	answers  ports.AnswerLog
	logger   *slog.Logger
	newID    func() string

	store   ports.StateStore
	locker  ports.DistributedLocker
	summary progression.SummaryBuilder
	phraser progression.Phraser
	hooks   domain.LifecycleHooks

	mu        sync.RWMutex
	observers []Observer
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithCatalog replaces domain.DefaultCatalog.
func WithCatalog(c *domain.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithStateStore sets where conversation states live between calls (default: memory).
func WithStateStore(store ports.StateStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithAnswerLog enables the audit trail of accepted answers.
func WithAnswerLog(log ports.AnswerLog) Option {
	return func(s *Service) {
		s.answers = log
	}
}

// WithSummaryBuilder replaces the template summary.
func WithSummaryBuilder(b progression.SummaryBuilder) Option {
	return func(s *Service) {
		s.summary = b
	}
}

// WithPhraser enables conversational phrasing of follow-up questions.
func WithPhraser(p progression.Phraser) Option {
	return func(s *Service) {
		s.phraser = p
	}
}

// WithLocker serializes sessions across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides the UUID session ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New builds a Service. Without options it runs the default catalog on memory storage.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		catalog: domain.DefaultCatalog(),
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		return nil, &domain.CatalogError{Index: -1, Reason: "catalog is nil"}
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}

	engineOpts := []progression.EngineOption{
		progression.WithLifecycleHooks(s.hooks),
		progression.WithLogger(s.logger),
	}
	if s.answers != nil {
		engineOpts = append(engineOpts, progression.WithAnswerLog(s.answers))
	}
	if s.summary != nil {
		engineOpts = append(engineOpts, progression.WithSummaryBuilder(s.summary))
	}
	if s.phraser != nil {
		engineOpts = append(engineOpts, progression.WithPhraser(s.phraser))
	}
	s.engine = progression.NewEngine(s.catalog, engineOpts...)

	managerOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(s.locker))
	}
	s.sessions = session.NewManager(s.store, managerOpts...)

	return s, nil
}

// Catalog returns the question catalog.
func (s *Service) Catalog() *domain.Catalog {
	return s.catalog
}

// Sessions returns the session manager.
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// Observe registers fn to receive every state change. Observers run synchronously
// after the state is saved and must not block.
func (s *Service) Observe(fn Observer) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Service) notify(ctx context.Context, ev Event) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(ctx, ev)
	}
}

// Start creates a fresh conversation and returns its first question.
// An empty sessionID gets a generated one; an existing session is restarted.
// This is the session-initialization hook of every transport.
func (s *Service) Start(ctx context.Context, sessionID, displayName string) (*Turn, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = s.newID()
	}

	var (
		turn   *Turn
		before *domain.ConversationState
		after  *domain.ConversationState
	)
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := s.sessions.Store().Load(ctx, sessionID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			state = domain.NewConversationState(sessionID)
		case err != nil:
			return fmt.Errorf("load session %s: %w", sessionID, err)
		default:
			before = state.Clone()
		}

		q, err := s.engine.Start(ctx, state)
		if err != nil {
			return err
		}
		if err := s.sessions.Store().Save(ctx, sessionID, state); err != nil {
			return fmt.Errorf("save session %s: %w", sessionID, err)
		}
		turn = s.turn(state, q)
		after = state.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.answers != nil {
		if err := s.answers.RegisterSession(ctx, sessionID, displayName); err != nil {
			perr := &domain.PersistError{SessionID: sessionID, Op: "register session", Err: err}
			s.logger.Warn("session registration failed", "session_id", sessionID, "error", perr)
			turn.Warnings = append(turn.Warnings, perr)
		}
	}

	s.notify(ctx, Event{Type: EventStarted, SessionID: sessionID, Turn: turn, Diff: domain.Diff(before, after)})
	return turn, nil
}

// Resume returns the question an existing session is waiting on, starting the
// session when it does not exist yet.
func (s *Service) Resume(ctx context.Context, sessionID string) (*Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return s.Start(ctx, "", "")
	}

	state, created, err := s.sessions.LoadOrStart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if created {
		return s.Start(ctx, sessionID, "")
	}

	q, ok := s.engine.Current(state)
	if !ok {
		return s.Restart(ctx, sessionID)
	}
	return s.turn(state, q), nil
}

// Submit hands one raw answer to the engine.
//
// Errors: *domain.InvalidAnswerError (state unchanged, re-ask),
// domain.ErrSessionNotFound, domain.ErrConversationAlreadyComplete.
// Answer log and provider failures are in the result's Warnings.
//
// The answer is appended to the answer log before the state is saved. When the
// state store fails, Submit returns the error and the stored state keeps its
// previous stage, but the log already holds the answer; a retry logs it again.
// The log is an audit trail and never drives progression.
func (s *Service) Submit(ctx context.Context, sessionID, raw string) (*domain.ProgressionResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySessionID
	}

	var (
		result        *domain.ProgressionResult
		before, after *domain.ConversationState
	)
	err := s.sessions.Update(ctx, sessionID, func(ctx context.Context, state *domain.ConversationState) error {
		before = state.Clone()
		var err error
		result, err = s.engine.SubmitAnswer(ctx, state, raw)
		if err != nil {
			return err
		}
		after = state.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	evType := EventAnswered
	if result.Complete() {
		evType = EventCompleted
	}
	s.notify(ctx, Event{Type: evType, SessionID: sessionID, Result: result, Diff: domain.Diff(before, after)})
	return result, nil
}

// Restart resets an existing session to its first question.
func (s *Service) Restart(ctx context.Context, sessionID string) (*Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySessionID
	}

	var (
		turn          *Turn
		before, after *domain.ConversationState
	)
	err := s.sessions.Update(ctx, sessionID, func(ctx context.Context, state *domain.ConversationState) error {
		before = state.Clone()
		q, err := s.engine.Start(ctx, state)
		if err != nil {
			return err
		}
		turn = s.turn(state, q)
		after = state.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Event{Type: EventRestarted, SessionID: sessionID, Turn: turn, Diff: domain.Diff(before, after)})
	return turn, nil
}

// State returns a copy of the session's current state.
func (s *Service) State(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	return s.sessions.Load(ctx, sessionID)
}

// History returns the recorded answers of a session in recording order.
// The log is an audit trail; it never drives progression.
func (s *Service) History(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	if s.answers == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.answers.FetchHistory(ctx, sessionID)
}

func (s *Service) turn(state *domain.ConversationState, q domain.QuestionSpec) *Turn {
	return &Turn{
		SessionID: state.SessionID,
		Question:  q,
		Stage:     state.Stage,
		Total:     s.catalog.Len(),
	}
}
