package progression

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/summary"
)

// ErrNilState is returned when a nil state is handed to the engine.
var ErrNilState = errors.New("conversation state is nil")

// SummaryBuilder produces the closing message of a conversation.
type SummaryBuilder interface {
	Build(ctx context.Context, req summary.Request) summary.Summary
}

// Phraser rephrases the next question given the answer just accepted.
type Phraser interface {
	Phrase(ctx context.Context, req summary.FollowUpRequest) (string, error)
}

// Engine is the conversation state machine.
// It is safe for concurrent use across sessions; callers serialize calls per session.
type Engine struct {
	catalog *domain.Catalog
	answers ports.AnswerLog
	summary SummaryBuilder
	phraser Phraser
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	clock   func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithAnswerLog sets the persistence collaborator for accepted answers.
func WithAnswerLog(log ports.AnswerLog) EngineOption {
	return func(e *Engine) {
		e.answers = log
	}
}

// WithSummaryBuilder overrides the default template summary.
func WithSummaryBuilder(b SummaryBuilder) EngineOption {
	return func(e *Engine) {
		if b != nil {
			e.summary = b
		}
	}
}

// WithPhraser enables conversational follow-up phrasing of the next question.
func WithPhraser(p Phraser) EngineOption {
	return func(e *Engine) {
		e.phraser = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine for the given catalog.
func NewEngine(catalog *domain.Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog: catalog,
		summary: summary.NewTemplateBuilder(),
		logger:  logging.NewNop(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog driving the engine.
func (e *Engine) Catalog() *domain.Catalog {
	return e.catalog
}

// Start resets the state to the beginning of the catalog and returns the first question.
func (e *Engine) Start(ctx context.Context, state *domain.ConversationState) (domain.QuestionSpec, error) {
	if state == nil {
		return domain.QuestionSpec{}, ErrNilState
	}
	state.Reset()

	first, _ := e.catalog.QuestionAt(0)
	e.emitStart(ctx, state.SessionID)
	return first, nil
}

// Current returns the question the state is waiting on.
// ok is false when the state is past the end of the catalog.
func (e *Engine) Current(state *domain.ConversationState) (domain.QuestionSpec, bool) {
	if state == nil {
		return domain.QuestionSpec{}, false
	}
	return e.catalog.QuestionAt(state.Stage)
}

// SubmitAnswer validates raw against the current question and, when valid,
// records it and advances the state.
//
// Invalid answers return a *domain.InvalidAnswerError and leave state untouched.
// A state already past the last question returns domain.ErrConversationAlreadyComplete.
// Answer log and provider failures never fail the call; they are reported in
// ProgressionResult.Warnings. The answer is logged before the caller saves state.
func (e *Engine) SubmitAnswer(ctx context.Context, state *domain.ConversationState, raw string) (*domain.ProgressionResult, error) {
	if state == nil {
		return nil, ErrNilState
	}

	question, ok := e.catalog.QuestionAt(state.Stage)
	if !ok {
		return nil, domain.ErrConversationAlreadyComplete
	}

	if err := ValidateAnswer(question, raw); err != nil {
		var invalid *domain.InvalidAnswerError
		if errors.As(err, &invalid) {
			e.emitRejected(ctx, state, question, invalid.Reason)
		}
		return nil, err
	}

	result := &domain.ProgressionResult{}

	if e.answers != nil {
		if _, err := e.answers.AppendAnswer(ctx, state.SessionID, raw); err != nil {
			result.Warnings = append(result.Warnings, e.warn(ctx, state.SessionID, &domain.PersistError{
				SessionID: state.SessionID,
				Op:        "append answer",
				Err:       err,
			}))
		}
	}

	if state.Answers == nil {
		state.Answers = make(map[string]string)
	}
	state.Answers[question.Key] = raw
	state.Stage++
	state.UpdatedAt = e.clock().UTC()
	e.emitAccepted(ctx, state, question)

	if next, ok := e.catalog.QuestionAt(state.Stage); ok {
		result.Kind = domain.ResultNextQuestion
		result.Stage = state.Stage
		result.Question = &next
		result.Prompt = e.phrase(ctx, state, question, raw, next, result)
		return result, nil
	}

	started := e.clock()
	answers := maps.Clone(state.Answers)
	sum := e.summary.Build(ctx, summary.Request{
		SessionID: state.SessionID,
		Catalog:   e.catalog,
		Answers:   answers,
		StartedAt: state.StartedAt,
	})
	if sum.Warning != nil {
		result.Warnings = append(result.Warnings, e.warn(ctx, state.SessionID, sum.Warning))
	}

	state.Reset()

	result.Kind = domain.ResultConversationComplete
	result.Stage = state.Stage
	result.Summary = sum.Text
	result.Generated = sum.Generated
	result.Answers = answers

	e.emitComplete(ctx, state.SessionID, sum.Generated, e.clock().Sub(started))
	return result, nil
}

func (e *Engine) phrase(ctx context.Context, state *domain.ConversationState, prev domain.QuestionSpec, answer string, next domain.QuestionSpec, result *domain.ProgressionResult) string {
	if e.phraser == nil {
		return next.Prompt
	}

	text, err := e.phraser.Phrase(ctx, summary.FollowUpRequest{
		SessionID: state.SessionID,
		Previous:  prev,
		Answer:    answer,
		Next:      next,
	})
	if err != nil {
		result.Warnings = append(result.Warnings, e.warn(ctx, state.SessionID, err))
		return next.Prompt
	}
	return text
}

// warn logs and reports a non-fatal failure, returning it for the result.
func (e *Engine) warn(ctx context.Context, sessionID string, err error) error {
	e.logger.Warn("conversation continued after failure", "session_id", sessionID, "error", err)
	if e.hooks.OnWarning != nil {
		e.hooks.OnWarning(ctx, &domain.WarningEvent{
			EventBase: domain.NewEventBase(domain.EventWarning, sessionID),
			Err:       err,
		})
	}
	return err
}
