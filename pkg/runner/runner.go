package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Tyler-Pritchard/Spokesperson"
	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

// Commands recognized at the prompt instead of an answer.
const (
	CommandRestart = "/restart"
	CommandQuit    = "/quit"
)

// Service is the part of spokesperson.Service the Runner needs.
type Service interface {
	Start(ctx context.Context, sessionID, displayName string) (*spokesperson.Turn, error)
	Resume(ctx context.Context, sessionID string) (*spokesperson.Turn, error)
	Submit(ctx context.Context, sessionID, raw string) (*domain.ProgressionResult, error)
	Restart(ctx context.Context, sessionID string) (*spokesperson.Turn, error)
}

// Runner handles the conversation loop using provided IO.
type Runner struct {
	Handler     IOHandler
	Logger      *slog.Logger
	SessionID   string
	DisplayName string
	Continuous  bool
}

// NewRunner creates a Runner reading Stdin and writing Stdout unless configured otherwise.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run asks questions until the summary is shown, the input ends or ctx is canceled.
// End of input and cancellation are a normal exit.
func (r *Runner) Run(ctx context.Context, svc Service) error {
	turn, err := r.open(ctx, svc)
	if err != nil {
		return err
	}
	sessionID := turn.SessionID
	r.Logger.Debug("conversation opened", "session_id", sessionID, "stage", turn.Stage)

	if err := r.warn(ctx, turn.Warnings); err != nil {
		return err
	}
	if err := r.ask(ctx, turn.SessionID, turn.Question, turn.Stage, turn.Total); err != nil {
		return err
	}

	for {
		input, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case CommandQuit:
			return nil
		case CommandRestart:
			turn, err := svc.Restart(ctx, sessionID)
			if err != nil {
				return err
			}
			_ = r.Handler.SystemOutput(ctx, "Starting over.")
			if err := r.ask(ctx, sessionID, turn.Question, turn.Stage, turn.Total); err != nil {
				return err
			}
			continue
		}

		res, err := svc.Submit(ctx, sessionID, input)
		var invalid *domain.InvalidAnswerError
		switch {
		case errors.As(err, &invalid):
			r.Logger.Debug("answer rejected", "session_id", sessionID, "key", invalid.Question.Key, "reason", invalid.Reason)
			if err := r.Handler.Output(ctx, Message{Kind: MessageError, SessionID: sessionID, Text: capitalize(invalid.Reason) + "."}); err != nil {
				return err
			}
			if err := r.ask(ctx, sessionID, invalid.Question, 0, 0); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}

		if err := r.warn(ctx, res.Warnings); err != nil {
			return err
		}

		if !res.Complete() {
			if err := r.Handler.Output(ctx, Message{
				Kind:      MessageQuestion,
				SessionID: sessionID,
				Text:      res.Prompt,
				Question:  res.Question,
				Stage:     res.Stage,
			}); err != nil {
				return err
			}
			continue
		}

		if err := r.Handler.Output(ctx, Message{
			Kind:      MessageSummary,
			SessionID: sessionID,
			Text:      res.Summary,
			Stage:     res.Stage,
			Answers:   res.Answers,
		}); err != nil {
			return err
		}
		if !r.Continuous {
			return nil
		}
		next, err := svc.Resume(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := r.ask(ctx, sessionID, next.Question, next.Stage, next.Total); err != nil {
			return err
		}
	}
}

func (r *Runner) open(ctx context.Context, svc Service) (*spokesperson.Turn, error) {
	if r.SessionID == "" {
		return svc.Start(ctx, "", r.DisplayName)
	}
	turn, err := svc.Resume(ctx, r.SessionID)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", r.SessionID, err)
	}
	return turn, nil
}

func (r *Runner) ask(ctx context.Context, sessionID string, q domain.QuestionSpec, stage, total int) error {
	return r.Handler.Output(ctx, Message{
		Kind:      MessageQuestion,
		SessionID: sessionID,
		Text:      q.Prompt,
		Question:  &q,
		Stage:     stage,
		Total:     total,
	})
}

func (r *Runner) warn(ctx context.Context, warnings []error) error {
	for _, w := range warnings {
		r.Logger.Warn("conversation warning", "error", w)
		text := "Note: your answer was kept but could not be recorded."
		if _, ok := domain.ProviderKind(w); ok {
			text = "Note: the assistant is unavailable, using a simpler reply."
		}
		if err := r.Handler.Output(ctx, Message{Kind: MessageWarning, Text: text}); err != nil {
			return err
		}
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
