package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
)

// DefaultFollowUpMaxTokens bounds a rephrased question.
const DefaultFollowUpMaxTokens = 60

const followUpSystemPrompt = "You are a friendly interviewer building a user's profile. " +
	"Acknowledge the user's last answer in one short sentence, then ask the next question. " +
	"Keep the question's meaning. If choices are listed, repeat them exactly."

// FollowUpRequest describes the transition between two questions.
type FollowUpRequest struct {
	SessionID string
	Previous  domain.QuestionSpec
	Answer    string
	Next      domain.QuestionSpec
}

// FollowUpWriter phrases the next question with the completion service.
type FollowUpWriter struct {
	completer ports.Completer
	timeout   time.Duration
	maxTokens int
	logger    *slog.Logger
}

// NewFollowUpWriter creates a writer. Non-positive timeout or maxTokens keep the defaults.
func NewFollowUpWriter(c ports.Completer, timeout time.Duration, maxTokens int, logger *slog.Logger) *FollowUpWriter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxTokens <= 0 {
		maxTokens = DefaultFollowUpMaxTokens
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FollowUpWriter{completer: c, timeout: timeout, maxTokens: maxTokens, logger: logger}
}

// Phrase returns the rephrased next question or a *domain.ProviderError.
func (w *FollowUpWriter) Phrase(ctx context.Context, req FollowUpRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Previous question: %s\nAnswer: %s\nNext question: %s", req.Previous.Prompt, req.Answer, req.Next.Prompt)
	if len(req.Next.Choices) > 0 {
		fmt.Fprintf(&sb, "\nChoices: %s", strings.Join(req.Next.Choices, ", "))
	}

	text, err := complete(ctx, w.completer, []domain.Message{
		{Role: domain.RoleSystem, Content: followUpSystemPrompt},
		{Role: domain.RoleUser, Content: sb.String()},
	}, w.maxTokens)
	if err != nil {
		w.logger.Debug("follow-up phrasing failed", "session_id", req.SessionID, "error", err)
		return "", err
	}
	return text, nil
}
