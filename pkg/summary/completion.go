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

const (
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxTokens bounds the generated summary.
	DefaultMaxTokens = 150

	// DefaultSystemPrompt frames the summary request.
	DefaultSystemPrompt = "You are a helpful assistant. Write a short, warm profile summary of the user " +
		"from their answers, addressed to them directly. Do not invent facts they did not give."
)

// CompletionBuilder delegates the summary to the completion service and falls
// back to a TemplateBuilder when the provider fails.
type CompletionBuilder struct {
	completer    ports.Completer
	fallback     *TemplateBuilder
	history      ports.AnswerLog
	timeout      time.Duration
	maxTokens    int
	systemPrompt string
	logger       *slog.Logger
}

// CompletionOption configures a CompletionBuilder.
type CompletionOption func(*CompletionBuilder)

// WithFallback sets the template used when the provider fails.
func WithFallback(t *TemplateBuilder) CompletionOption {
	return func(b *CompletionBuilder) {
		if t != nil {
			b.fallback = t
		}
	}
}

// WithHistory makes the prompt from the session's raw answer history instead of
// the answers map.
func WithHistory(log ports.AnswerLog) CompletionOption {
	return func(b *CompletionBuilder) {
		b.history = log
	}
}

// WithTimeout bounds each provider call. Non-positive values keep the default.
func WithTimeout(d time.Duration) CompletionOption {
	return func(b *CompletionBuilder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithMaxTokens bounds the generated text. Non-positive values keep the default.
func WithMaxTokens(n int) CompletionOption {
	return func(b *CompletionBuilder) {
		if n > 0 {
			b.maxTokens = n
		}
	}
}

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(p string) CompletionOption {
	return func(b *CompletionBuilder) {
		if strings.TrimSpace(p) != "" {
			b.systemPrompt = p
		}
	}
}

// WithCompletionLogger sets the structured logger.
func WithCompletionLogger(logger *slog.Logger) CompletionOption {
	return func(b *CompletionBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewCompletionBuilder creates a provider-backed builder.
func NewCompletionBuilder(c ports.Completer, opts ...CompletionOption) *CompletionBuilder {
	b := &CompletionBuilder{
		completer:    c,
		fallback:     NewTemplateBuilder(),
		timeout:      DefaultTimeout,
		maxTokens:    DefaultMaxTokens,
		systemPrompt: DefaultSystemPrompt,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build asks the provider for a summary. On any provider failure the template
// text is returned with the *domain.ProviderError in Summary.Warning.
func (b *CompletionBuilder) Build(ctx context.Context, req Request) Summary {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	text, err := complete(ctx, b.completer, b.messages(ctx, req), b.maxTokens)
	if err != nil {
		b.logger.Warn("summary provider failed, using template", "session_id", req.SessionID, "error", err)
		return Summary{Text: b.fallback.Render(req), Warning: err}
	}
	return Summary{Text: text, Generated: true}
}

func (b *CompletionBuilder) messages(ctx context.Context, req Request) []domain.Message {
	msgs := []domain.Message{{Role: domain.RoleSystem, Content: b.systemPrompt}}

	if b.history != nil {
		records, err := b.history.FetchHistory(ctx, req.SessionID)
		if err != nil {
			b.logger.Warn("answer history unavailable, using collected answers", "session_id", req.SessionID, "error", err)
		} else if records = currentRun(records, req); len(records) > 0 {
			for _, r := range records {
				msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: r.Text})
			}
			return msgs
		}
	}

	return append(msgs, domain.Message{Role: domain.RoleUser, Content: describeAnswers(req)})
}

// currentRun drops records logged before the run started. Log timestamps may be
// truncated to milliseconds, so at most one record per collected answer is kept.
func currentRun(records []domain.AnswerRecord, req Request) []domain.AnswerRecord {
	if !req.StartedAt.IsZero() {
		since := req.StartedAt.Truncate(time.Millisecond)
		kept := make([]domain.AnswerRecord, 0, len(records))
		for _, r := range records {
			if !r.Timestamp.Before(since) {
				kept = append(kept, r)
			}
		}
		records = kept
	}
	if n := len(req.Answers); n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records
}

// describeAnswers lists "prompt: answer" lines in catalog order.
func describeAnswers(req Request) string {
	var sb strings.Builder
	sb.WriteString("Here are my answers:\n")
	if req.Catalog == nil {
		for k, v := range req.Answers {
			fmt.Fprintf(&sb, "- %s: %s\n", k, v)
		}
		return sb.String()
	}
	for _, q := range req.Catalog.Questions() {
		if v, ok := req.Answers[q.Key]; ok {
			fmt.Fprintf(&sb, "- %s %s\n", q.Prompt, v)
		}
	}
	return sb.String()
}
