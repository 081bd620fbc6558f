package ports

import (
	"context"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

// Completer is the external text-completion service.
// Failures should be reported as *domain.ProviderError so callers can tell
// authentication, rate limiting, timeouts and malformed responses apart.
type Completer interface {
	Complete(ctx context.Context, messages []domain.Message, maxTokens int) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []domain.Message, maxTokens int) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, messages []domain.Message, maxTokens int) (string, error) {
	return f(ctx, messages, maxTokens)
}
