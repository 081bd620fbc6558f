package summary

import (
	"context"
	"errors"
	"strings"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
)

// complete calls the completer and normalizes every failure to a *domain.ProviderError.
func complete(ctx context.Context, c ports.Completer, msgs []domain.Message, maxTokens int) (string, error) {
	text, err := c.Complete(ctx, msgs, maxTokens)
	if err != nil {
		return "", classify(ctx, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewProviderError(domain.ProviderMalformedResponse, errors.New("empty completion"))
	}
	return text, nil
}

func classify(ctx context.Context, err error) error {
	if _, ok := domain.ProviderKind(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewProviderError(domain.ProviderTimeout, err)
	}
	return domain.NewProviderError(domain.ProviderUnavailable, err)
}
