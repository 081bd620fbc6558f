// Package openai implements ports.Completer with the OpenAI chat completions API.
// Any OpenAI-compatible endpoint works through WithBaseURL.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	oai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = oai.GPT3Dot5Turbo

// ErrMissingAPIKey is returned by New without a key.
var ErrMissingAPIKey = errors.New("openai api key is required")

// Client calls the chat completions endpoint.
type Client struct {
	client *oai.Client
	model  string
}

type options struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// New creates a Client.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	o := options{model: DefaultModel}
	for _, opt := range opts {
		opt(&o)
	}

	config := oai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		config.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	if o.httpClient != nil {
		config.HTTPClient = o.httpClient
	}
	if o.model == "" {
		o.model = DefaultModel
	}

	return &Client{client: oai.NewClientWithConfig(config), model: o.model}, nil
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends messages and returns the first choice's content.
// Errors are *domain.ProviderError.
func (c *Client) Complete(ctx context.Context, messages []domain.Message, maxTokens int) (string, error) {
	req := oai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  make([]oai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens: maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, oai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewProviderError(domain.ProviderMalformedResponse, errors.New("response has no choices"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", domain.NewProviderError(domain.ProviderMalformedResponse, errors.New("response content is empty"))
	}
	return content, nil
}

func classify(ctx context.Context, err error) *domain.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewProviderError(domain.ProviderTimeout, err)
	}

	var apiErr *oai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(kindForStatus(apiErr.HTTPStatusCode), err)
	}
	var reqErr *oai.RequestError
	if errors.As(err, &reqErr) {
		return domain.NewProviderError(kindForStatus(reqErr.HTTPStatusCode), err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return domain.NewProviderError(domain.ProviderMalformedResponse, fmt.Errorf("decode completion: %w", err))
	}

	return domain.NewProviderError(domain.ProviderUnavailable, err)
}

func kindForStatus(code int) domain.ProviderErrorKind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ProviderAuthFailure
	case http.StatusTooManyRequests:
		return domain.ProviderRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domain.ProviderTimeout
	default:
		return domain.ProviderUnavailable
	}
}
