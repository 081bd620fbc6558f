package summary

import (
	"context"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

// Request carries what a Builder needs to write a summary.
type Request struct {
	SessionID string
	Catalog   *domain.Catalog
	Answers   map[string]string

	// StartedAt is when the current run began. History older than it belongs
	// to an earlier run of the same session.
	StartedAt time.Time
}

// Summary is the closing message.
type Summary struct {
	// Text is always non-empty.
	Text string

	// Generated is true when Text came from the completion service.
	Generated bool

	// Warning is set when the preferred strategy failed and a fallback was used.
	Warning error
}

// Builder produces a Summary. Implementations must always return usable Text.
type Builder interface {
	Build(ctx context.Context, req Request) Summary
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, req Request) Summary

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, req Request) Summary {
	return f(ctx, req)
}
