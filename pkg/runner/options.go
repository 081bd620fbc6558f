package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSessionID resumes or starts the given session instead of a fresh one.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithDisplayName registers a display name when a session is started.
func WithDisplayName(name string) Option {
	return func(r *Runner) {
		r.DisplayName = name
	}
}

// WithContinuous keeps asking after the summary, starting a new round.
func WithContinuous(continuous bool) Option {
	return func(r *Runner) {
		r.Continuous = continuous
	}
}
