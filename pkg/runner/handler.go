package runner

import (
	"context"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

// MessageKind tells the handler how to present a Message.
type MessageKind string

const (
	MessageQuestion MessageKind = "question"
	MessageSummary  MessageKind = "summary"
	MessageError    MessageKind = "error"
	MessageWarning  MessageKind = "warning"
)

// Message is one piece of output produced by the Runner.
type Message struct {
	Kind      MessageKind          `json:"kind"`
	SessionID string               `json:"session_id,omitempty"`
	Text      string               `json:"text"`
	Question  *domain.QuestionSpec `json:"question,omitempty"`
	Stage     int                  `json:"stage"`
	Total     int                  `json:"total,omitempty"`
	Answers   map[string]string    `json:"answers,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a message to the user.
	Output(ctx context.Context, msg Message) error

	// Input reads the next answer. io.EOF ends the conversation.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (status, hints) distinct from content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms content before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)
