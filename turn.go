package spokesperson

import (
	"context"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

// Turn is the question a session is waiting on.
type Turn struct {
	SessionID string              `json:"session_id"`
	Question  domain.QuestionSpec `json:"question"`
	Stage     int                 `json:"stage"`
	Total     int                 `json:"total"`
	Warnings  []error             `json:"-"`
}

// Prompt returns the question text.
func (t *Turn) Prompt() string {
	return t.Question.Prompt
}

// EventType names a state change published to observers.
type EventType string

const (
	EventStarted   EventType = "started"
	EventAnswered  EventType = "answered"
	EventCompleted EventType = "completed"
	EventRestarted EventType = "restarted"
)

// Event describes a saved state change.
type Event struct {
	Type      EventType                 `json:"type"`
	SessionID string                    `json:"session_id"`
	Turn      *Turn                     `json:"turn,omitempty"`
	Result    *domain.ProgressionResult `json:"result,omitempty"`
	Diff      *domain.StateDiff         `json:"diff,omitempty"`
}

// Observer receives state changes, e.g. to push them to streaming clients.
type Observer func(ctx context.Context, ev Event)
