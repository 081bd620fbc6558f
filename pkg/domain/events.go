package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventConversationStart    EventType = "conversation_start"
	EventAnswerAccepted       EventType = "answer_accepted"
	EventAnswerRejected       EventType = "answer_rejected"
	EventConversationComplete EventType = "conversation_complete"
	EventWarning              EventType = "warning"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// AnswerEvent is emitted for every submitted answer, accepted or not.
type AnswerEvent struct {
	EventBase
	Stage      int        `json:"stage"`
	Key        string     `json:"key"`
	AnswerType AnswerType `json:"answer_type"`
	Reason     string     `json:"reason,omitempty"`
}

// CompletionEvent is emitted when the last question has been answered.
type CompletionEvent struct {
	EventBase
	Generated bool          `json:"generated"`
	Duration  time.Duration `json:"duration"`
}

// WarningEvent carries a non-fatal failure (persistence or provider).
type WarningEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every field is optional.
type LifecycleHooks struct {
	OnConversationStart    func(context.Context, *EventBase)
	OnAnswerAccepted       func(context.Context, *AnswerEvent)
	OnAnswerRejected       func(context.Context, *AnswerEvent)
	OnConversationComplete func(context.Context, *CompletionEvent)
	OnWarning              func(context.Context, *WarningEvent)
}

// NewEventBase stamps an event of the given type.
func NewEventBase(t EventType, sessionID string) EventBase {
	return EventBase{Timestamp: time.Now().UTC(), Type: t, SessionID: sessionID}
}
