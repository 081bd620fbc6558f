package domain

import (
	"maps"
	"time"
)

// ConversationState is the snapshot of one session's run through the catalog.
// It is exclusively owned by its session; callers serialize access per SessionID.
type ConversationState struct {
	// SessionID identifies the session owning this state.
	SessionID string `json:"session_id"`

	// Stage is the zero-based index of the next unanswered question.
	Stage int `json:"stage"`

	// Answers maps catalog keys to the raw answers accepted so far.
	Answers map[string]string `json:"answers"`

	// StartedAt is when the current run began (reset restarts it).
	StartedAt time.Time `json:"started_at"`

	// UpdatedAt is when the state was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationState creates a fresh state at stage 0.
func NewConversationState(sessionID string) *ConversationState {
	now := time.Now().UTC()
	return &ConversationState{
		SessionID: sessionID,
		Stage:     0,
		Answers:   make(map[string]string),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Reset returns the state to its initial values, keeping the SessionID.
func (s *ConversationState) Reset() {
	now := time.Now().UTC()
	s.Stage = 0
	s.Answers = make(map[string]string)
	s.StartedAt = now
	s.UpdatedAt = now
}

// Clone returns a deep copy of the state.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := *s
	c.Answers = maps.Clone(s.Answers)
	if c.Answers == nil {
		c.Answers = make(map[string]string)
	}
	return &c
}

// IsInitial reports whether the state has no progress.
func (s *ConversationState) IsInitial() bool {
	return s.Stage == 0 && len(s.Answers) == 0
}
