package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrConversationAlreadyComplete is returned when an answer is submitted for a
// state whose stage is already past the last question. The session must be
// reinitialized before it can accept answers again.
var ErrConversationAlreadyComplete = errors.New("conversation already complete")

// ErrInvalidAnswer is matched by every *InvalidAnswerError via errors.Is.
var ErrInvalidAnswer = errors.New("invalid answer")

// InvalidAnswerError reports an answer rejected by the current question's policy.
// The state is left untouched and the same question must be asked again.
type InvalidAnswerError struct {
	Question QuestionSpec
	Reason   string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer for %q: %s", e.Question.Key, e.Reason)
}

func (e *InvalidAnswerError) Unwrap() error { return ErrInvalidAnswer }

// PersistError reports a failure of the answer log. It never blocks progression.
type PersistError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// ProviderErrorKind classifies completion-service failures.
type ProviderErrorKind string

const (
	ProviderAuthFailure       ProviderErrorKind = "auth_failure"
	ProviderRateLimited       ProviderErrorKind = "rate_limited"
	ProviderTimeout           ProviderErrorKind = "timeout"
	ProviderMalformedResponse ProviderErrorKind = "malformed_response"
	ProviderUnavailable       ProviderErrorKind = "unavailable"
)

// ProviderError reports a completion-service failure. Summaries fall back to
// the deterministic template when one occurs.
type ProviderError struct {
	Kind ProviderErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s", e.Kind)
	}
	return fmt.Sprintf("provider %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with the given kind.
func NewProviderError(kind ProviderErrorKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Err: err}
}

// ProviderKind extracts the ProviderErrorKind from err, if any.
func ProviderKind(err error) (ProviderErrorKind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// CatalogError reports a malformed catalog. It is fatal at startup.
// Index is -1 for errors about the catalog as a whole.
type CatalogError struct {
	Index  int
	Key    string
	Reason string
}

func (e *CatalogError) Error() string {
	if e.Index < 0 {
		return "invalid catalog: " + e.Reason
	}
	if e.Key == "" {
		return fmt.Sprintf("invalid catalog: question %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid catalog: question %d (%s): %s", e.Index, e.Key, e.Reason)
}
