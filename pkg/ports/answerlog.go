package ports

import (
	"context"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

// AnswerLog is the append-only record of accepted answers.
// It is an audit trail: the engine never rebuilds progression from it.
// Implementations must be safe for concurrent use.
type AnswerLog interface {
	// RegisterSession records the identity owning a session. Registering an
	// existing session is a no-op. An empty displayName defaults to the session ID.
	RegisterSession(ctx context.Context, sessionID, displayName string) error

	// AppendAnswer stores one accepted raw answer and returns its record ID.
	AppendAnswer(ctx context.Context, sessionID, text string) (int64, error)

	// FetchHistory returns every record of the session ordered by timestamp ascending.
	FetchHistory(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error)
}
