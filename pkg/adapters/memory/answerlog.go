package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

// AnswerLog implements ports.AnswerLog in memory.
// Safe for concurrent use.
type AnswerLog struct {
	mu       sync.Mutex
	nextID   int64
	users    map[string]string
	sessions map[string][]domain.AnswerRecord
	clock    func() time.Time
}

// NewAnswerLog creates an empty log.
func NewAnswerLog() *AnswerLog {
	return &AnswerLog{
		users:    make(map[string]string),
		sessions: make(map[string][]domain.AnswerRecord),
		clock:    time.Now,
	}
}

// RegisterSession records the display name for a session. Existing sessions are kept.
func (l *AnswerLog) RegisterSession(ctx context.Context, sessionID, displayName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if displayName == "" {
		displayName = sessionID
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.users[sessionID]; !ok {
		l.users[sessionID] = displayName
	}
	return nil
}

// AppendAnswer stores text for the session, registering it implicitly if needed.
func (l *AnswerLog) AppendAnswer(ctx context.Context, sessionID, text string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.users[sessionID]; !ok {
		l.users[sessionID] = sessionID
	}

	l.nextID++
	l.sessions[sessionID] = append(l.sessions[sessionID], domain.AnswerRecord{
		ID:        l.nextID,
		SessionID: sessionID,
		Text:      text,
		Timestamp: l.clock().UTC(),
	})
	return l.nextID, nil
}

// FetchHistory returns a copy of the session's records in insertion order.
func (l *AnswerLog) FetchHistory(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.sessions[sessionID]), nil
}

// DisplayName returns the registered name of a session.
func (l *AnswerLog) DisplayName(sessionID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name, ok := l.users[sessionID]
	return name, ok
}
