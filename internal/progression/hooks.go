package progression

import (
	"context"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

func (e *Engine) emitStart(ctx context.Context, sessionID string) {
	e.logger.Debug("conversation started", "session_id", sessionID)
	if e.hooks.OnConversationStart != nil {
		ev := domain.NewEventBase(domain.EventConversationStart, sessionID)
		e.hooks.OnConversationStart(ctx, &ev)
	}
}

func (e *Engine) emitAccepted(ctx context.Context, state *domain.ConversationState, q domain.QuestionSpec) {
	e.logger.Debug("answer accepted", "session_id", state.SessionID, "key", q.Key, "stage", state.Stage)
	if e.hooks.OnAnswerAccepted != nil {
		e.hooks.OnAnswerAccepted(ctx, &domain.AnswerEvent{
			EventBase:  domain.NewEventBase(domain.EventAnswerAccepted, state.SessionID),
			Stage:      state.Stage,
			Key:        q.Key,
			AnswerType: q.Type,
		})
	}
}

func (e *Engine) emitRejected(ctx context.Context, state *domain.ConversationState, q domain.QuestionSpec, reason string) {
	e.logger.Debug("answer rejected", "session_id", state.SessionID, "key", q.Key, "reason", reason)
	if e.hooks.OnAnswerRejected != nil {
		e.hooks.OnAnswerRejected(ctx, &domain.AnswerEvent{
			EventBase:  domain.NewEventBase(domain.EventAnswerRejected, state.SessionID),
			Stage:      state.Stage,
			Key:        q.Key,
			AnswerType: q.Type,
			Reason:     reason,
		})
	}
}

func (e *Engine) emitComplete(ctx context.Context, sessionID string, generated bool, took time.Duration) {
	e.logger.Info("conversation complete", "session_id", sessionID, "generated", generated, "duration", took)
	if e.hooks.OnConversationComplete != nil {
		e.hooks.OnConversationComplete(ctx, &domain.CompletionEvent{
			EventBase: domain.NewEventBase(domain.EventConversationComplete, sessionID),
			Generated: generated,
			Duration:  took,
		})
	}
}
