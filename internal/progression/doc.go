// Package progression implements the conversation progression engine.
//
// The engine owns no state of its own: every call receives the session's
// *domain.ConversationState, validates the raw answer against the question at
// the current stage, records it, advances the cursor and decides whether the
// next question or the closing summary is returned.
package progression
