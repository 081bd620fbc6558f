package ports

import (
	"context"
	"testing"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewConversationState(sessionID)
		state.Stage = 2
		state.Answers["name"] = "Alice"
		state.Answers["age"] = "30"

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, 2, loaded.Stage)
		assert.Equal(t, map[string]string{"name": "Alice", "age": "30"}, loaded.Answers)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		state := domain.NewConversationState(sessionID)
		state.Answers["name"] = "Alice"
		require.NoError(t, store.Save(ctx, sessionID, state))

		// Mutating the saved pointer must not leak into the store.
		state.Answers["name"] = "Mallory"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", loaded.Answers["name"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewConversationState(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewConversationState(id1))
		_ = store.Save(ctx, id2, domain.NewConversationState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunAnswerLogContract verifies that an AnswerLog implementation is append-only,
// scoped per session and returns history in recording order.
func RunAnswerLogContract(t *testing.T, log AnswerLog) {
	ctx := context.Background()
	sessionID := "contract-log-" + time.Now().Format("20060102150405.000000")

	t.Run("Append and Fetch In Order", func(t *testing.T) {
		require.NoError(t, log.RegisterSession(ctx, sessionID, "Contract"))

		first, err := log.AppendAnswer(ctx, sessionID, "Alice")
		require.NoError(t, err)
		second, err := log.AppendAnswer(ctx, sessionID, "30")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)

		history, err := log.FetchHistory(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "Alice", history[0].Text)
		assert.Equal(t, "30", history[1].Text)
		assert.Equal(t, sessionID, history[0].SessionID)
		assert.False(t, history[1].Timestamp.Before(history[0].Timestamp))
	})

	t.Run("Register Is Idempotent", func(t *testing.T) {
		require.NoError(t, log.RegisterSession(ctx, sessionID, "Contract"))
		require.NoError(t, log.RegisterSession(ctx, sessionID, ""))
	})

	t.Run("Append Without Register", func(t *testing.T) {
		other := sessionID + "-implicit"
		_, err := log.AppendAnswer(ctx, other, "hello")
		require.NoError(t, err)

		history, err := log.FetchHistory(ctx, other)
		require.NoError(t, err)
		require.Len(t, history, 1)
	})

	t.Run("Sessions Are Isolated", func(t *testing.T) {
		history, err := log.FetchHistory(ctx, "unknown-"+sessionID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}
