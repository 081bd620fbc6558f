package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/memory"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryAnswerLog_Contract(t *testing.T) {
	ports.RunAnswerLogContract(t, memory.NewAnswerLog())
}

func TestMemoryStore_PruneIdle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	stale := domain.NewConversationState("stale")
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	fresh := domain.NewConversationState("fresh")

	require.NoError(t, store.Save(ctx, "stale", stale))
	require.NoError(t, store.Save(ctx, "fresh", fresh))

	n, err := store.PruneIdle(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Load(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = store.Load(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryAnswerLog_DisplayName(t *testing.T) {
	ctx := context.Background()
	log := memory.NewAnswerLog()

	require.NoError(t, log.RegisterSession(ctx, "s1", ""))
	name, ok := log.DisplayName("s1")
	require.True(t, ok)
	assert.Equal(t, "s1", name)

	require.NoError(t, log.RegisterSession(ctx, "s2", "Alice"))
	require.NoError(t, log.RegisterSession(ctx, "s2", "Bob"))
	name, _ = log.DisplayName("s2")
	assert.Equal(t, "Alice", name)
}
