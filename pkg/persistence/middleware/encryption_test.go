package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/memory"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/persistence/middleware"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.StateStore, cfg middleware.EncryptionConfig) ports.StateStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	key := generateKey(t)
	ports.RunStateStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: key}))
}

func TestEncryptionMiddleware_HidesAnswers(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	state := domain.NewConversationState("s1")
	state.Stage = 1
	state.Answers["name"] = "Alice"
	require.NoError(t, secure.Save(ctx, "s1", state))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Answers, "name")
	assert.Contains(t, raw.Answers, "__encrypted__")
	assert.Equal(t, 1, raw.Stage, "stage stays readable")

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", loaded.Answers["name"])
	assert.Equal(t, 1, loaded.Stage)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	state := domain.NewConversationState("s1")
	state.Answers["age"] = "30"
	require.NoError(t, encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).Save(ctx, "s1", state))

	_, err := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey}).Load(ctx, "s1")
	require.Error(t, err)

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "30", loaded.Answers["age"])
}

func TestEncryptionMiddleware_MigratesPlainState(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	plain := domain.NewConversationState("s1")
	plain.Stage = 1
	plain.Answers["name"] = "Alice"
	require.NoError(t, underlying.Save(ctx, "s1", plain))

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Alice"}, loaded.Answers)
	assert.Equal(t, 1, loaded.Stage)

	require.NoError(t, secure.Save(ctx, "s1", loaded))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Answers, "name")
	assert.Contains(t, raw.Answers, "__encrypted__")

	reloaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", reloaded.Answers["name"])
}

func TestNewEncryptionMiddleware_InvalidKeys(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)
	decoded, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.DecodeKey("not base64!")
	assert.Error(t, err)
}
