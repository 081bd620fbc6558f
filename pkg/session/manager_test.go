package session_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/memory"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore adds latency so missing locks would lose updates.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.ConversationState, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func TestManager_UpdateSerializes(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()

	_, _, err := manager.LoadOrStart(ctx, "race")
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := manager.Update(ctx, "race", func(_ context.Context, s *domain.ConversationState) error {
				s.Answers["k"+strconv.Itoa(i)] = "v"
				s.Stage++
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	state, err := manager.Load(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, writers, state.Stage)
	assert.Len(t, state.Answers, writers)
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, isNew, err := manager.LoadOrStart(ctx, "atomic-init")
			assert.NoError(t, err)
			assert.NotNil(t, state)
			if isNew {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created, "exactly one caller creates the session")
	state, err := manager.Load(ctx, "atomic-init")
	require.NoError(t, err)
	assert.True(t, state.IsInitial())
}

func TestManager_UpdateUnknownSession(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	err := manager.Update(context.Background(), "nope", func(context.Context, *domain.ConversationState) error {
		t.Fatal("fn must not run for unknown sessions")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_UpdateErrorSkipsSave(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	_, _, err := manager.LoadOrStart(ctx, "s1")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = manager.Update(ctx, "s1", func(_ context.Context, s *domain.ConversationState) error {
		s.Stage = 3
		return boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, state.Stage)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	released int
	err      error
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	_, _, err := manager.LoadOrStart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, locker.locked)
	assert.Equal(t, 1, locker.released)

	locker.err = errors.New("redis down")
	_, err = manager.Load(ctx, "s1")
	assert.ErrorContains(t, err, "redis down")
}
