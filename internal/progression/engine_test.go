package progression_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/internal/progression"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nameAgeCatalog() *domain.Catalog {
	return domain.MustCatalog(
		domain.QuestionSpec{Prompt: "What is your name?", Type: domain.AnswerText, Key: "name"},
		domain.QuestionSpec{Prompt: "How old are you?", Type: domain.AnswerNumber, Key: "age"},
	)
}

func TestEngine_NameAgeScenario(t *testing.T) {
	ctx := context.Background()
	e := progression.NewEngine(nameAgeCatalog())
	state := domain.NewConversationState("s1")

	first, err := e.Start(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "What is your name?", first.Prompt)

	res, err := e.SubmitAnswer(ctx, state, "Alice")
	require.NoError(t, err)
	assert.Equal(t, domain.ResultNextQuestion, res.Kind)
	assert.Equal(t, "How old are you?", res.Prompt)
	require.NotNil(t, res.Question)
	assert.Equal(t, "age", res.Question.Key)
	assert.Equal(t, map[string]string{"name": "Alice"}, state.Answers)
	assert.Equal(t, 1, state.Stage)

	res, err = e.SubmitAnswer(ctx, state, "-5")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
	assert.Equal(t, map[string]string{"name": "Alice"}, state.Answers)
	assert.Equal(t, 1, state.Stage)

	res, err = e.SubmitAnswer(ctx, state, "30")
	require.NoError(t, err)
	assert.True(t, res.Complete())
	assert.Contains(t, res.Summary, "Alice")
	assert.Contains(t, res.Summary, "30")
	assert.False(t, res.Generated)
	assert.Equal(t, map[string]string{"name": "Alice", "age": "30"}, res.Answers)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, 0, state.Stage)
	assert.Empty(t, state.Answers)
	assert.True(t, state.IsInitial())
}

func TestEngine_ChoiceScenario(t *testing.T) {
	ctx := context.Background()
	e := progression.NewEngine(domain.MustCatalog(
		domain.QuestionSpec{Prompt: "Mountains or beach?", Type: domain.AnswerChoice, Key: "scenery", Choices: []string{"Mountains", "Beach"}},
		domain.QuestionSpec{Prompt: "Name?", Type: domain.AnswerText, Key: "name"},
	))
	state := domain.NewConversationState("s1")

	_, err := e.SubmitAnswer(ctx, state, "Desert")
	var invalid *domain.InvalidAnswerError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "scenery", invalid.Question.Key)
	assert.Equal(t, 0, state.Stage)

	res, err := e.SubmitAnswer(ctx, state, "Beach")
	require.NoError(t, err)
	assert.Equal(t, domain.ResultNextQuestion, res.Kind)
	assert.Equal(t, "Beach", state.Answers["scenery"])
}

func TestEngine_RoundTripDefaultCatalog(t *testing.T) {
	ctx := context.Background()
	cat := domain.DefaultCatalog()
	e := progression.NewEngine(cat)
	state := domain.NewConversationState("s1")

	answers := map[string]string{
		"name":    "Alice",
		"age":     "30",
		"gender":  "female",
		"hobby":   "painting",
		"scenery": "Beach",
		"rhythm":  "Morning person",
	}

	prevStage := state.Stage
	for i, q := range cat.Questions() {
		res, err := e.SubmitAnswer(ctx, state, answers[q.Key])
		require.NoError(t, err, q.Key)

		if i < cat.Len()-1 {
			assert.Equal(t, domain.ResultNextQuestion, res.Kind, q.Key)
			assert.Greater(t, state.Stage, prevStage)
			prevStage = state.Stage
			continue
		}

		assert.Equal(t, domain.ResultConversationComplete, res.Kind)
		assert.Contains(t, res.Summary, "Alice")
		assert.Contains(t, res.Summary, "beach")
		assert.Equal(t, answers, res.Answers)
	}

	assert.True(t, state.IsInitial())
}

func TestEngine_InvalidNeverMutates(t *testing.T) {
	ctx := context.Background()
	e := progression.NewEngine(domain.DefaultCatalog())
	state := domain.NewConversationState("s1")

	_, err := e.SubmitAnswer(ctx, state, "Alice")
	require.NoError(t, err)
	before := state.Clone()

	for _, raw := range []string{"", "abc", "-1", "0", "1.5", " 12"} {
		_, err := e.SubmitAnswer(ctx, state, raw)
		assert.ErrorIs(t, err, domain.ErrInvalidAnswer, raw)
		assert.Equal(t, before, state, raw)
	}
}

func TestEngine_AlreadyComplete(t *testing.T) {
	e := progression.NewEngine(nameAgeCatalog())
	state := domain.NewConversationState("s1")
	state.Stage = 2

	res, err := e.SubmitAnswer(context.Background(), state, "Alice")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrConversationAlreadyComplete)
	assert.Equal(t, 2, state.Stage)
}

func TestEngine_NilState(t *testing.T) {
	e := progression.NewEngine(nameAgeCatalog())

	_, err := e.SubmitAnswer(context.Background(), nil, "x")
	assert.ErrorIs(t, err, progression.ErrNilState)

	_, err = e.Start(context.Background(), nil)
	assert.ErrorIs(t, err, progression.ErrNilState)

	_, ok := e.Current(nil)
	assert.False(t, ok)
}

func TestEngine_StartResets(t *testing.T) {
	e := progression.NewEngine(nameAgeCatalog())
	state := domain.NewConversationState("s1")
	state.Stage = 1
	state.Answers["name"] = "Alice"

	q, err := e.Start(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "name", q.Key)
	assert.True(t, state.IsInitial())
	assert.Equal(t, "s1", state.SessionID)

	cur, ok := e.Current(state)
	require.True(t, ok)
	assert.Equal(t, q, cur)
}

func TestEngine_PersistFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	log := &recordingLog{err: errors.New("disk full")}

	var warned []error
	e := progression.NewEngine(nameAgeCatalog(),
		progression.WithAnswerLog(log),
		progression.WithLifecycleHooks(domain.LifecycleHooks{
			OnWarning: func(_ context.Context, ev *domain.WarningEvent) { warned = append(warned, ev.Err) },
		}),
	)
	state := domain.NewConversationState("s1")

	res, err := e.SubmitAnswer(ctx, state, "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Stage)
	require.Len(t, res.Warnings, 1)

	var perr *domain.PersistError
	require.ErrorAs(t, res.Warnings[0], &perr)
	assert.Equal(t, "s1", perr.SessionID)
	assert.False(t, errors.Is(res.Warnings[0], domain.ErrInvalidAnswer))
	assert.Len(t, warned, 1)
	assert.Equal(t, []string{perr.Error()}, res.WarningMessages())
}

func TestEngine_AppendsAcceptedAnswersOnly(t *testing.T) {
	ctx := context.Background()
	log := &recordingLog{}
	e := progression.NewEngine(nameAgeCatalog(), progression.WithAnswerLog(log))
	state := domain.NewConversationState("s1")

	_, err := e.SubmitAnswer(ctx, state, "Alice")
	require.NoError(t, err)
	_, err = e.SubmitAnswer(ctx, state, "old")
	require.Error(t, err)
	_, err = e.SubmitAnswer(ctx, state, "30")
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "30"}, log.texts)
}

func TestEngine_SummaryProviderFallback(t *testing.T) {
	ctx := context.Background()
	failing := ports.CompleterFunc(func(ctx context.Context, _ []domain.Message, _ int) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	e := progression.NewEngine(nameAgeCatalog(),
		progression.WithSummaryBuilder(summary.NewCompletionBuilder(failing, summary.WithTimeout(10*time.Millisecond))),
	)
	state := domain.NewConversationState("s1")

	_, err := e.SubmitAnswer(ctx, state, "Alice")
	require.NoError(t, err)
	res, err := e.SubmitAnswer(ctx, state, "30")
	require.NoError(t, err)

	assert.True(t, res.Complete())
	assert.NotEmpty(t, res.Summary)
	assert.Contains(t, res.Summary, "Alice")
	assert.False(t, res.Generated)
	require.Len(t, res.Warnings, 1)
	kind, ok := domain.ProviderKind(res.Warnings[0])
	require.True(t, ok)
	assert.Equal(t, domain.ProviderTimeout, kind)
	assert.True(t, state.IsInitial())
}

func TestEngine_GeneratedSummary(t *testing.T) {
	ctx := context.Background()
	ok := ports.CompleterFunc(func(context.Context, []domain.Message, int) (string, error) {
		return "Alice, 30, welcome aboard.", nil
	})
	e := progression.NewEngine(nameAgeCatalog(), progression.WithSummaryBuilder(summary.NewCompletionBuilder(ok)))
	state := domain.NewConversationState("s1")

	_, err := e.SubmitAnswer(ctx, state, "Alice")
	require.NoError(t, err)
	res, err := e.SubmitAnswer(ctx, state, "30")
	require.NoError(t, err)

	assert.True(t, res.Generated)
	assert.Equal(t, "Alice, 30, welcome aboard.", res.Summary)
}

func TestEngine_Phraser(t *testing.T) {
	ctx := context.Background()

	t.Run("rephrases next prompt", func(t *testing.T) {
		e := progression.NewEngine(nameAgeCatalog(), progression.WithPhraser(phraserFunc(func(_ context.Context, req summary.FollowUpRequest) (string, error) {
			return "Hi " + req.Answer + "! " + req.Next.Prompt, nil
		})))
		state := domain.NewConversationState("s1")

		res, err := e.SubmitAnswer(ctx, state, "Alice")
		require.NoError(t, err)
		assert.Equal(t, "Hi Alice! How old are you?", res.Prompt)
		assert.Equal(t, "How old are you?", res.Question.Prompt)
	})

	t.Run("falls back to catalog prompt", func(t *testing.T) {
		e := progression.NewEngine(nameAgeCatalog(), progression.WithPhraser(phraserFunc(func(context.Context, summary.FollowUpRequest) (string, error) {
			return "", domain.NewProviderError(domain.ProviderRateLimited, errors.New("429"))
		})))
		state := domain.NewConversationState("s1")

		res, err := e.SubmitAnswer(ctx, state, "Alice")
		require.NoError(t, err)
		assert.Equal(t, "How old are you?", res.Prompt)
		require.Len(t, res.Warnings, 1)
	})
}

func TestEngine_LifecycleHooks(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var events []domain.EventType
	record := func(t domain.EventType) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, t)
	}

	e := progression.NewEngine(nameAgeCatalog(), progression.WithLifecycleHooks(domain.LifecycleHooks{
		OnConversationStart: func(_ context.Context, ev *domain.EventBase) { record(ev.Type) },
		OnAnswerAccepted:    func(_ context.Context, ev *domain.AnswerEvent) { record(ev.Type) },
		OnAnswerRejected: func(_ context.Context, ev *domain.AnswerEvent) {
			assert.Equal(t, "age", ev.Key)
			assert.NotEmpty(t, ev.Reason)
			record(ev.Type)
		},
		OnConversationComplete: func(_ context.Context, ev *domain.CompletionEvent) { record(ev.Type) },
	}))
	state := domain.NewConversationState("s1")

	_, err := e.Start(ctx, state)
	require.NoError(t, err)
	_, err = e.SubmitAnswer(ctx, state, "Alice")
	require.NoError(t, err)
	_, err = e.SubmitAnswer(ctx, state, "x")
	require.Error(t, err)
	_, err = e.SubmitAnswer(ctx, state, "30")
	require.NoError(t, err)

	assert.Equal(t, []domain.EventType{
		domain.EventConversationStart,
		domain.EventAnswerAccepted,
		domain.EventAnswerRejected,
		domain.EventAnswerAccepted,
		domain.EventConversationComplete,
	}, events)
}

func TestEngine_IndependentSessions(t *testing.T) {
	ctx := context.Background()
	e := progression.NewEngine(nameAgeCatalog())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state := domain.NewConversationState("s")
			_, err := e.SubmitAnswer(ctx, state, "Alice")
			assert.NoError(t, err)
			res, err := e.SubmitAnswer(ctx, state, "30")
			assert.NoError(t, err)
			assert.True(t, res.Complete())
		}(i)
	}
	wg.Wait()
}

type phraserFunc func(context.Context, summary.FollowUpRequest) (string, error)

func (f phraserFunc) Phrase(ctx context.Context, req summary.FollowUpRequest) (string, error) {
	return f(ctx, req)
}

type recordingLog struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (l *recordingLog) RegisterSession(context.Context, string, string) error { return nil }

func (l *recordingLog) AppendAnswer(_ context.Context, _ string, text string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	l.texts = append(l.texts, text)
	return int64(len(l.texts)), nil
}

func (l *recordingLog) FetchHistory(context.Context, string) ([]domain.AnswerRecord, error) {
	return nil, nil
}

var _ ports.AnswerLog = (*recordingLog)(nil)
