package summary_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profile = map[string]string{"name": "Alice", "age": "30"}

func request() summary.Request {
	return summary.Request{SessionID: "s1", Catalog: domain.DefaultCatalog(), Answers: profile}
}

func TestCompletionBuilder_Success(t *testing.T) {
	var got []domain.Message
	var gotTokens int
	c := ports.CompleterFunc(func(_ context.Context, msgs []domain.Message, maxTokens int) (string, error) {
		got = msgs
		gotTokens = maxTokens
		return "  Alice is a 30 year old explorer.  ", nil
	})

	sum := summary.NewCompletionBuilder(c).Build(context.Background(), request())

	assert.True(t, sum.Generated)
	assert.NoError(t, sum.Warning)
	assert.Equal(t, "Alice is a 30 year old explorer.", sum.Text)
	assert.Equal(t, summary.DefaultMaxTokens, gotTokens)
	require.Len(t, got, 2)
	assert.Equal(t, domain.RoleSystem, got[0].Role)
	assert.Equal(t, domain.RoleUser, got[1].Role)
	assert.Contains(t, got[1].Content, "What is your name? Alice")
}

func TestCompletionBuilder_FallbackKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		text string
		want domain.ProviderErrorKind
	}{
		{name: "auth", err: domain.NewProviderError(domain.ProviderAuthFailure, errors.New("401")), want: domain.ProviderAuthFailure},
		{name: "rate limited", err: domain.NewProviderError(domain.ProviderRateLimited, errors.New("429")), want: domain.ProviderRateLimited},
		{name: "unclassified", err: errors.New("connection refused"), want: domain.ProviderUnavailable},
		{name: "blank response", text: "   ", want: domain.ProviderMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ports.CompleterFunc(func(context.Context, []domain.Message, int) (string, error) {
				return tt.text, tt.err
			})

			sum := summary.NewCompletionBuilder(c).Build(context.Background(), request())

			assert.False(t, sum.Generated)
			assert.Contains(t, sum.Text, "Alice")
			assert.Contains(t, sum.Text, "30")
			kind, ok := domain.ProviderKind(sum.Warning)
			require.True(t, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestCompletionBuilder_Timeout(t *testing.T) {
	c := ports.CompleterFunc(func(ctx context.Context, _ []domain.Message, _ int) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	start := time.Now()
	sum := summary.NewCompletionBuilder(c, summary.WithTimeout(20*time.Millisecond)).
		Build(context.Background(), request())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.NotEmpty(t, sum.Text)
	assert.Contains(t, sum.Text, "Alice")
	kind, ok := domain.ProviderKind(sum.Warning)
	require.True(t, ok)
	assert.Equal(t, domain.ProviderTimeout, kind)
}

func TestCompletionBuilder_UsesHistory(t *testing.T) {
	history := &fakeHistory{records: []domain.AnswerRecord{
		{ID: 1, SessionID: "s1", Text: "Alice"},
		{ID: 2, SessionID: "s1", Text: "30"},
	}}

	var got []domain.Message
	c := ports.CompleterFunc(func(_ context.Context, msgs []domain.Message, _ int) (string, error) {
		got = msgs
		return "ok", nil
	})

	summary.NewCompletionBuilder(c, summary.WithHistory(history), summary.WithSystemPrompt("be brief")).
		Build(context.Background(), request())

	require.Len(t, got, 3)
	assert.Equal(t, "be brief", got[0].Content)
	assert.Equal(t, "Alice", got[1].Content)
	assert.Equal(t, "30", got[2].Content)
}

func TestCompletionBuilder_HistoryKeepsCurrentRun(t *testing.T) {
	runStart := time.Date(2024, 5, 1, 10, 0, 0, 500_000, time.UTC)
	history := &fakeHistory{records: []domain.AnswerRecord{
		{ID: 1, SessionID: "s1", Text: "Bob", Timestamp: runStart.Add(-time.Minute)},
		{ID: 2, SessionID: "s1", Text: "Carol", Timestamp: runStart.Truncate(time.Millisecond)},
		{ID: 3, SessionID: "s1", Text: "Alice", Timestamp: runStart.Truncate(time.Millisecond)},
		{ID: 4, SessionID: "s1", Text: "30", Timestamp: runStart.Add(time.Second)},
	}}

	var got []domain.Message
	c := ports.CompleterFunc(func(_ context.Context, msgs []domain.Message, _ int) (string, error) {
		got = msgs
		return "ok", nil
	})

	req := request()
	req.StartedAt = runStart
	summary.NewCompletionBuilder(c, summary.WithHistory(history)).Build(context.Background(), req)

	require.Len(t, got, 3)
	assert.Equal(t, "Alice", got[1].Content)
	assert.Equal(t, "30", got[2].Content)
}

func TestCompletionBuilder_StaleHistoryUsesAnswers(t *testing.T) {
	runStart := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	history := &fakeHistory{records: []domain.AnswerRecord{
		{ID: 1, SessionID: "s1", Text: "Bob", Timestamp: runStart.Add(-time.Hour)},
	}}

	var got []domain.Message
	c := ports.CompleterFunc(func(_ context.Context, msgs []domain.Message, _ int) (string, error) {
		got = msgs
		return "ok", nil
	})

	req := request()
	req.StartedAt = runStart
	summary.NewCompletionBuilder(c, summary.WithHistory(history)).Build(context.Background(), req)

	require.Len(t, got, 2)
	assert.Contains(t, got[1].Content, "What is your name? Alice")
	assert.NotContains(t, got[1].Content, "Bob")
}

func TestCompletionBuilder_HistoryFailureUsesAnswers(t *testing.T) {
	history := &fakeHistory{err: errors.New("db closed")}

	var got []domain.Message
	c := ports.CompleterFunc(func(_ context.Context, msgs []domain.Message, _ int) (string, error) {
		got = msgs
		return "ok", nil
	})

	sum := summary.NewCompletionBuilder(c, summary.WithHistory(history)).Build(context.Background(), request())

	assert.True(t, sum.Generated)
	require.Len(t, got, 2)
	assert.Contains(t, got[1].Content, "Alice")
}

func TestFollowUpWriter(t *testing.T) {
	var got []domain.Message
	c := ports.CompleterFunc(func(_ context.Context, msgs []domain.Message, maxTokens int) (string, error) {
		got = msgs
		assert.Equal(t, summary.DefaultFollowUpMaxTokens, maxTokens)
		return "Great to meet you, Alice! Mountains or beach?", nil
	})

	w := summary.NewFollowUpWriter(c, 0, 0, nil)
	cat := domain.DefaultCatalog()
	prev, _ := cat.Lookup("hobby")
	next, _ := cat.Lookup("scenery")

	text, err := w.Phrase(context.Background(), summary.FollowUpRequest{SessionID: "s1", Previous: prev, Answer: "hiking", Next: next})
	require.NoError(t, err)
	assert.Equal(t, "Great to meet you, Alice! Mountains or beach?", text)
	require.Len(t, got, 2)
	assert.Contains(t, got[1].Content, "Answer: hiking")
	assert.Contains(t, got[1].Content, "Choices: Mountains, Beach")
}

func TestFollowUpWriter_Error(t *testing.T) {
	c := ports.CompleterFunc(func(context.Context, []domain.Message, int) (string, error) {
		return "", errors.New("boom")
	})

	_, err := summary.NewFollowUpWriter(c, time.Second, 10, nil).Phrase(context.Background(), summary.FollowUpRequest{})
	kind, ok := domain.ProviderKind(err)
	require.True(t, ok)
	assert.Equal(t, domain.ProviderUnavailable, kind)
}

type fakeHistory struct {
	records []domain.AnswerRecord
	err     error
}

func (f *fakeHistory) RegisterSession(context.Context, string, string) error { return nil }

func (f *fakeHistory) AppendAnswer(context.Context, string, string) (int64, error) { return 0, nil }

func (f *fakeHistory) FetchHistory(context.Context, string) ([]domain.AnswerRecord, error) {
	return f.records, f.err
}
