package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/Tyler-Pritchard/Spokesperson/internal/metrics"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksRecordMetrics(t *testing.T) {
	m := metrics.New()
	hooks := m.Hooks(logging.NewNop())
	ctx := context.Background()

	start := domain.NewEventBase(domain.EventConversationStart, "s1")
	hooks.OnConversationStart(ctx, &start)
	hooks.OnAnswerAccepted(ctx, &domain.AnswerEvent{Key: "name"})
	hooks.OnAnswerRejected(ctx, &domain.AnswerEvent{Key: "age", Reason: "bad"})
	hooks.OnAnswerRejected(ctx, &domain.AnswerEvent{Key: "age", Reason: "bad"})
	hooks.OnConversationComplete(ctx, &domain.CompletionEvent{Generated: false, Duration: time.Millisecond})
	hooks.OnWarning(ctx, &domain.WarningEvent{Err: domain.NewProviderError(domain.ProviderTimeout, nil)})
	hooks.OnWarning(ctx, &domain.WarningEvent{Err: &domain.PersistError{Err: errors.New("x")}})

	count, err := testutil.GatherAndCount(m.Registry(), "spokesperson_answers_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per key/outcome pair")

	count, err = testutil.GatherAndCount(m.Registry(), "spokesperson_warnings_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(m.Registry(), "spokesperson_conversations_started_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWarningKind(t *testing.T) {
	assert.Equal(t, "provider_rate_limited", metrics.WarningKind(domain.NewProviderError(domain.ProviderRateLimited, nil)))
	assert.Equal(t, "persist", metrics.WarningKind(&domain.PersistError{}))
	assert.Equal(t, "other", metrics.WarningKind(errors.New("x")))
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	start := domain.NewEventBase(domain.EventConversationStart, "s1")
	m.Hooks(nil).OnConversationStart(context.Background(), &start)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "spokesperson_conversations_started_total 1")
}
