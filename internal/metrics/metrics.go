// Package metrics exposes conversation counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spokesperson"

// Metrics owns a registry and the collectors fed by lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	started   prometheus.Counter
	answers   *prometheus.CounterVec
	completed *prometheus.CounterVec
	warnings  *prometheus.CounterVec
	summary   prometheus.Histogram
}

// New creates the collectors on a fresh registry, including Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_started_total",
			Help:      "Conversations started or restarted.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Submitted answers by question key and outcome.",
		}, []string{"key", "outcome"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_completed_total",
			Help:      "Completed conversations by summary source.",
		}, []string{"source"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Non-fatal failures by kind.",
		}, []string{"kind"}),
		summary: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_duration_seconds",
			Help:      "Time spent building closing summaries.",
			Buckets:   []float64{.005, .05, .25, .5, 1, 2.5, 5, 10},
		}),
	}

	m.registry.MustRegister(
		m.started, m.answers, m.completed, m.warnings, m.summary,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record metrics and log each event.
// A nil logger disables logging.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnConversationStart: func(ctx context.Context, e *domain.EventBase) {
			m.started.Inc()
			if logger != nil {
				logger.DebugContext(ctx, "conversation_start", "session_id", e.SessionID)
			}
		},
		OnAnswerAccepted: func(ctx context.Context, e *domain.AnswerEvent) {
			m.answers.WithLabelValues(e.Key, "accepted").Inc()
			if logger != nil {
				logger.DebugContext(ctx, "answer_accepted", "session_id", e.SessionID, "key", e.Key, "stage", e.Stage)
			}
		},
		OnAnswerRejected: func(ctx context.Context, e *domain.AnswerEvent) {
			m.answers.WithLabelValues(e.Key, "rejected").Inc()
			if logger != nil {
				logger.DebugContext(ctx, "answer_rejected", "session_id", e.SessionID, "key", e.Key, "reason", e.Reason)
			}
		},
		OnConversationComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			source := "template"
			if e.Generated {
				source = "provider"
			}
			m.completed.WithLabelValues(source).Inc()
			m.summary.Observe(e.Duration.Seconds())
			if logger != nil {
				logger.InfoContext(ctx, "conversation_complete", "session_id", e.SessionID, "source", source, "duration", e.Duration)
			}
		},
		OnWarning: func(ctx context.Context, e *domain.WarningEvent) {
			m.warnings.WithLabelValues(WarningKind(e.Err)).Inc()
		},
	}
}

// WarningKind labels a non-fatal failure.
func WarningKind(err error) string {
	if kind, ok := domain.ProviderKind(err); ok {
		return "provider_" + string(kind)
	}
	var perr *domain.PersistError
	if errors.As(err, &perr) {
		return "persist"
	}
	return "other"
}
