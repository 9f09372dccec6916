package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by the driver.
type Metrics struct {
	registry *prometheus.Registry

	stageRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	suspensions   *prometheus.CounterVec
	resumptions   *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartwise_stage_runs_total",
			Help: "Stage executions by outcome.",
		}, []string{"stage", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cartwise_stage_duration_seconds",
			Help:    "Duration of stage executions.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage"}),
		suspensions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartwise_reviews_total",
			Help: "Review checkpoints surfaced to callers.",
		}, []string{"kind"}),
		resumptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartwise_resumes_total",
			Help: "Resumptions by review kind.",
		}, []string{"kind", "replayed"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartwise_fallbacks_total",
			Help: "Degraded paths taken by stages.",
		}, []string{"stage"}),
		started: make(map[string]time.Time),
	}
	m.registry.MustRegister(m.stageRuns, m.stageDuration, m.suspensions, m.resumptions, m.fallbacks)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func stageKey(threadID string, stage domain.StageID) string {
	return threadID + "/" + string(stage)
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			m.mu.Lock()
			m.started[stageKey(e.ThreadID, e.Stage)] = e.Timestamp
			m.mu.Unlock()
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			m.stageRuns.WithLabelValues(string(e.Stage), e.Outcome).Inc()

			key := stageKey(e.ThreadID, e.Stage)
			m.mu.Lock()
			start, ok := m.started[key]
			delete(m.started, key)
			m.mu.Unlock()
			if ok {
				m.stageDuration.WithLabelValues(string(e.Stage)).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
		OnSuspend: func(_ context.Context, e *domain.ReviewEvent) {
			m.suspensions.WithLabelValues(string(e.Kind)).Inc()
		},
		OnResume: func(_ context.Context, e *domain.ReviewEvent) {
			replayed := "false"
			if e.Replayed {
				replayed = "true"
			}
			m.resumptions.WithLabelValues(string(e.Kind), replayed).Inc()
		},
		OnFallback: func(_ context.Context, e *domain.FallbackEvent) {
			m.fallbacks.WithLabelValues(string(e.Stage)).Inc()
		},
	}
}
