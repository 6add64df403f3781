// Package metrics exposes the stepper lifecycle as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/stepper/pkg/domain"
)

// Metrics provides observability for the registration wizard.
type Metrics struct {
	registry *prometheus.Registry

	// Step transitions by direction (next, previous, jump)
	StepTransitions *prometheus.CounterVec

	// Steps left or blocked with missing or invalid data
	ValidationFailures *prometheus.CounterVec

	// Failed backend calls by operation
	RemoteErrors *prometheus.CounterVec

	// Local and remote write latency
	PersistDuration *prometheus.HistogramVec
}

// New creates a Metrics instance registered on its own registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		StepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stepper_step_transitions_total",
			Help: "Total wizard step transitions by direction",
		}, []string{"direction"}),

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stepper_validation_failures_total",
			Help: "Total failed step validations by step and whether the user continued anyway",
		}, []string{"step", "forced"}),

		RemoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stepper_remote_errors_total",
			Help: "Total failed calls to the registration backend by operation",
		}, []string{"op"}),

		PersistDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stepper_persist_duration_seconds",
			Help:    "Duration of local cache and backend writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"target"}),
	}
}

// Hooks returns lifecycle hooks feeding the metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.StepTransitions.WithLabelValues(e.Direction).Inc()
		},
		OnValidationFailed: func(_ context.Context, e *domain.ValidationEvent) {
			m.ValidationFailures.WithLabelValues(e.Step.String(), strconv.FormatBool(e.Forced)).Inc()
		},
		OnPersist: func(_ context.Context, e *domain.PersistEvent) {
			m.ObservePersist(e.Target, e.Duration)
			if e.Err != nil && e.Target == domain.TargetRemote {
				m.RemoteErrors.WithLabelValues(e.Op).Inc()
			}
		},
	}
}

// ObservePersist records the duration of a write.
func (m *Metrics) ObservePersist(target string, d time.Duration) {
	if m != nil {
		m.PersistDuration.WithLabelValues(target).Observe(d.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
