package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ppeguard"

// Metrics holds the service collectors on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sessionsStarted   prometheus.Counter
	roundsAdvanced    prometheus.Counter
	sessionsFinalized *prometheus.CounterVec
	sessionsMissing   prometheus.Counter
	classifierLatency prometheus.Histogram
	classifierErrors  prometheus.Counter
	eventsPublished   *prometheus.CounterVec
	attendanceMarked  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Detection sessions started",
		}),
		roundsAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_advanced_total",
			Help:      "Detection rounds applied to live sessions",
		}),
		sessionsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finalized_total",
			Help:      "Finalized sessions by finalize reason and compliance tier",
		}, []string{"reason", "tier"}),
		sessionsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_lookups_missing_total",
			Help:      "Advance calls for sessions that were unknown or expired",
		}),
		classifierLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_latency_seconds",
			Help:      "Round trip time of classifier calls",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		classifierErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_errors_total",
			Help:      "Classifier calls that failed",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events handed to the broker by topic and result",
		}, []string{"topic", "result"}),
		attendanceMarked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_marked_total",
			Help:      "Attendance marking attempts by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessionsStarted,
		m.roundsAdvanced,
		m.sessionsFinalized,
		m.sessionsMissing,
		m.classifierLatency,
		m.classifierErrors,
		m.eventsPublished,
		m.attendanceMarked,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) RoundAdvanced() {
	if m == nil {
		return
	}
	m.roundsAdvanced.Inc()
}

func (m *Metrics) SessionFinalized(reason, tier string) {
	if m == nil {
		return
	}
	m.sessionsFinalized.WithLabelValues(reason, tier).Inc()
}

func (m *Metrics) SessionMissing() {
	if m == nil {
		return
	}
	m.sessionsMissing.Inc()
}

func (m *Metrics) ObserveClassifier(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.classifierLatency.Observe(elapsed.Seconds())
	if err != nil {
		m.classifierErrors.Inc()
	}
}

func (m *Metrics) EventPublished(topic string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "fail"
	}
	m.eventsPublished.WithLabelValues(topic, result).Inc()
}

func (m *Metrics) AttendanceMarked(outcome string) {
	if m == nil {
		return
	}
	m.attendanceMarked.WithLabelValues(outcome).Inc()
}
