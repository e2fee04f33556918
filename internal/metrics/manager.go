// Package metrics holds the Prometheus instruments of repcoach.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests      *prometheus.CounterVec
	CounterFrames        *prometheus.CounterVec
	CounterSkippedFrames *prometheus.CounterVec
	CounterReps          *prometheus.CounterVec
	CounterSets          *prometheus.CounterVec
	CounterUnsupported   prometheus.Counter

	// gauges
	GaugeActiveSessions prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("repcoach", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("repcoach", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterFrames := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_processed",
		Help:      "The total number of pose frames fed to a tracker",
	}, []string{"kind"})
	counterSkipped := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_skipped",
		Help:      "Frames dropped for missing or low-confidence joints",
	}, []string{"kind"})
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps",
		Help:      "The total number of counted repetitions",
	}, []string{"kind"})
	counterSets := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets",
		Help:      "The total number of completed sets",
	}, []string{"kind"})
	counterUnsupported := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "unsupported_exercise",
		Help:      "Supervision requests for exercises without a tracker",
	})

	gaugeActive := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_sessions",
		Help:      "Current number of supervision sessions",
	})

	histReqDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		Name:      "request_duration_seconds",
		Help:      "Total duration of requests in seconds",
	})

	return &Manager{
		CounterRequests:      counterRequests,
		CounterFrames:        counterFrames,
		CounterSkippedFrames: counterSkipped,
		CounterReps:          counterReps,
		CounterSets:          counterSets,
		CounterUnsupported:   counterUnsupported,
		GaugeActiveSessions:  gaugeActive,
		HistRequestDuration:  histReqDuration,
	}
}

// ObserveFrame counts one processed frame and its outcome for kind.
func (m *Manager) ObserveFrame(kind string, skipped, rep, set bool) {
	m.CounterFrames.WithLabelValues(kind).Inc()
	if skipped {
		m.CounterSkippedFrames.WithLabelValues(kind).Inc()
	}
	if rep {
		m.CounterReps.WithLabelValues(kind).Inc()
	}
	if set {
		m.CounterSets.WithLabelValues(kind).Inc()
	}
}
