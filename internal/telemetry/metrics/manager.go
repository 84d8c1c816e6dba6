package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterNotesCommitted *prometheus.CounterVec
	CounterNotesAborted   *prometheus.CounterVec
	// metrics endpoint
	CounterHandleRequestPanic prometheus.Counter

	// gauges
	GaugeNotes      prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistogramStorageDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("notebook", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("notebook", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterNotesCommitted := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "notes_committed",
		Help:      "The total number of committed note operations",
	}, []string{"op"})
	counterNotesAborted := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "notes_aborted",
		Help:      "The total number of aborted note operations",
	}, []string{"op", "reason"})

	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of panics recovered while serving metrics",
	})

	gaugeNotes := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "notes_listed",
		Help:      "Number of notes shown after the last reload",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the application is up",
	})

	histogramStorageDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "storage_duration_seconds",
		Help:      "Histogram of storage round trip time in seconds",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"kind", "status"})

	return &Manager{
		CounterNotesCommitted:     counterNotesCommitted,
		CounterNotesAborted:       counterNotesAborted,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		GaugeNotes:                gaugeNotes,
		GaugeLifeSignal:           gaugeLifeSignal,
		HistogramStorageDuration:  histogramStorageDuration,
	}
}
