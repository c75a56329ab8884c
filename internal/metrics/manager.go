package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterCacheLookups     *prometheus.CounterVec
	CounterStoreErrors      *prometheus.CounterVec
	CounterRecordsSubmitted *prometheus.CounterVec
	CounterModeSwitches     prometheus.Counter
	CounterRequests         *prometheus.CounterVec

	// gauges
	GaugeActiveMode *prometheus.GaugeVec

	// histograms
	HistogramAggregationDuration prometheus.Histogram
	HistogramRequestDuration     *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("growrep", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("growrep", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterCacheLookups := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by resource kind and result (hit, miss, bypass)",
	}, []string{"kind", "result"})
	counterStoreErrors := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_errors_total",
		Help:      "Failed backing store operations",
	}, []string{"operation"})
	counterRecordsSubmitted := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_submitted_total",
		Help:      "The total number of submitted exercise records",
	}, []string{"mode", "exercise"})
	counterModeSwitches := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "mode_switches_total",
		Help:      "Number of effective mode switches",
	})
	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})

	gaugeActiveMode := factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_mode",
		Help:      "1 for the currently active mode, 0 otherwise",
	}, []string{"mode"})

	histAggregationDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "aggregation_duration_seconds",
		Help:      "Duration of a full score aggregation in seconds",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterCacheLookups:          counterCacheLookups,
		CounterStoreErrors:           counterStoreErrors,
		CounterRecordsSubmitted:      counterRecordsSubmitted,
		CounterModeSwitches:          counterModeSwitches,
		CounterRequests:              counterRequests,
		GaugeActiveMode:              gaugeActiveMode,
		HistogramAggregationDuration: histAggregationDuration,
		HistogramRequestDuration:     histogramRequestDuration,
	}
}
