package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spn_screener"

// Metrics holds the Prometheus collectors for screening runs, remote queries
// and the HTTP surface.
type Metrics struct {
	// Run metrics.
	RowsProcessed *prometheus.CounterVec // labels: outcome={scored,failed}
	Decisions     *prometheus.CounterVec // labels: decision={PASS,REVIEW,FAIL}
	RowDuration   prometheus.Histogram
	RunsActive    prometheus.Gauge

	// Remote query metrics.
	RemoteRequests *prometheus.CounterVec   // labels: operation, outcome={success,empty,error}
	RemoteDuration *prometheus.HistogramVec // labels: operation

	// HTTP metrics.
	HTTPRequests *prometheus.CounterVec // labels: method, route, status
}

func newCollectors(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      help("Input rows processed by outcome."),
		}, []string{"outcome"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      help("Scored sites by decision."),
		}, []string{"decision"}),
		RowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "row_duration_seconds",
			Help:      help("Time to score one input row."),
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RunsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      help("Screening runs currently in progress."),
		}),
		RemoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      help("Spatial query service requests by operation and outcome."),
		}, []string{"operation", "outcome"}),
		RemoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      help("Spatial query service request duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 45},
		}, []string{"operation"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      help("HTTP requests by method, route and status."),
		}, []string{"method", "route", "status"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors(true)

	prometheus.MustRegister(
		m.RowsProcessed,
		m.Decisions,
		m.RowDuration,
		m.RunsActive,
		m.RemoteRequests,
		m.RemoteDuration,
		m.HTTPRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newCollectors(false)
}
