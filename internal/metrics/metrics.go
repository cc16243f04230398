package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal    *prometheus.CounterVec
	backtestDuration  prometheus.Histogram
	backtestTrades    prometheus.Histogram
	providerRequests  *prometheus.CounterVec
	providerBars      prometheus.Histogram
	persistenceErrors prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratlab_backtests_total",
			Help: "Total number of backtest runs",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stratlab_backtest_duration_seconds",
			Help:    "Backtest run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
	r.backtestTrades = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stratlab_backtest_trades",
			Help:    "Number of trades produced per backtest run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)
	r.providerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratlab_provider_requests_total",
			Help: "Total number of bar series provider requests",
		},
		[]string{"status"},
	)
	r.providerBars = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stratlab_provider_bars",
			Help:    "Number of bars returned per provider request",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)
	r.persistenceErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stratlab_persistence_errors_total",
			Help: "Total number of failed result writes",
		},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.backtestTrades)
	reg.MustRegister(r.providerRequests)
	reg.MustRegister(r.providerBars)
	reg.MustRegister(r.persistenceErrors)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a completed backtest run. Trade counts are only
// observed for successful runs.
func (r *Registry) RecordBacktest(status string, duration float64, trades int) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
	if status == "success" {
		r.backtestTrades.Observe(float64(trades))
	}
}

// RecordProviderRequest records a bar series fetch and the number of bars
// it returned.
func (r *Registry) RecordProviderRequest(status string, bars int) {
	r.providerRequests.WithLabelValues(status).Inc()
	if status == "success" {
		r.providerBars.Observe(float64(bars))
	}
}

// RecordPersistenceError records a failed result write.
func (r *Registry) RecordPersistenceError() {
	r.persistenceErrors.Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
