package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes recorded by Metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeEmpty   = "empty"
)

// Metrics provides observability for the connector runtime.
type Metrics struct {
	// Runs by outcome
	Runs *prometheus.CounterVec

	// Duration of a complete run
	RunDuration prometheus.Histogram

	// Records returned by the collector
	RecordsCollected prometheus.Counter

	// Records the converter rejected
	RecordsSkipped prometheus.Counter

	// Objects sent per bundle
	BundleObjects prometheus.Histogram

	// Objects dropped by filters or min score
	ObjectsFiltered prometheus.Counter

	// Unix time of the last successful run
	LastSuccess prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers the runtime metrics on reg. A nil reg uses a fresh
// registry, so several connectors can run in one process.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "connector_runs_total",
			Help: "Total connector runs by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure", "empty"

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "connector_run_duration_seconds",
			Help:    "Duration of a complete collect, convert and send run",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}),

		RecordsCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "connector_records_collected_total",
			Help: "Total records returned by the collector",
		}),

		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "connector_records_skipped_total",
			Help: "Total records the converter could not translate",
		}),

		BundleObjects: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "connector_bundle_objects",
			Help:    "Number of objects per sent bundle",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),

		ObjectsFiltered: factory.NewCounter(prometheus.CounterOpts{
			Name: "connector_objects_filtered_total",
			Help: "Total objects dropped by bundle filters or the minimum score",
		}),

		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "connector_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),

		gatherer: reg,
	}
}

// ObserveRun records the outcome and duration of a run.
func (m *Metrics) ObserveRun(outcome string, d time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
	if outcome == OutcomeSuccess {
		m.LastSuccess.Set(float64(at.Unix()))
	}
}

// ObserveRecords records how many records were collected and skipped.
func (m *Metrics) ObserveRecords(collected, skipped int) {
	if m == nil {
		return
	}
	m.RecordsCollected.Add(float64(collected))
	m.RecordsSkipped.Add(float64(skipped))
}

// ObserveBundle records the size of a sent bundle and the objects dropped.
func (m *Metrics) ObserveBundle(objects, filtered int) {
	if m == nil {
		return
	}
	m.BundleObjects.Observe(float64(objects))
	m.ObjectsFiltered.Add(float64(filtered))
}

// Handler serves the registered metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
