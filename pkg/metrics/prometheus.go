package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zuwa"

// Recorder records pipeline metrics with Prometheus
// ⭐ SSOT: 메트릭 이름은 여기서만 정의
type Recorder struct {
	registry *prometheus.Registry

	analystRuns     *prometheus.CounterVec
	analystDuration *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
	composite       *prometheus.GaugeVec
	errorsTotal     *prometheus.CounterVec
}

// New creates a recorder on its own registry, with Go and process collectors
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a recorder registering into reg
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		analystRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyst_runs_total",
				Help:      "Analyst executions by domain and outcome (completed, failed, timeout)",
			},
			[]string{"domain", "status"},
		),
		analystDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analyst_duration_seconds",
				Help:      "Duration of a single analyst run in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"domain"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of a pipeline stage in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Decision records produced by rating",
			},
			[]string{"rating"},
		),
		composite: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "composite_score",
				Help:      "Latest composite score per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordAnalyst records one analyst outcome and its latency
func (r *Recorder) RecordAnalyst(domain, status string, seconds float64) {
	r.analystRuns.WithLabelValues(domain, status).Inc()
	r.analystDuration.WithLabelValues(domain).Observe(seconds)
}

// RecordStage records stage latency in seconds
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordDecision records a finished decision
func (r *Recorder) RecordDecision(symbol, rating string, composite float64) {
	r.decisions.WithLabelValues(rating).Inc()
	r.composite.WithLabelValues(symbol).Set(composite)
}

// RecordError records an error occurrence
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Handler exposes the registry for scraping
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
