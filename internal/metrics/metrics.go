package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of the pipeline.
// Registered on its own registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec // labels: status=ok|no_candidates|delivery_failed|error
	RunDuration        prometheus.Histogram
	SurfaceCandidates  *prometheus.CounterVec // labels: surface
	SurfaceFailures    *prometheus.CounterVec // labels: surface
	CandidatesScored   prometheus.Counter
	ScoreDuration      prometheus.Histogram
	TechnicalScore     prometheus.Histogram
	CapabilityFailures *prometheus.CounterVec // labels: kind=bars|text|summarize|classify|render
	DeliveryFailures   prometheus.Counter
	ShortlistSize      prometheus.Gauge
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpick_runs_total",
			Help: "Pipeline runs by final status",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpick_run_duration_seconds",
			Help:    "End-to-end pipeline run duration",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		SurfaceCandidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpick_surface_candidates_total",
			Help: "Raw candidates returned per discovery surface",
		}, []string{"surface"}),
		SurfaceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpick_surface_failures_total",
			Help: "Discovery surface failures",
		}, []string{"surface"}),
		CandidatesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpick_candidates_scored_total",
			Help: "Candidates that completed scoring",
		}),
		ScoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpick_candidate_score_seconds",
			Help:    "Per-candidate scoring latency",
			Buckets: prometheus.DefBuckets,
		}),
		TechnicalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpick_technical_score",
			Help:    "Distribution of technical scores",
			Buckets: []float64{-1, 0, 1, 2, 3, 4, 5, 6},
		}),
		CapabilityFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpick_capability_failures_total",
			Help: "Absorbed candidate-local capability failures",
		}, []string{"kind"}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpick_delivery_failures_total",
			Help: "Payloads rejected by the delivery sink",
		}),
		ShortlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockpick_shortlist_size",
			Help: "Size of the last shortlist",
		}),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.SurfaceCandidates,
		m.SurfaceFailures,
		m.CandidatesScored,
		m.ScoreDuration,
		m.TechnicalScore,
		m.CapabilityFailures,
		m.DeliveryFailures,
		m.ShortlistSize,
	)

	return m
}

// Registry exposes the underlying registry (tests, extra collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CandidateScored implements s2_signals.ScoreObserver
func (m *Metrics) CandidateScored(technical int, elapsed time.Duration) {
	m.CandidatesScored.Inc()
	m.ScoreDuration.Observe(elapsed.Seconds())
	m.TechnicalScore.Observe(float64(technical))
}

// CapabilityFailed implements s2_signals.ScoreObserver
func (m *Metrics) CapabilityFailed(kind string) {
	m.CapabilityFailures.WithLabelValues(kind).Inc()
}

// SurfaceDiscovered implements s1_universe.SurfaceObserver
func (m *Metrics) SurfaceDiscovered(surface string, count int, err error) {
	if err != nil {
		m.SurfaceFailures.WithLabelValues(surface).Inc()
		return
	}
	m.SurfaceCandidates.WithLabelValues(surface).Add(float64(count))
}

// RenderFailed counts one chart failure
func (m *Metrics) RenderFailed() {
	m.CapabilityFailed("render")
}

// RunFinished records one run
func (m *Metrics) RunFinished(status string, elapsed time.Duration, shortlist int, deliveryFailures int) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	m.ShortlistSize.Set(float64(shortlist))
	if deliveryFailures > 0 {
		m.DeliveryFailures.Add(float64(deliveryFailures))
	}
}
