// Package metrics exposes scoring pass statistics as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spigell/placement-matcher/internal/filtering"
	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/scoring"
	"github.com/spigell/placement-matcher/internal/training"
)

const namespace = "placement_matcher"

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	PairsScored  prometheus.Counter
	MatchScore   prometheus.Histogram
	Candidates   *prometheus.GaugeVec
	OpenJobs     prometheus.Gauge
	FilterDrops  *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	Explanations *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		PairsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_scored_total",
			Help:      "Total number of candidate and job pairs scored",
		}),
		MatchScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_score",
			Help:      "Distribution of match totals",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		Candidates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Candidates per readiness stage in the last scoring pass",
		}, []string{"stage"}),
		OpenJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_jobs",
			Help:      "Open jobs in the last scoring pass",
		}),
		FilterDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_dropped_total",
			Help:      "Candidates or jobs removed by filter steps",
		}, []string{"step"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_run_duration_seconds",
			Help:      "Duration of scoring passes in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		Explanations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanations_total",
			Help:      "AI explanation requests by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSummary sets the pipeline gauges. Every stage is written, so stages
// that emptied since the previous pass drop to zero.
func (m *Metrics) ObserveSummary(s roster.Summary) {
	for _, stage := range training.Stages() {
		if stage.Excluded() {
			m.Candidates.WithLabelValues(string(stage)).Set(float64(s.Excluded))
			continue
		}
		m.Candidates.WithLabelValues(string(stage)).Set(float64(s.ByStage[stage]))
	}
	m.OpenJobs.Set(float64(s.OpenPositions))
}

func (m *Metrics) ObserveFilters(applied []filtering.Applied) {
	for _, a := range applied {
		m.FilterDrops.WithLabelValues(a.Name).Add(float64(a.Step.Dropped))
	}
}

func (m *Metrics) ObserveMatrix(matrix *scoring.Matrix) {
	if matrix == nil {
		return
	}
	for _, r := range matrix.Results {
		m.MatchScore.Observe(r.Total)
	}
	m.PairsScored.Add(float64(matrix.Len()))
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	m.RunDuration.Observe(d.Seconds())
}

// ObserveExplanation counts one explanation attempt.
func (m *Metrics) ObserveExplanation(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.Explanations.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
