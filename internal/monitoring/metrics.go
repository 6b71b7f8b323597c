// Prometheus instrumentation for pipeline jobs and stages
package monitoring

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Job metrics
	JobsSubmitted  prometheus.Counter
	JobsSuperseded prometheus.Counter
	JobsFinished   *prometheus.CounterVec
	JobDuration    prometheus.Histogram

	// Stage metrics
	StageDuration *prometheus.HistogramVec

	reg prometheus.Registerer
}

// New registers the metrics with reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		JobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "shakal_jobs_submitted_total",
			Help: "Total number of pipeline jobs submitted",
		}),
		JobsSuperseded: factory.NewCounter(prometheus.CounterOpts{
			Name: "shakal_jobs_superseded_total",
			Help: "Jobs replaced by a newer submission before their result was delivered",
		}),
		JobsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shakal_jobs_finished_total",
				Help: "Pipeline jobs that stopped running, by outcome",
			},
			[]string{"outcome"},
		),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shakal_job_duration_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shakal_stage_duration_seconds",
				Help:    "Wall time of a single stage",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"stage"},
		),
		reg: reg,
	}
}

// StageFinished records one stage run.
func (m *Metrics) StageFinished(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// JobSubmitted counts a submission.
func (m *Metrics) JobSubmitted() {
	m.JobsSubmitted.Inc()
}

// JobSuperseded counts a job whose result was dropped.
func (m *Metrics) JobSuperseded() {
	m.JobsSuperseded.Inc()
}

// JobFinished records a finished run.
func (m *Metrics) JobFinished(d time.Duration, cancelled bool) {
	outcome := "completed"
	if cancelled {
		outcome = "cancelled"
	}
	m.JobsFinished.WithLabelValues(outcome).Inc()
	m.JobDuration.Observe(d.Seconds())
}

// TrackGPUFallbacks exposes a counter read from fn on every scrape.
func (m *Metrics) TrackGPUFallbacks(fn func() int64) error {
	c := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "shakal_gpu_fallbacks_total",
		Help: "Displacement runs that fell back to the CPU path",
	}, func() float64 { return float64(fn()) })
	if err := m.reg.Register(c); err != nil {
		return fmt.Errorf("failed to register gpu fallback counter: %w", err)
	}
	return nil
}

// WriteText writes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
