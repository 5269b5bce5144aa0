// Package metrics provides Prometheus metrics for analysis runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rivalscope"

// Metrics holds the counters of one registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AccountsScanned  *prometheus.CounterVec
	PostsCollected   *prometheus.CounterVec
	VideosDiscovered *prometheus.CounterVec
	Transcripts      *prometheus.CounterVec
	Summaries        *prometheus.CounterVec
	UpstreamRetries  *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
}

// New registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AccountsScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_scanned_total",
			Help:      "Accounts and channels processed, by outcome",
		}, []string{"platform", "status"}),
		PostsCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_collected_total",
			Help:      "In-window posts collected, by content type",
		}, []string{"type"}),
		VideosDiscovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_discovered_total",
			Help:      "Channel entries examined during discovery, by outcome",
		}, []string{"outcome"}),
		Transcripts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_total",
			Help:      "Transcript acquisitions, by status",
		}, []string{"status"}),
		Summaries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Summaries produced, by winning strategy",
		}, []string{"strategy"}),
		UpstreamRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Retries after rate-limited upstream calls",
		}, []string{"stage"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of per-account and per-channel processing",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
	}
}

// Registry exposes the underlying registry for handlers and file output.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteFile dumps the registry in text exposition format, for node
// exporter's textfile collector.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry())
}

// IncAccount records an account or channel outcome.
func (m *Metrics) IncAccount(platform, status string) {
	if m == nil {
		return
	}
	m.AccountsScanned.WithLabelValues(platform, status).Inc()
}

// IncPost records a collected post of the given type.
func (m *Metrics) IncPost(kind string) {
	if m == nil {
		return
	}
	m.PostsCollected.WithLabelValues(kind).Inc()
}

// IncVideo records a discovery outcome.
func (m *Metrics) IncVideo(outcome string) {
	if m == nil {
		return
	}
	m.VideosDiscovered.WithLabelValues(outcome).Inc()
}

// IncTranscript records a transcript status.
func (m *Metrics) IncTranscript(status string) {
	if m == nil {
		return
	}
	m.Transcripts.WithLabelValues(status).Inc()
}

// IncSummary records which strategy produced a summary.
func (m *Metrics) IncSummary(strategy string) {
	if m == nil {
		return
	}
	m.Summaries.WithLabelValues(strategy).Inc()
}

// IncRetry records a retry at stage.
func (m *Metrics) IncRetry(stage string) {
	if m == nil {
		return
	}
	m.UpstreamRetries.WithLabelValues(stage).Inc()
}

// ObserveStage records how long a stage took, in seconds.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}
