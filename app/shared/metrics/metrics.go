// Package metrics defines the Prometheus instruments shared across the
// submission, replay, and stats services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every instrument the engine records. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	submissionsTotal   *prometheus.CounterVec
	submissionDuration prometheus.Histogram
	replaysTotal       *prometheus.CounterVec
	beatmapCacheEvents *prometheus.CounterVec
}

// New registers the engine's instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "droid_submissions_total",
			Help: "Score submissions by outcome (accepted, rejected, failed).",
		}, []string{"outcome"}),
		submissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "droid_submission_duration_seconds",
			Help:    "Wall time spent handling one score submission.",
			Buckets: prometheus.DefBuckets,
		}),
		replaysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "droid_replay_validations_total",
			Help: "Replay cross-validations by outcome (confirmed, rejected, failed).",
		}, []string{"outcome"}),
		beatmapCacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "droid_beatmap_cache_events_total",
			Help: "Beatmap cache lookups by event (hit, negative_hit, miss, eviction).",
		}, []string{"event"}),
	}
	reg.MustRegister(m.submissionsTotal, m.submissionDuration, m.replaysTotal, m.beatmapCacheEvents)
	return m
}

// RecordSubmission counts one handled submission and its duration.
func (m *Metrics) RecordSubmission(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.submissionDuration.Observe(elapsed.Seconds())
}

// RecordReplayValidation counts one replay validation outcome.
func (m *Metrics) RecordReplayValidation(outcome string) {
	if m == nil {
		return
	}
	m.replaysTotal.WithLabelValues(outcome).Inc()
}

// RecordBeatmapCacheEvent counts one beatmap cache event.
func (m *Metrics) RecordBeatmapCacheEvent(event string) {
	if m == nil {
		return
	}
	m.beatmapCacheEvents.WithLabelValues(event).Inc()
}
