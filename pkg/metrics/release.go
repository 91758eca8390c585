package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "releasedesk"

// ReleaseMetrics records release lifecycle, intake and wizard activity.
type ReleaseMetrics struct {
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	probeDuration prometheus.Histogram
	commits       *prometheus.CounterVec
}

// NewReleaseMetrics registers the release metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewReleaseMetrics(reg prometheus.Registerer) *ReleaseMetrics {
	if reg == nil {
		return &ReleaseMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "release_transitions_total",
		Help:      "Release status transitions.",
	}, []string{"from", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "intake_rejections_total",
		Help:      "Candidate files rejected at intake.",
	}, []string{"kind"})
	probeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "artwork_probe_duration_seconds",
		Help:      "Duration of artwork dimension probes in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_commits_total",
		Help:      "Committed submission wizards.",
	}, []string{"action"})
	reg.MustRegister(transitions, rejections, probeDuration, commits)
	return &ReleaseMetrics{
		transitions:   transitions,
		rejections:    rejections,
		probeDuration: probeDuration,
		commits:       commits,
	}
}

// IncTransition counts a status change from one status to another.
func (m *ReleaseMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncIntakeRejection counts a rejected candidate of the given asset kind.
func (m *ReleaseMetrics) IncIntakeRejection(kind string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveProbe records how long an artwork dimension probe ran.
func (m *ReleaseMetrics) ObserveProbe(duration time.Duration) {
	if m == nil || m.probeDuration == nil {
		return
	}
	m.probeDuration.Observe(duration.Seconds())
}

// IncCommit counts a wizard commit with the given action.
func (m *ReleaseMetrics) IncCommit(action string) {
	if m == nil || m.commits == nil {
		return
	}
	m.commits.WithLabelValues(normalizeLabel(action)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
