package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weekly_contest"

// Metrics — счётчики сервиса. Nil-значение допустимо: все методы становятся no-op.
type Metrics struct {
	statusChanges      *prometheus.CounterVec
	statusFailures     *prometheus.CounterVec
	guardContention    prometheus.Counter
	transitionRuns     *prometheus.CounterVec
	transitionDuration prometheus.Histogram
	votes              *prometheus.CounterVec
	photoUploads       prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Participant status changes applied, by source and target status.",
		}, []string{"from", "to"}),
		statusFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_change_failures_total",
			Help:      "Rejected participant status changes, by reason.",
		}, []string{"reason"}),
		guardContention: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_guard_contention_total",
			Help:      "Status updates refused because another update held the participant guard.",
		}),
		transitionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weekly_transition_runs_total",
			Help:      "Weekly transition invocations, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		transitionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weekly_transition_duration_seconds",
			Help:      "Duration of transition_weekly_contest calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes accepted, by kind.",
		}, []string{"kind"}),
		photoUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Participant photos replaced by admins.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.statusChanges,
			m.statusFailures,
			m.guardContention,
			m.transitionRuns,
			m.transitionDuration,
			m.votes,
			m.photoUploads,
		)
	}
	return m
}

// Handler exposes the given registry for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) StatusChanged(from, to string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(from, to).Inc()
}

func (m *Metrics) StatusChangeFailed(reason string) {
	if m == nil {
		return
	}
	m.statusFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) GuardContended() {
	if m == nil {
		return
	}
	m.guardContention.Inc()
}

func (m *Metrics) TransitionRun(dryRun bool, err error, took time.Duration) {
	if m == nil {
		return
	}
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.transitionRuns.WithLabelValues(mode, outcome).Inc()
	m.transitionDuration.Observe(took.Seconds())
}

func (m *Metrics) VoteAccepted(kind string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(kind).Inc()
}

func (m *Metrics) PhotoUploaded() {
	if m == nil {
		return
	}
	m.photoUploads.Inc()
}
