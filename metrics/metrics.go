// Package metrics exposes gateway counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "analytics_gateway"

// Recorder is safe to use as a nil pointer; calls become no-ops.
type Recorder struct {
	questions     *prometheus.CounterVec
	latency       prometheus.Histogram
	installs      *prometheus.CounterVec
	auditFailures prometheus.Counter
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions forwarded to the analytics service by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "question_duration_seconds",
			Help:      "Round trip time of forwarded questions.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "install_callbacks_total",
			Help:      "OAuth install callbacks by result.",
		}, []string{"result"}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Request log rows that could not be persisted.",
		}),
	}
	reg.MustRegister(r.questions, r.latency, r.installs, r.auditFailures)
	return r
}

func (r *Recorder) ObserveQuestion(success bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.questions.WithLabelValues(outcome).Inc()
	r.latency.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveInstall(result string) {
	if r == nil {
		return
	}
	r.installs.WithLabelValues(result).Inc()
}

func (r *Recorder) AuditWriteFailed() {
	if r == nil {
		return
	}
	r.auditFailures.Inc()
}
