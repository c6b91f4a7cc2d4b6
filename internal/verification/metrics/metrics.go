package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Analyzer call latencies by analyzer kind
	AnalyzerLatency *prometheus.HistogramVec

	// Decision outcomes by outcome and purpose
	DecisionOutcome *prometheus.CounterVec

	// Overall verification latency including polling
	VerifyLatency prometheus.Histogram

	// Poll attempts consumed per asynchronous document job
	PollAttempts prometheus.Histogram
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		AnalyzerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_verification_analyzer_duration_seconds",
			Help:    "Duration of external analyzer calls by kind",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"analyzer"}), // analyzer: "document", "address", "photo"

		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_verification_outcomes_total",
			Help: "Total verification outcomes by outcome and purpose",
		}, []string{"outcome", "purpose"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_verification_duration_seconds",
			Help:    "Duration of full verification including document polling",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		PollAttempts: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_verification_poll_attempts",
			Help:    "Poll attempts consumed per asynchronous document analysis job",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

// ObserveAnalyzerLatency records the duration of one analyzer call.
func (m *Metrics) ObserveAnalyzerLatency(analyzer string, d time.Duration) {
	if m != nil {
		m.AnalyzerLatency.WithLabelValues(analyzer).Observe(d.Seconds())
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(outcome, purpose string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome, purpose).Inc()
	}
}

// ObserveVerifyLatency records the end-to-end verification duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}

// ObservePollAttempts records how many poll attempts a document job used.
func (m *Metrics) ObservePollAttempts(n int) {
	if m != nil {
		m.PollAttempts.Observe(float64(n))
	}
}
