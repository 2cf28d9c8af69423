package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for onboarding evaluations.
type Metrics struct {
	Evaluations        *prometheus.CounterVec
	EvaluationFailures *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	ManualReviews      prometheus.Counter
	RescoreDuration    prometheus.Histogram
	RescoreClients     *prometheus.CounterVec
}

// New registers the onboarding metrics on the default registry. Call once per
// process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_evaluations_total",
			Help: "Completed client evaluations by resulting stage and risk level",
		}, []string{"stage", "risk_level"}),
		EvaluationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_evaluation_failures_total",
			Help: "Evaluations that returned an error, by error code",
		}, []string{"code"}),
		EvaluationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "onboard_evaluation_duration_seconds",
			Help:    "Time to load a client snapshot and evaluate it",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ManualReviews: f.NewCounter(prometheus.CounterOpts{
			Name: "onboard_manual_reviews_total",
			Help: "Evaluations that flagged the client for manual review",
		}),
		RescoreDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "onboard_rescore_duration_seconds",
			Help:    "Wall time of a full rescore batch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		RescoreClients: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_rescore_clients_total",
			Help: "Clients visited by rescore batches, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveEvaluation(stage, riskLevel string, seconds float64, manualReview bool) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(stage, riskLevel).Inc()
	m.EvaluationDuration.Observe(seconds)
	if manualReview {
		m.ManualReviews.Inc()
	}
}

func (m *Metrics) IncEvaluationFailure(code string) {
	if m == nil {
		return
	}
	m.EvaluationFailures.WithLabelValues(code).Inc()
}

// ObserveRescore records one batch: evaluated and skipped client counts plus
// its duration.
func (m *Metrics) ObserveRescore(evaluated, skipped int, seconds float64) {
	if m == nil {
		return
	}
	m.RescoreDuration.Observe(seconds)
	m.RescoreClients.WithLabelValues("evaluated").Add(float64(evaluated))
	m.RescoreClients.WithLabelValues("skipped").Add(float64(skipped))
}
