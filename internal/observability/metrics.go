// Package observability owns the Prometheus collectors of the workout planner.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "workout_planner"

// Plan outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeUpstream   = "upstream"
	OutcomeTimeout    = "timeout"
	OutcomeMalformed  = "malformed"
	OutcomeError      = "error"
)

var (
	llmAttemptsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "attempts_total",
		Help:      "Calls made to the model provider, by outcome.",
	}, []string{"provider", "outcome"})

	plansCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plans_total",
		Help:      "Workout plan requests, by variant and outcome.",
	}, []string{"variant", "outcome"})

	planDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "plan_duration_seconds",
		Help:      "Time spent generating a plan, retries included.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
	}, []string{"variant"})
)

func init() {
	prometheus.MustRegister(llmAttemptsCounter, plansCounter, planDuration)
}

// RecordLLMAttempt counts one provider call.
func RecordLLMAttempt(provider string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	llmAttemptsCounter.WithLabelValues(provider, outcome).Inc()
}

// RecordPlan counts a finished plan request and, unless it was rejected
// before generation, observes its duration.
func RecordPlan(variant, outcome string, elapsed time.Duration) {
	plansCounter.WithLabelValues(variant, outcome).Inc()
	if outcome == OutcomeValidation {
		return
	}
	planDuration.WithLabelValues(variant).Observe(elapsed.Seconds())
}
