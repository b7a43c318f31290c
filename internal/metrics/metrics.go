// Package metrics exposes Prometheus instrumentation for the agent runtime.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors the chat pipeline reports into. A nil
// *Metrics is valid and drops all observations, so tests can skip wiring it.
type Metrics struct {
	plannerDecisions   *prometheus.CounterVec
	completionCalls    prometheus.Counter
	completionFailures prometheus.Counter
	toolInvocations    *prometheus.CounterVec
	turnDuration       prometheus.Histogram
}

// New registers the collectors with reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		plannerDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talon",
			Name:      "planner_decisions_total",
			Help:      "Planner decisions by chosen action.",
		}, []string{"action"}),
		completionCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "talon",
			Name:      "completion_calls_total",
			Help:      "Completion requests sent to the model.",
		}),
		completionFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "talon",
			Name:      "completion_failures_total",
			Help:      "Completion requests that returned an error.",
		}),
		toolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talon",
			Name:      "tool_invocations_total",
			Help:      "Tool fixture invocations by agent and tool.",
		}, []string{"agent", "tool"}),
		turnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "talon",
			Name:      "turn_duration_seconds",
			Help:      "Wall time of one full chat turn.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

func (m *Metrics) PlannerDecision(action string) {
	if m == nil {
		return
	}
	m.plannerDecisions.WithLabelValues(action).Inc()
}

func (m *Metrics) Completion(err error) {
	if m == nil {
		return
	}
	m.completionCalls.Inc()
	if err != nil {
		m.completionFailures.Inc()
	}
}

func (m *Metrics) ToolInvocation(agent, tool string) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(agent, tool).Inc()
}

func (m *Metrics) TurnDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.turnDuration.Observe(d.Seconds())
}
