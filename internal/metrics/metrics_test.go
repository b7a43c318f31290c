package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PlannerDecision("info")
	m.PlannerDecision("info")
	m.PlannerDecision("end")
	require.Equal(t, float64(2), testutil.ToFloat64(m.plannerDecisions.WithLabelValues("info")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.plannerDecisions.WithLabelValues("end")))

	m.Completion(nil)
	m.Completion(errors.New("boom"))
	require.Equal(t, float64(2), testutil.ToFloat64(m.completionCalls))
	require.Equal(t, float64(1), testutil.ToFloat64(m.completionFailures))

	m.ToolInvocation("info", "lookup_glossary_term")
	require.Equal(t, float64(1), testutil.ToFloat64(m.toolInvocations.WithLabelValues("info", "lookup_glossary_term")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.PlannerDecision("info")
	m.Completion(nil)
	m.ToolInvocation("a", "b")
	m.TurnDuration(time.Second)
}
