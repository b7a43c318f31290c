package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"talon/internal/llm"
	"talon/internal/session"
)

func TestPipelineToolReuseGuard(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"symptom_summary": "Misfire.", "followup_recommendations": [], "tool_call": "lookup_official_dtc"}`),
	)
	rt, _ := newTestRuntime(t, client)
	st := newTestState("still misfiring")
	st.AppendToolTrace(session.ToolInvocation{Agent: "diagnostic", Tool: "lookup_official_dtc"})

	rt.runPipeline(context.Background(), diagnosticPipeline{}, st)

	require.Equal(t, 1, client.Calls())
	require.Len(t, st.ToolTrace, 1)
	require.NotContains(t, st.AgentTrace, "diagnostic_tool_refiner")
	require.Equal(t, "Misfire.", st.SymptomSummary)
}

func TestPipelineInfoToolRefinement(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"answer": "Horsepower is an engine output measure.", "tool_call": "lookup_glossary_term"}`),
		llm.Respond("Horsepower equals 550 foot-pounds per second; it measures how fast an engine does work."),
	)
	rt, _ := newTestRuntime(t, client)
	st := newTestState("what is horsepower?")

	rt.runPipeline(context.Background(), infoPipeline{}, st)

	require.Equal(t, 2, client.Calls())
	require.Equal(t, "Horsepower equals 550 foot-pounds per second; it measures how fast an engine does work.", st.InfoAnswer)
	require.Equal(t, []string{"info", "info_tool_refiner"}, st.AgentTrace)
	require.Len(t, st.ToolTrace, 1)
	require.Equal(t, "lookup_glossary_term", st.ToolTrace[0].Tool)
}

func TestPipelineUnparsableOutputFallsBack(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(llm.Respond(""))
	rt, _ := newTestRuntime(t, client)
	st := newTestState("recommend mods")

	rt.runPipeline(context.Background(), modCoachPipeline{}, st)

	require.Len(t, st.ModRecommendations, 1)
	require.Equal(t, "Performance Air Filter", st.ModRecommendations[0]["name"])
	require.True(t, st.Done())
}

func TestPipelineCompletionFailureFallsBack(t *testing.T) {
	t.Parallel()

	rt, _ := newTestRuntime(t, &llm.FailingClient{})
	st := newTestState("diagnose this")

	rt.runPipeline(context.Background(), diagnosticPipeline{}, st)

	require.Equal(t, diagnosticFallbackSummary, st.SymptomSummary)
	require.True(t, st.Done())
	require.Equal(t, []string{"diagnostic"}, st.AgentTrace)
}

func TestPipelineRefinerFailureKeepsInitialResult(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"build_plan": [{"stage": 1, "mods": ["Cold Air Intake"]}], "tool_call": "estimate_mod_cost"}`),
		llm.Fail(context.DeadlineExceeded),
	)
	rt, _ := newTestRuntime(t, client)
	st := newTestState("plan my build")

	rt.runPipeline(context.Background(), buildPlannerPipeline{}, st)

	require.Len(t, st.BuildPlan, 1)
	require.Contains(t, st.AgentTrace, "buildplanner_tool_refiner")
	require.Len(t, st.ToolTrace, 1)
}
