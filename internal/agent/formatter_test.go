package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"talon/internal/session"
	"talon/internal/store"
)

func TestPrimaryTypePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		trace []string
		want  string
	}{
		{"empty trace defaults to info", nil, ActionInfo},
		{"info only", []string{"Planner[1] → info: q", "info"}, ActionInfo},
		{"diagnostic beats modcoach", []string{"diagnostic", "modcoach"}, ActionDiagnostic},
		{"buildplanner beats everything", []string{"diagnostic", "modcoach", "buildplanner"}, ActionBuildPlanner},
		{"modcoach beats info", []string{"info", "modcoach"}, ActionModCoach},
		{"planner decision lines count", []string{"Planner[1] → buildplanner: staged build requested"}, ActionBuildPlanner},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, primaryType(tt.trace))
		})
	}
}

func TestFormatBuildPlanner(t *testing.T) {
	t.Parallel()

	st := newTestState("plan my build")
	st.AgentTrace = []string{"Planner[1] → buildplanner: build requested", "buildplanner"}
	st.BuildPlan = []map[string]any{
		{"stage": 1, "mods": []any{"Cold Air Intake"}},
		{"stage": 2, "mods": []any{"Downpipe", "Stage 1 Tune"}},
	}

	resp := Format(st)

	require.Equal(t, ActionBuildPlanner, resp.Type)
	require.Equal(t, "Here's your personalized build plan for your car!", resp.Message)
	require.Contains(t, resp.Response, "Cold Air Intake")
	require.Contains(t, resp.Response, "Stage 1 Tune")
	require.Equal(t, 2, resp.Data["total_stages"])
}

func TestFormatEmptySlotFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trace   []string
		message string
	}{
		{"buildplanner empty", []string{"buildplanner"}, "I'd be happy to help you create a build plan! Tell me about your car and what you want to achieve."},
		{"diagnostic empty", []string{"diagnostic"}, "I'd be happy to help diagnose any car issues. Could you describe what symptoms you're experiencing?"},
		{"modcoach empty", []string{"modcoach"}, "I'd be happy to recommend some mods! Tell me about your car and what you want to achieve."},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := newTestState("q")
			st.AgentTrace = tt.trace
			resp := Format(st)
			require.Equal(t, tt.message, resp.Message)
			require.Equal(t, resp.Message, resp.Response)
		})
	}
}

func TestFormatInfoGreetingFallback(t *testing.T) {
	t.Parallel()

	st := newTestState("hello there")
	resp := Format(st)

	require.Equal(t, ActionInfo, resp.Type)
	require.Contains(t, resp.Response, "Hello! I'm your automotive assistant.")
}

func TestFormatProfileResponseUsedWhenNoInfoAnswer(t *testing.T) {
	t.Parallel()

	st := newTestState("I drive a WRX")
	st.AgentTrace = []string{"Planner[1] → profile_updater: details shared", "profile_updater"}
	st.ProfileResponse = "Noted, you drive a WRX."

	resp := Format(st)

	require.Equal(t, ActionInfo, resp.Type)
	require.Equal(t, "Noted, you drive a WRX.", resp.Response)
}

func TestFormatErrorShapeWhenNoCapabilityContent(t *testing.T) {
	t.Parallel()

	st := newTestState("hello")
	st.AgentTrace = []string{"Planner[1] → error: completion: service unavailable"}
	st.ForceFinal(subAgentApology)

	resp := Format(st)

	require.Equal(t, "error", resp.Type)
	require.Equal(t, subAgentApology, resp.Message)
	require.Equal(t, subAgentApology, resp.Response)
	require.Equal(t, st.AgentTrace, resp.AgentTrace)
}

func TestFormatKeepsCapabilityContentAfterLateFailure(t *testing.T) {
	t.Parallel()

	st := newTestState("rough idle")
	st.AgentTrace = []string{"Planner[1] → diagnostic: symptoms described", "Planner[2] → error: modcoach agent panicked"}
	st.SymptomSummary = "Likely a vacuum leak near the intake manifold."
	st.ForceFinal(subAgentApology)

	resp := Format(st)

	require.Equal(t, ActionDiagnostic, resp.Type)
	require.Equal(t, "Likely a vacuum leak near the intake manifold.", resp.Response)
}

func TestFormatSurfacesMaxIterationsNotice(t *testing.T) {
	t.Parallel()

	st := newTestState("keep going")
	st.AgentTrace = []string{"Planner[5] → end: Reached maximum iterations"}
	st.ForceFinal(maxIterationsMessage)

	resp := Format(st)

	require.Equal(t, ActionInfo, resp.Type)
	require.Equal(t, maxIterationsMessage, resp.Message)
	require.Equal(t, maxIterationsMessage, resp.Response)
}

func TestFormatCarriesProfileAndTraces(t *testing.T) {
	t.Parallel()

	st := newTestState("q")
	st.CarProfile = store.CarProfile{UserID: "u1", Make: "Acura"}
	st.AgentTrace = []string{"info"}
	st.AppendToolTrace(session.ToolInvocation{Agent: "info", Tool: "tech_spec_lookup"})

	resp := Format(st)

	require.Equal(t, "Acura", resp.CarProfile.Make)
	require.Equal(t, st.AgentTrace, resp.AgentTrace)
	require.Len(t, resp.ToolTrace, 1)
}
