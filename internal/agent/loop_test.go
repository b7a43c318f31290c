package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"talon/internal/llm"
	"talon/internal/store"
)

func TestTurnInfoQuestion(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"action": "info", "reasoning": "general automotive question"}`),
		llm.Respond(`{"answer": "A turbocharger forces more air into the engine using exhaust energy.", "tool_call": null}`),
		llm.Respond(`{"action": "end", "reasoning": "question fully answered"}`),
	)
	rt, backing := newTestRuntime(t, client)
	st := newTestState("What is a turbocharger?")

	resp := rt.RunTurn(context.Background(), st)

	require.Equal(t, "info", resp.Type)
	require.Equal(t, "A turbocharger forces more air into the engine using exhaust energy.", resp.Response)
	require.Equal(t, []string{
		"Planner[1] → info: general automotive question",
		"info",
		"Planner[2] → end: question fully answered",
	}, resp.AgentTrace)
	require.Empty(t, resp.ToolTrace)
	require.Equal(t, 1, backing.Count("u1"))
}

func TestTurnToolRefinement(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"action": "diagnostic", "reasoning": "misfire symptoms reported"}`),
		llm.Respond(`{"symptom_summary": "Possible misfire.", "followup_recommendations": ["scan for codes"], "tool_call": "lookup_official_dtc"}`),
		llm.Respond(`{"symptom_summary": "Likely ignition coil failure, matching P0300-series codes.", "followup_recommendations": ["replace coils", "re-scan"]}`),
		llm.Respond(`{"action": "end", "reasoning": "diagnosis delivered"}`),
	)
	rt, _ := newTestRuntime(t, client)
	st := newTestState("My engine is misfiring")

	resp := rt.RunTurn(context.Background(), st)

	require.Equal(t, "diagnostic", resp.Type)
	require.Equal(t, "Likely ignition coil failure, matching P0300-series codes.", resp.Response)
	require.Len(t, resp.ToolTrace, 1)
	require.Equal(t, "diagnostic", resp.ToolTrace[0].Agent)
	require.Equal(t, "lookup_official_dtc", resp.ToolTrace[0].Tool)
	require.NotEmpty(t, resp.ToolTrace[0].Output)
	require.Contains(t, resp.AgentTrace, "diagnostic_tool_refiner")
}

func TestTurnMultipleAgentsPriority(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"action": "diagnostic", "reasoning": "symptoms first"}`),
		llm.Respond(`{"symptom_summary": "Misfire under load.", "followup_recommendations": [], "tool_call": null}`),
		llm.Respond(`{"action": "modcoach", "reasoning": "user also wants more power"}`),
		llm.Respond(`{"mod_recommendations": [{"name": "Cold Air Intake", "type": "intake", "justification": "cheap gains"}], "additional_flags": {}, "tool_call": null}`),
		llm.Respond(`{"action": "end", "reasoning": "both needs addressed"}`),
	)
	rt, _ := newTestRuntime(t, client)
	st := newTestState("My engine is misfiring and I want more horsepower")

	resp := rt.RunTurn(context.Background(), st)

	// diagnostic outranks modcoach in the response type
	require.Equal(t, "diagnostic", resp.Type)
	require.Equal(t, "Misfire under load.", resp.Response)
	require.Equal(t, []map[string]any{{
		"name": "Cold Air Intake", "type": "intake", "justification": "cheap gains",
	}}, st.ModRecommendations)
}

func TestTurnAlwaysFailingModelStillResponds(t *testing.T) {
	t.Parallel()

	rt, backing := newTestRuntime(t, &llm.FailingClient{Err: errors.New("service unavailable")})
	st := newTestState("hello")

	resp := rt.RunTurn(context.Background(), st)

	require.Equal(t, "error", resp.Type)
	require.Equal(t, subAgentApology, resp.Message)
	require.Equal(t, subAgentApology, resp.Response)
	require.NotEmpty(t, resp.AgentTrace)
	require.Equal(t, 1, backing.Count("u1"))
}

func TestTurnProfileUpdater(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"action": "profile_updater", "reasoning": "user shared car details"}`),
		llm.Respond(`{"should_update": true, "updates": {"make": "Subaru", "model": "WRX", "year": 2020}, "response": "Got it, I'll remember you drive a 2020 Subaru WRX."}`),
		llm.Respond(`{"action": "end", "reasoning": "profile stored"}`),
	)
	rt, backing := newTestRuntime(t, client)
	backing.SeedProfile(store.CarProfile{UserID: "u1"})
	st := newTestState("I drive a 2020 Subaru WRX")
	st.CarProfile = store.CarProfile{UserID: "u1"}

	resp := rt.RunTurn(context.Background(), st)

	require.True(t, st.Flags["profile_updated"])
	require.Contains(t, resp.Response, "2020 Subaru WRX")

	profile, err := backing.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "Subaru", profile.Make)
	require.Equal(t, "WRX", profile.Model)
	require.Equal(t, 2020, profile.Year)
}

func TestTurnMemoryWriteFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"action": "end", "reasoning": "nothing to do"}`),
	)
	backing := store.NewInMemoryStore()
	backing.FailWrites = errors.New("disk full")
	rt := NewRuntime(client, backing, Options{})
	st := newTestState("hi")

	resp := rt.RunTurn(context.Background(), st)

	require.NotEmpty(t, resp.Type)
	require.Equal(t, 0, backing.Count("u1"))
}

func TestTurnRetentionPruning(t *testing.T) {
	t.Parallel()

	rt, backing := newTestRuntime(t, scriptedEndClient(12))
	for i := 0; i < 12; i++ {
		st := newTestState("hello")
		rt.RunTurn(context.Background(), st)
	}

	require.Equal(t, 10, backing.Count("u1"))
}

// scriptedEndClient answers every planner call with an end decision.
func scriptedEndClient(turns int) *llm.ScriptedClient {
	replies := make([]llm.ScriptedReply, 0, turns)
	for i := 0; i < turns; i++ {
		replies = append(replies, llm.Respond(`{"action": "end", "reasoning": "done"}`))
	}
	return llm.NewScriptedClient(replies...)
}
