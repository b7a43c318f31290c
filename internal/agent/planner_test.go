package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"talon/internal/llm"
	"talon/internal/session"
	"talon/internal/store"
)

func newTestRuntime(t *testing.T, client llm.Client) (*Runtime, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	return NewRuntime(client, st, Options{}), st
}

func newTestState(query string) *session.State {
	return session.New(query, "u1", "default", store.CarProfile{UserID: "u1", Make: "Acura", Model: "Integra", Year: 2023})
}

func TestParseDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		action string
	}{
		{"plain", `{"action": "info", "reasoning": "general question"}`, ActionInfo},
		{"fenced", "```json\n{\"action\": \"diagnostic\", \"reasoning\": \"symptoms\"}\n```", ActionDiagnostic},
		{"end", `{"action": "end", "reasoning": "done"}`, ActionEnd},
		{"unknown action", `{"action": "summon_mechanic", "reasoning": "?"}`, ActionEnd},
		{"missing action", `{"reasoning": "?"}`, ActionEnd},
		{"garbage", `the model rambled instead of answering`, ActionEnd},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.action, parseDecision(tt.raw).Action)
		})
	}
}

func TestParseDecisionFailClosedReasoning(t *testing.T) {
	t.Parallel()

	dec := parseDecision(`{"action": "reboot_universe"}`)
	require.Equal(t, ActionEnd, dec.Action)
	require.Contains(t, dec.Reasoning, "Error parsing response")
}

func TestPlannerEndSetsDefaultMessage(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"action": "end", "reasoning": "nothing to do"}`),
	)
	rt, _ := newTestRuntime(t, client)
	st := newTestState("thanks!")

	rt.runPlanner(context.Background(), st)

	require.Equal(t, "Session complete. Happy driving!", st.FinalMessage)
	require.Len(t, st.AgentTrace, 1)
	require.Contains(t, st.AgentTrace[0], "Planner[1] → end: nothing to do")
}

func TestPlannerCapForcesMaxIterationsNotice(t *testing.T) {
	t.Parallel()

	var replies []llm.ScriptedReply
	for i := 0; i < 5; i++ {
		replies = append(replies,
			llm.Respond(`{"action": "info", "reasoning": "still curious"}`),
			llm.Respond(`{"answer": "an answer", "tool_call": null}`),
		)
	}
	rt, _ := newTestRuntime(t, llm.NewScriptedClient(replies...))
	st := newTestState("tell me everything")

	rt.runPlanner(context.Background(), st)

	require.Equal(t, maxIterationsMessage, st.FinalMessage)
	last := st.AgentTrace[len(st.AgentTrace)-1]
	require.Equal(t, "Planner[5] → end: Reached maximum iterations", last)
	// 5 decisions + 5 sub-agent entries + 1 cap entry
	require.Len(t, st.AgentTrace, 11)
}

func TestPlannerCompletionFailureEndsTurn(t *testing.T) {
	t.Parallel()

	rt, _ := newTestRuntime(t, &llm.FailingClient{})
	st := newTestState("hello")

	rt.runPlanner(context.Background(), st)

	require.True(t, st.Done())
	require.Equal(t, subAgentApology, st.FinalMessage)
	require.Len(t, st.AgentTrace, 1)
	require.Contains(t, st.AgentTrace[0], "→ error:")
}

func TestPlannerMemoryReadFailureDegrades(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"action": "end", "reasoning": "done"}`),
	)
	st0 := store.NewInMemoryStore()
	st0.FailReads = context.DeadlineExceeded
	rt := NewRuntime(client, st0, Options{})
	st := newTestState("hello")

	rt.runPlanner(context.Background(), st)

	require.True(t, st.Done())
	require.Contains(t, client.Prompts()[0], "No previous conversations found.")
}

func TestPlannerPromptCarriesMemory(t *testing.T) {
	t.Parallel()

	client := llm.NewScriptedClient(
		llm.Respond(`{"action": "end", "reasoning": "done"}`),
	)
	rt, backing := newTestRuntime(t, client)
	require.NoError(t, backing.Append(context.Background(), store.Conversation{
		UserID: "u1",
		Query:  "what oil should I use?",
		FinalOutput: map[string]any{
			"type": "info",
		},
	}))
	st := newTestState("hello again")

	rt.runPlanner(context.Background(), st)

	require.Contains(t, client.Prompts()[0], "Recent conversation history:")
	require.Contains(t, client.Prompts()[0], "what oil should I use?")
}
