package agent

import (
	"context"
	"fmt"

	"talon/internal/parser"
	"talon/internal/session"
)

const (
	endDefaultMessage = "Session complete. Happy driving!"

	maxIterationsMessage = "I've reached the maximum number of planning iterations. " +
		"Please try rephrasing your question if you need more help."

	subAgentApology = "Sorry, I encountered an error processing your request. Please try again."
)

// decision is one planner choice.
type decision struct {
	Action    string
	Reasoning string
}

// parseDecision tolerantly decodes the planner's output. Any output that does
// not resolve to an allowed action becomes an end decision with a synthetic
// reasoning: ambiguous planner output terminates the turn rather than risking
// an invalid or unbounded action.
func parseDecision(raw string) decision {
	payload, err := parser.DecodeObject(raw)
	if err != nil {
		return decision{Action: ActionEnd, Reasoning: "Error parsing response: unparsable planner output"}
	}

	action := parser.String(payload, "action")
	switch action {
	case ActionInfo, ActionDiagnostic, ActionModCoach, ActionBuildPlanner, ActionProfileUpdater, ActionEnd:
		return decision{Action: action, Reasoning: parser.String(payload, "reasoning")}
	default:
		return decision{Action: ActionEnd, Reasoning: fmt.Sprintf("Error parsing response: invalid action %q", action)}
	}
}

// runPlanner executes the planner's decision loop. Every exit path leaves a
// terminal message on the state: end, the iteration cap, a completion error,
// or a recovered sub-agent panic.
func (r *Runtime) runPlanner(ctx context.Context, st *session.State) {
	for iteration := 1; iteration <= r.plannerMaxIterations; iteration++ {
		memoryContext := r.memoryContext(ctx, st.UserID)

		raw, err := r.complete(ctx, plannerPrompt(st, memoryContext), 0)
		if err != nil {
			r.log.Warn("planner completion failed: %v", err)
			st.AppendTrace(fmt.Sprintf("Planner[%d] → error: %v", iteration, err))
			st.ForceFinal(subAgentApology)
			return
		}
		dec := parseDecision(raw)

		st.AppendTrace(fmt.Sprintf("Planner[%d] → %s: %s", iteration, dec.Action, dec.Reasoning))
		r.metrics.PlannerDecision(dec.Action)
		r.log.Debug("planner iteration %d chose %s", iteration, dec.Action)

		if dec.Action == ActionEnd {
			st.SetFinal(endDefaultMessage)
			return
		}

		if err := r.dispatch(ctx, st, dec.Action); err != nil {
			st.AppendTrace(fmt.Sprintf("Planner[%d] → error: %v", iteration, err))
			st.ForceFinal(subAgentApology)
			return
		}
	}

	st.ForceFinal(maxIterationsMessage)
	st.AppendTrace(fmt.Sprintf("Planner[%d] → end: Reached maximum iterations", r.plannerMaxIterations))
}

// dispatch runs the chosen capability pipeline, converting panics to errors
// so one bad iteration cannot take down the turn.
func (r *Runtime) dispatch(ctx context.Context, st *session.State, action string) (err error) {
	p := pipelineFor(action)
	if p == nil {
		return fmt.Errorf("no pipeline for action %q", action)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s agent panicked: %v", action, rec)
			r.log.Error("%v", err)
		}
	}()

	r.runPipeline(ctx, p, st)
	return nil
}

// memoryContext fetches recent conversations for the planner prompt.
// Retrieval failure degrades to no history.
func (r *Runtime) memoryContext(ctx context.Context, userID string) string {
	conversations, err := r.store.Recent(ctx, userID, r.memoryRecallLimit)
	if err != nil {
		r.log.Warn("memory retrieval for user %s failed: %v", userID, err)
		return "No previous conversations found."
	}
	return formatMemoryContext(conversations)
}
