package agent

import (
	"context"
	"strings"

	"talon/internal/parser"
	"talon/internal/session"
	"talon/internal/tools"
)

// pipeline is the shared shape of a capability run: one initial model call,
// an optional tool invocation with a refinement call, then a terminal notice.
// Implementations write into their dedicated state slot only.
type pipeline interface {
	Name() string
	Temperature() float64
	InitialPrompt(st *session.State) string

	// Apply writes the parsed initial payload into state.
	Apply(ctx context.Context, rt *Runtime, st *session.State, payload map[string]any)

	// ToolInput builds the context record passed to a tool fixture.
	ToolInput(st *session.State) map[string]any

	// RefinerPrompt embeds the tool output for the second pass.
	RefinerPrompt(st *session.State, toolOutput map[string]any) string

	// ApplyRefined overwrites the primary result with the refined payload.
	ApplyRefined(st *session.State, raw string)

	// Fallback writes the capability's canned message into its result slot.
	Fallback(st *session.State)

	// Notice returns the terminal message signalling the turn can end.
	Notice(st *session.State) string
}

// runPipeline executes one capability. It never returns an error: completion
// and parse failures degrade to the capability's canned fallback, and the
// terminal notice is always set so the turn terminates.
func (r *Runtime) runPipeline(ctx context.Context, p pipeline, st *session.State) {
	st.AppendTrace(p.Name())

	raw, err := r.complete(ctx, p.InitialPrompt(st), p.Temperature())
	if err != nil {
		r.log.Warn("%s agent completion failed: %v", p.Name(), err)
		p.Fallback(st)
		st.SetFinal(p.Notice(st))
		return
	}

	payload, perr := parser.DecodeObject(raw)
	if perr != nil {
		r.log.Warn("%s agent produced unparsable output", p.Name())
		p.Fallback(st)
		st.SetFinal(p.Notice(st))
		return
	}
	p.Apply(ctx, r, st, payload)

	tool := strings.TrimSpace(parser.String(payload, "tool_call"))
	if tool != "" && tool != "null" && !st.ToolUsed(p.Name(), tool) {
		input := p.ToolInput(st)
		output := tools.Invoke(p.Name(), tool, input)
		st.AppendToolTrace(session.ToolInvocation{Agent: p.Name(), Tool: tool, Input: input, Output: output})
		r.metrics.ToolInvocation(p.Name(), tool)

		refined, rerr := r.complete(ctx, p.RefinerPrompt(st, output), p.Temperature())
		if rerr != nil {
			r.log.Warn("%s refiner completion failed, keeping initial result: %v", p.Name(), rerr)
		} else {
			p.ApplyRefined(st, refined)
		}
		st.AppendTrace(p.Name() + "_tool_refiner")
	}

	st.SetFinal(p.Notice(st))
}

// pipelineFor maps a planner action to its capability pipeline.
func pipelineFor(action string) pipeline {
	switch action {
	case ActionInfo:
		return infoPipeline{}
	case ActionDiagnostic:
		return diagnosticPipeline{}
	case ActionModCoach:
		return modCoachPipeline{}
	case ActionBuildPlanner:
		return buildPlannerPipeline{}
	case ActionProfileUpdater:
		return profileUpdaterPipeline{}
	default:
		return nil
	}
}
