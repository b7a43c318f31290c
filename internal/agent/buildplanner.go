package agent

import (
	"context"

	"talon/internal/parser"
	"talon/internal/session"
)

// buildPlannerPipeline produces multi-stage upgrade plans.
type buildPlannerPipeline struct{}

func (buildPlannerPipeline) Name() string         { return ActionBuildPlanner }
func (buildPlannerPipeline) Temperature() float64 { return 0.2 }

func (buildPlannerPipeline) InitialPrompt(st *session.State) string {
	return buildPlannerPrompt(st)
}

func (buildPlannerPipeline) Apply(_ context.Context, _ *Runtime, st *session.State, payload map[string]any) {
	st.BuildPlan = parser.ObjectList(payload, "build_plan")
}

func (buildPlannerPipeline) ToolInput(st *session.State) map[string]any {
	return map[string]any{"build_plan": st.BuildPlan}
}

func (buildPlannerPipeline) RefinerPrompt(st *session.State, toolOutput map[string]any) string {
	return buildPlannerRefinerPrompt(st, toolOutput)
}

func (buildPlannerPipeline) ApplyRefined(st *session.State, raw string) {
	payload, err := parser.DecodeObject(raw)
	if err != nil {
		return
	}
	if plan := parser.ObjectList(payload, "build_plan"); len(plan) > 0 {
		st.BuildPlan = plan
	}
}

func (buildPlannerPipeline) Fallback(st *session.State) {
	st.BuildPlan = []map[string]any{{
		"stage": 1,
		"name":  "Foundation Stage",
		"mods":  []any{"Performance Air Filter"},
	}}
}

func (buildPlannerPipeline) Notice(*session.State) string {
	return "Your build plan is ready."
}
