package agent

import (
	"context"

	"talon/internal/parser"
	"talon/internal/session"
)

// modCoachPipeline recommends the next performance upgrades.
type modCoachPipeline struct{}

func (modCoachPipeline) Name() string         { return ActionModCoach }
func (modCoachPipeline) Temperature() float64 { return 0.2 }

func (modCoachPipeline) InitialPrompt(st *session.State) string {
	return modCoachPrompt(st)
}

func (modCoachPipeline) Apply(_ context.Context, _ *Runtime, st *session.State, payload map[string]any) {
	st.ModRecommendations = parser.ObjectList(payload, "mod_recommendations")
	for name, value := range parser.Object(payload, "additional_flags") {
		if flag, ok := value.(bool); ok {
			st.SetFlag(name, flag)
		}
	}
}

func (modCoachPipeline) ToolInput(st *session.State) map[string]any {
	return map[string]any{"mods": st.ModRecommendations}
}

func (modCoachPipeline) RefinerPrompt(st *session.State, toolOutput map[string]any) string {
	return modCoachRefinerPrompt(st, toolOutput)
}

func (modCoachPipeline) ApplyRefined(st *session.State, raw string) {
	payload, err := parser.DecodeObject(raw)
	if err != nil {
		return
	}
	if recs := parser.ObjectList(payload, "mod_recommendations"); len(recs) > 0 {
		st.ModRecommendations = recs
	}
}

func (modCoachPipeline) Fallback(st *session.State) {
	st.ModRecommendations = []map[string]any{{
		"name":          "Performance Air Filter",
		"type":          "intake",
		"justification": "Easy first modification with immediate throttle response improvement",
	}}
}

func (modCoachPipeline) Notice(*session.State) string {
	return "I've put together mod recommendations for your car."
}
