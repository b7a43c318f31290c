package agent

import (
	"context"

	"talon/internal/parser"
	"talon/internal/session"
)

const diagnosticFallbackSummary = "I'd be happy to help diagnose car issues. Could you describe the specific symptoms you're experiencing?"

// diagnosticPipeline analyzes reported mechanical symptoms.
type diagnosticPipeline struct{}

func (diagnosticPipeline) Name() string         { return ActionDiagnostic }
func (diagnosticPipeline) Temperature() float64 { return 0.1 }

func (diagnosticPipeline) InitialPrompt(st *session.State) string {
	return diagnosticPrompt(st)
}

func (diagnosticPipeline) Apply(_ context.Context, _ *Runtime, st *session.State, payload map[string]any) {
	st.SymptomSummary = parser.String(payload, "symptom_summary")
	st.FollowupRecommendations = parser.StringList(payload, "followup_recommendations")
}

func (diagnosticPipeline) ToolInput(st *session.State) map[string]any {
	return map[string]any{
		"query":       st.Query,
		"car_profile": st.CarProfile,
	}
}

func (diagnosticPipeline) RefinerPrompt(st *session.State, toolOutput map[string]any) string {
	return diagnosticRefinerPrompt(st, toolOutput)
}

func (diagnosticPipeline) ApplyRefined(st *session.State, raw string) {
	payload, err := parser.DecodeObject(raw)
	if err != nil {
		return
	}
	if summary := parser.String(payload, "symptom_summary"); summary != "" {
		st.SymptomSummary = summary
	}
	if recs := parser.StringList(payload, "followup_recommendations"); len(recs) > 0 {
		st.FollowupRecommendations = recs
	}
}

func (diagnosticPipeline) Fallback(st *session.State) {
	st.SymptomSummary = diagnosticFallbackSummary
}

func (diagnosticPipeline) Notice(*session.State) string {
	return "I've analyzed your symptoms and put together a diagnosis."
}
