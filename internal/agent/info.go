package agent

import (
	"context"
	"strings"

	"talon/internal/parser"
	"talon/internal/session"
)

const infoFallbackAnswer = "I'm your automotive assistant! I can help with car information, modifications, diagnostics, and build planning. What would you like to know?"

// infoPipeline answers general automotive questions and greetings.
type infoPipeline struct{}

func (infoPipeline) Name() string         { return ActionInfo }
func (infoPipeline) Temperature() float64 { return 0.3 }

func (infoPipeline) InitialPrompt(st *session.State) string {
	return infoPrompt(st)
}

func (infoPipeline) Apply(_ context.Context, _ *Runtime, st *session.State, payload map[string]any) {
	st.InfoAnswer = parser.String(payload, "answer")
}

func (infoPipeline) ToolInput(st *session.State) map[string]any {
	return map[string]any{"query": st.Query}
}

func (infoPipeline) RefinerPrompt(st *session.State, toolOutput map[string]any) string {
	return infoRefinerPrompt(st, toolOutput)
}

// ApplyRefined expects a plain string, not JSON.
func (infoPipeline) ApplyRefined(st *session.State, raw string) {
	if refined := strings.TrimSpace(parser.StripFences(raw)); refined != "" {
		st.InfoAnswer = refined
	}
}

func (infoPipeline) Fallback(st *session.State) {
	st.InfoAnswer = infoFallbackAnswer
}

func (infoPipeline) Notice(st *session.State) string {
	if st.InfoAnswer != "" {
		return st.InfoAnswer
	}
	return infoFallbackAnswer
}
