package agent

import (
	"fmt"
	"strings"

	"talon/internal/parser"
	"talon/internal/session"
	"talon/internal/store"
)

// Response is the client-facing record for one chat turn.
type Response struct {
	Type       string                   `json:"type"`
	Message    string                   `json:"message"`
	Response   string                   `json:"response"`
	Data       map[string]any           `json:"data,omitempty"`
	AgentTrace []string                 `json:"agent_trace"`
	ToolTrace  []session.ToolInvocation `json:"tool_trace"`
	CarProfile store.CarProfile         `json:"car_profile"`
}

// memoryRecord is the summary persisted with the conversation.
func (r Response) memoryRecord() map[string]any {
	return map[string]any{
		"type":     r.Type,
		"message":  r.Message,
		"response": r.Response,
	}
}

func errorResponse(st *session.State) Response {
	return Response{
		Type:       "error",
		Message:    subAgentApology,
		Response:   subAgentApology,
		AgentTrace: st.AgentTrace,
		ToolTrace:  st.ToolTrace,
		CarProfile: st.CarProfile,
	}
}

// Format maps final turn state to the client response. A turn that failed
// before any capability produced content keeps the error shape. Otherwise the
// primary type is the highest-priority capability present in the agent trace,
// buildplanner over diagnostic over modcoach over info, with info as the
// default. It is a pure function of state and never fails.
func Format(st *session.State) Response {
	if st.FinalMessage == subAgentApology && !hasContent(st) {
		return errorResponse(st)
	}

	resp := Response{
		AgentTrace: st.AgentTrace,
		ToolTrace:  st.ToolTrace,
		CarProfile: st.CarProfile,
	}

	switch primaryType(st.AgentTrace) {
	case ActionBuildPlanner:
		resp.Type = ActionBuildPlanner
		if len(st.BuildPlan) > 0 {
			resp.Message = "Here's your personalized build plan for your car!"
			resp.Response = renderBuildPlan(st.BuildPlan)
		} else {
			resp.Message = "I'd be happy to help you create a build plan! Tell me about your car and what you want to achieve."
			resp.Response = resp.Message
		}
		resp.Data = map[string]any{
			"build_plan":   st.BuildPlan,
			"total_stages": len(st.BuildPlan),
		}

	case ActionDiagnostic:
		resp.Type = ActionDiagnostic
		if strings.TrimSpace(st.SymptomSummary) != "" {
			resp.Message = "Here's my diagnosis of your car's issue:"
			resp.Response = st.SymptomSummary
		} else {
			resp.Message = "I'd be happy to help diagnose any car issues. Could you describe what symptoms you're experiencing?"
			resp.Response = resp.Message
		}
		resp.Data = map[string]any{
			"symptom_summary":          st.SymptomSummary,
			"followup_recommendations": st.FollowupRecommendations,
		}

	case ActionModCoach:
		resp.Type = ActionModCoach
		if len(st.ModRecommendations) > 0 {
			resp.Message = "Here are my mod recommendations for your car:"
			resp.Response = renderModRecommendations(st.ModRecommendations)
		} else {
			resp.Message = "I'd be happy to recommend some mods! Tell me about your car and what you want to achieve."
			resp.Response = resp.Message
		}
		resp.Data = map[string]any{
			"mod_recommendations":   st.ModRecommendations,
			"total_recommendations": len(st.ModRecommendations),
		}

	default:
		resp.Type = ActionInfo
		answer := st.InfoAnswer
		if strings.TrimSpace(answer) == "" {
			answer = st.ProfileResponse
		}
		if strings.TrimSpace(answer) == "" {
			answer = st.FinalMessage
		}
		if strings.TrimSpace(answer) == "" {
			answer = fallbackInfoAnswer(st.Query)
		}
		resp.Message = answer
		resp.Response = answer
		resp.Data = map[string]any{"answer": answer}
	}

	return resp
}

// hasContent reports whether any capability left a result slot on the state.
func hasContent(st *session.State) bool {
	return strings.TrimSpace(st.InfoAnswer) != "" ||
		strings.TrimSpace(st.SymptomSummary) != "" ||
		strings.TrimSpace(st.ProfileResponse) != "" ||
		len(st.ModRecommendations) > 0 ||
		len(st.BuildPlan) > 0
}

// primaryType picks the highest-priority capability that actually ran, by
// substring match against trace entries (planner decision lines carry the
// capability names).
func primaryType(trace []string) string {
	for _, capability := range []string{ActionBuildPlanner, ActionDiagnostic, ActionModCoach, ActionInfo} {
		for _, entry := range trace {
			if strings.Contains(strings.ToLower(entry), capability) {
				return capability
			}
		}
	}
	return ActionInfo
}

// fallbackInfoAnswer covers the case where no agent produced usable content.
func fallbackInfoAnswer(query string) string {
	lower := strings.ToLower(query)
	for _, greeting := range []string{"hello", "hi", "hey", "good morning", "good afternoon"} {
		if strings.Contains(lower, greeting) {
			return "Hello! I'm your automotive assistant. I'm here to help you with any car-related questions, modifications, diagnostics, or build planning. What would you like to know about your vehicle?"
		}
	}
	return "I'm here to help with your automotive questions. Whether you need information about car maintenance, performance modifications, diagnostics, or build planning, I'm ready to assist!"
}

func renderModRecommendations(recs []map[string]any) string {
	var b strings.Builder
	b.WriteString("Based on your car and goals, here are my recommendations:\n")
	for i, rec := range recs {
		name := parser.String(rec, "name")
		if name == "" {
			name = "Unknown Modification"
		}
		modType := parser.String(rec, "type")
		if modType == "" {
			modType = "general"
		}
		justification := parser.String(rec, "justification")
		if justification == "" {
			justification = "No details available"
		}
		fmt.Fprintf(&b, "\n%d. %s (%s)\n   %s\n", i+1, name, modType, justification)
	}
	return b.String()
}

func renderBuildPlan(plan []map[string]any) string {
	var b strings.Builder
	b.WriteString("Here's your build plan:\n")
	for i, stage := range plan {
		name := parser.String(stage, "name")
		if name == "" {
			name = fmt.Sprintf("Stage %d", i+1)
		}
		fmt.Fprintf(&b, "\n%s\n", name)
		for _, mod := range parser.List(stage, "mods") {
			switch m := mod.(type) {
			case string:
				fmt.Fprintf(&b, "  - %s\n", m)
			case map[string]any:
				fmt.Fprintf(&b, "  - %s\n", parser.String(m, "name"))
			}
		}
	}
	return b.String()
}
