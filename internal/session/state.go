// Package session holds the mutable state threaded through one chat turn.
package session

import (
	"github.com/google/uuid"

	"talon/internal/store"
)

// ToolInvocation records one tool-fixture call with its input and output.
type ToolInvocation struct {
	Agent  string         `json:"agent"`
	Tool   string         `json:"tool"`
	Input  map[string]any `json:"input,omitempty"`
	Output map[string]any `json:"output"`
}

// State is the single mutable record for one chat turn. It has exactly one
// owner (the turn executing it) and is never shared across turns.
//
// Traces are append-only. Each result slot is written by exactly one sub-agent
// type and overwritten, not merged, when that agent runs again.
type State struct {
	TurnID    string
	Query     string
	UserID    string
	SessionID string

	CarProfile store.CarProfile

	AgentTrace []string
	ToolTrace  []ToolInvocation
	Flags      map[string]bool

	// result slots, one owner each
	InfoAnswer              string           // info
	SymptomSummary          string           // diagnostic
	FollowupRecommendations []string         // diagnostic
	ModRecommendations      []map[string]any // modcoach
	BuildPlan               []map[string]any // buildplanner
	ProfileResponse         string           // profile_updater

	// FinalMessage is the termination sentinel: once non-empty the loop stops.
	FinalMessage string
}

// New creates a fresh State for one incoming chat request.
func New(query, userID, sessionID string, profile store.CarProfile) *State {
	return &State{
		TurnID:     uuid.NewString(),
		Query:      query,
		UserID:     userID,
		SessionID:  sessionID,
		CarProfile: profile,
		Flags:      make(map[string]bool),
	}
}

// AppendTrace appends one audit entry to the agent trace.
func (s *State) AppendTrace(entry string) {
	s.AgentTrace = append(s.AgentTrace, entry)
}

// AppendToolTrace records a tool invocation.
func (s *State) AppendToolTrace(inv ToolInvocation) {
	s.ToolTrace = append(s.ToolTrace, inv)
}

// SetFlag records an auxiliary boolean signal, last write wins.
func (s *State) SetFlag(name string, value bool) {
	if s.Flags == nil {
		s.Flags = make(map[string]bool)
	}
	s.Flags[name] = value
}

// Done reports whether the turn has produced its terminal message.
func (s *State) Done() bool {
	return s.FinalMessage != ""
}

// SetFinal sets the terminal message unless one is already present. Sub-agents
// use it so an earlier completion notice is not clobbered by the planner's
// default closing message.
func (s *State) SetFinal(message string) {
	if s.FinalMessage == "" {
		s.FinalMessage = message
	}
}

// ForceFinal overwrites the terminal message. Reserved for hard stops
// (iteration caps, error recovery) where the notice must win.
func (s *State) ForceFinal(message string) {
	s.FinalMessage = message
}

// ToolUsed reports whether the agent has already invoked the tool this turn.
func (s *State) ToolUsed(agent, tool string) bool {
	for _, inv := range s.ToolTrace {
		if inv.Agent == agent && inv.Tool == tool {
			return true
		}
	}
	return false
}
