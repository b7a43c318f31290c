// Package store persists car profiles and conversation memory.
package store

import (
	"context"
	"time"
)

// CarProfile is the persisted snapshot of a user's vehicle and history.
type CarProfile struct {
	UserID     string      `json:"user_id"`
	Make       string      `json:"make"`
	Model      string      `json:"model"`
	Year       int         `json:"year"`
	ResalePref string      `json:"resale_pref"`
	Mods       []Mod       `json:"mods"`
	Symptoms   []Symptom   `json:"symptoms"`
	Goals      []BuildGoal `json:"goals"`
}

// Mod is an installed or planned modification on a car.
type Mod struct {
	Name        string `json:"name"`
	Brand       string `json:"brand,omitempty"`
	Status      string `json:"status"` // "installed" or "planned"
	InstallDate string `json:"install_date,omitempty"`
	Notes       string `json:"notes,omitempty"`
	SourceLink  string `json:"source_link,omitempty"`
}

// Symptom is a reported mechanical issue.
type Symptom struct {
	Description     string `json:"description"`
	Severity        string `json:"severity,omitempty"`
	Resolved        bool   `json:"resolved"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
}

// BuildGoal captures what the user wants out of their build.
type BuildGoal struct {
	GoalType string `json:"goal_type"`
	Priority int    `json:"priority,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// ProfileUpdates carries field changes extracted by the profile-updater agent.
// Nil fields are left untouched.
type ProfileUpdates struct {
	Make       *string
	Model      *string
	Year       *int
	ResalePref *string
}

// Empty reports whether no field would change.
func (u ProfileUpdates) Empty() bool {
	return u.Make == nil && u.Model == nil && u.Year == nil && u.ResalePref == nil
}

// Conversation is one completed chat turn recorded for recall.
type Conversation struct {
	ID          int64          `json:"id"`
	UserID      string         `json:"user_id"`
	SessionID   string         `json:"session_id"`
	Query       string         `json:"query"`
	AgentTrace  []string       `json:"agent_trace"`
	FinalOutput map[string]any `json:"final_output"`
	CarProfile  CarProfile     `json:"car_profile_snapshot"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ProfileStore abstracts car profile persistence.
type ProfileStore interface {
	// GetOrCreate returns the user's profile, creating an empty one if absent.
	GetOrCreate(ctx context.Context, userID string) (*CarProfile, error)

	// ApplyUpdates writes non-nil fields onto the user's profile.
	ApplyUpdates(ctx context.Context, userID string, updates ProfileUpdates) error
}

// MemoryStore abstracts conversation memory persistence.
type MemoryStore interface {
	// Append records a completed turn.
	Append(ctx context.Context, conv Conversation) error

	// Recent returns up to limit conversations for the user, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]Conversation, error)

	// Session returns all conversations for the user's session, oldest first.
	Session(ctx context.Context, userID, sessionID string) ([]Conversation, error)

	// Prune deletes conversations for the user per the retention policy.
	Prune(ctx context.Context, userID string, policy RetentionPolicy) error
}

// Store combines both persistence concerns; a single backend serves both.
type Store interface {
	ProfileStore
	MemoryStore
}
