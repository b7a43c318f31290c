package agent

import (
	"context"
	"strconv"

	"talon/internal/parser"
	"talon/internal/session"
	"talon/internal/store"
)

const profileUpdaterFallback = "I'll keep that information in mind for future recommendations."

// profileUpdaterPipeline extracts car details from the query and persists
// them on the user's profile. It is the only pipeline that writes to the
// store; the write is best-effort and never fails the turn.
type profileUpdaterPipeline struct{}

func (profileUpdaterPipeline) Name() string         { return ActionProfileUpdater }
func (profileUpdaterPipeline) Temperature() float64 { return 0.1 }

func (profileUpdaterPipeline) InitialPrompt(st *session.State) string {
	return profileUpdaterPrompt(st)
}

func (profileUpdaterPipeline) Apply(ctx context.Context, rt *Runtime, st *session.State, payload map[string]any) {
	shouldUpdate := parser.Bool(payload, "should_update")
	updates := profileUpdatesFrom(parser.Object(payload, "updates"))

	if shouldUpdate && !updates.Empty() {
		if err := rt.store.ApplyUpdates(ctx, st.UserID, updates); err != nil {
			rt.log.Warn("profile update for user %s failed: %v", st.UserID, err)
		} else {
			applyToSnapshot(&st.CarProfile, updates)
		}
	}

	st.SetFlag("profile_updated", shouldUpdate)
	st.ProfileResponse = parser.String(payload, "response")
	if st.ProfileResponse == "" {
		st.ProfileResponse = "Profile information noted."
	}
}

func (profileUpdaterPipeline) ToolInput(*session.State) map[string]any { return nil }

func (profileUpdaterPipeline) RefinerPrompt(*session.State, map[string]any) string { return "" }

func (profileUpdaterPipeline) ApplyRefined(*session.State, string) {}

func (profileUpdaterPipeline) Fallback(st *session.State) {
	st.ProfileResponse = profileUpdaterFallback
}

func (profileUpdaterPipeline) Notice(st *session.State) string {
	if st.ProfileResponse != "" {
		return st.ProfileResponse
	}
	return profileUpdaterFallback
}

// profileUpdatesFrom converts the extracted updates object into typed field
// changes, skipping nulls and unusable values.
func profileUpdatesFrom(raw map[string]any) store.ProfileUpdates {
	var updates store.ProfileUpdates
	if v := parser.String(raw, "make"); v != "" && v != "null" {
		updates.Make = &v
	}
	if v := parser.String(raw, "model"); v != "" && v != "null" {
		updates.Model = &v
	}
	if v := parser.String(raw, "resale_pref"); v != "" && v != "null" {
		updates.ResalePref = &v
	}
	if year, ok := yearFrom(raw["year"]); ok {
		updates.Year = &year
	}
	return updates
}

// yearFrom accepts the model emitting year as a number or a string.
func yearFrom(v any) (int, bool) {
	switch year := v.(type) {
	case float64:
		return int(year), true
	case int:
		return year, true
	case string:
		if n, err := strconv.Atoi(year); err == nil {
			return n, true
		}
	}
	return 0, false
}

func applyToSnapshot(profile *store.CarProfile, updates store.ProfileUpdates) {
	if updates.Make != nil {
		profile.Make = *updates.Make
	}
	if updates.Model != nil {
		profile.Model = *updates.Model
	}
	if updates.Year != nil {
		profile.Year = *updates.Year
	}
	if updates.ResalePref != nil {
		profile.ResalePref = *updates.ResalePref
	}
}
