package agent

import (
	"context"
	"time"

	"talon/internal/session"
	"talon/internal/store"
)

// RunTurn drives one chat turn to completion: planner invocations until a
// terminal message exists, formatting, then a best-effort memory write. It
// never returns an error; every failure mode degrades to an error-shaped
// Response.
func (r *Runtime) RunTurn(ctx context.Context, st *session.State) (resp Response) {
	start := time.Now()
	defer func() {
		r.metrics.TurnDuration(time.Since(start))
		if rec := recover(); rec != nil {
			r.log.Error("turn %s panicked: %v", st.TurnID, rec)
			resp = errorResponse(st)
		}
	}()

	// Second safety net above the planner's own cap, in case a planner
	// invocation returns without advancing the terminal message.
	for i := 0; i < r.loopMaxIterations && !st.Done(); i++ {
		r.runPlanner(ctx, st)
	}
	if !st.Done() {
		st.ForceFinal(maxIterationsMessage)
	}

	resp = Format(st)
	r.persist(ctx, st, resp)
	return resp
}

// persist records the completed turn and prunes the user's history. Failures
// are logged and swallowed: memory is advisory, the response already exists.
func (r *Runtime) persist(ctx context.Context, st *session.State, resp Response) {
	conv := store.Conversation{
		UserID:      st.UserID,
		SessionID:   st.SessionID,
		Query:       st.Query,
		AgentTrace:  st.AgentTrace,
		FinalOutput: resp.memoryRecord(),
		CarProfile:  st.CarProfile,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.store.Append(ctx, conv); err != nil {
		r.log.Warn("memory write for user %s failed: %v", st.UserID, err)
		return
	}
	if err := r.store.Prune(ctx, st.UserID, r.retention); err != nil {
		r.log.Warn("memory pruning for user %s failed: %v", st.UserID, err)
	}
}
