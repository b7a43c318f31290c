// Package agent implements the planning loop that drives a chat turn: an
// iteration-capped planner chooses one capability at a time, capability
// pipelines call the model and optionally a retrieval tool, and a formatter
// maps the accumulated state into the client response.
package agent

import (
	"context"
	"fmt"

	"talon/internal/llm"
	"talon/internal/logging"
	"talon/internal/metrics"
	"talon/internal/store"
)

// Planner action names. These are the only values a planner decision may
// carry; anything else is treated as end.
const (
	ActionInfo           = "info"
	ActionDiagnostic     = "diagnostic"
	ActionModCoach       = "modcoach"
	ActionBuildPlanner   = "buildplanner"
	ActionProfileUpdater = "profile_updater"
	ActionEnd            = "end"
)

// Runtime holds the collaborators one chat turn needs. It is safe for
// concurrent use: all per-turn state lives in session.State.
type Runtime struct {
	llm     llm.Client
	store   store.Store
	metrics *metrics.Metrics
	log     logging.Logger

	plannerMaxIterations int
	loopMaxIterations    int
	memoryRecallLimit    int
	retention            store.RetentionPolicy
}

// Options configures a Runtime beyond its required collaborators.
type Options struct {
	Metrics              *metrics.Metrics
	Logger               logging.Logger
	PlannerMaxIterations int
	LoopMaxIterations    int
	MemoryRecallLimit    int
	Retention            store.RetentionPolicy
}

// NewRuntime builds a Runtime. Zero option fields fall back to the default
// caps (planner 5, loop 10, recall 3) and the default retention policy.
func NewRuntime(client llm.Client, st store.Store, opts Options) *Runtime {
	if opts.PlannerMaxIterations <= 0 {
		opts.PlannerMaxIterations = 5
	}
	if opts.LoopMaxIterations <= 0 {
		opts.LoopMaxIterations = 10
	}
	if opts.MemoryRecallLimit <= 0 {
		opts.MemoryRecallLimit = 3
	}
	if !opts.Retention.HasRules() {
		opts.Retention = store.DefaultRetentionPolicy()
	}
	return &Runtime{
		llm:                  client,
		store:                st,
		metrics:              opts.Metrics,
		log:                  logging.OrNop(opts.Logger),
		plannerMaxIterations: opts.PlannerMaxIterations,
		loopMaxIterations:    opts.LoopMaxIterations,
		memoryRecallLimit:    opts.MemoryRecallLimit,
		retention:            opts.Retention,
	}
}

// complete issues one model call and returns the raw text.
func (r *Runtime) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := r.llm.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		Temperature: temperature,
	})
	r.metrics.Completion(err)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	return resp.Content, nil
}
