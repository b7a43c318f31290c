package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedReply is a single canned completion result.
type ScriptedReply struct {
	Content string
	Err     error
}

// ScriptedClient implements Client for testing. It replays a fixed sequence of
// replies and records every prompt it receives.
type ScriptedClient struct {
	mu      sync.Mutex
	replies []ScriptedReply
	index   int
	prompts []string
}

// NewScriptedClient builds a test client that returns the given replies in order.
// Once the script is exhausted, further calls fail.
func NewScriptedClient(replies ...ScriptedReply) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

// Respond is shorthand for a successful scripted reply.
func Respond(content string) ScriptedReply {
	return ScriptedReply{Content: content}
}

// Fail is shorthand for a scripted error reply.
func Fail(err error) ScriptedReply {
	return ScriptedReply{Err: err}
}

func (m *ScriptedClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, req.Prompt)
	if m.index >= len(m.replies) {
		return nil, &CompletionError{Provider: "scripted", Err: fmt.Errorf("script exhausted after %d calls", m.index)}
	}

	reply := m.replies[m.index]
	m.index++
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &CompletionResponse{
		Content:    reply.Content,
		StopReason: "end_turn",
		Usage:      TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (m *ScriptedClient) Model() string {
	return "scripted"
}

// Prompts returns a copy of every prompt received so far, in call order.
func (m *ScriptedClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Calls returns how many completions were requested.
func (m *ScriptedClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// FailingClient implements Client and fails every call with the same error.
type FailingClient struct {
	Err error
}

func (f *FailingClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, &CompletionError{Provider: "failing", Err: fmt.Errorf("completion service unavailable")}
}

func (f *FailingClient) Model() string {
	return "failing"
}
