package provider

import (
	"context"
	"time"
)

// MockProvider is a deterministic Protocol implementation for tests: it
// never makes a network call and its response is controlled entirely by
// the Responses queue (or, failing that, Default).
type MockProvider struct {
	// Responses are returned in order, one per call to
	// CreateChatCompletion; once exhausted, Default is returned instead.
	Responses []string
	Default   string

	// ToolCallResponses, if set for the current call index, makes that
	// call return an assistant message carrying tool calls instead of
	// plain content, for exercising the orchestrator's tool loop.
	ToolCallResponses map[int][]ToolCall

	calls int
}

// CreateChatCompletion returns the next queued response wrapped in an
// OpenAI-shaped completion.
func (p *MockProvider) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	content := p.Default
	if p.calls < len(p.Responses) {
		content = p.Responses[p.calls]
	}

	msg := ChatMessage{Role: "assistant", Content: content}
	finish := "stop"
	if calls, ok := p.ToolCallResponses[p.calls]; ok {
		msg.ToolCalls = calls
		finish = "tool_calls"
	}
	p.calls++

	resp := &ChatCompletionResponse{
		ID:      "mock-completion",
		Object:  "chat.completion",
		Created: 0,
		Model:   req.Model,
	}
	resp.Choices = []struct {
		Index   int         `json:"index"`
		Message ChatMessage `json:"message"`
		Finish  string      `json:"finish_reason"`
	}{
		{Index: 0, Message: msg, Finish: finish},
	}
	return resp, nil
}

// GetModels returns a single synthetic model entry.
func (p *MockProvider) GetModels(ctx context.Context) ([]Model, error) {
	return []Model{{ID: "mock-model", Object: "model", Created: time.Now().Unix(), OwnedBy: "mock"}}, nil
}

// CallCount reports how many completions have been served, for test
// assertions about iteration bounds (e.g. the tool loop's max_iterations).
func (p *MockProvider) CallCount() int {
	return p.calls
}
