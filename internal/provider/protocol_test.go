package provider

import (
	"context"
	"testing"
)

func TestMockProviderReturnsQueuedResponses(t *testing.T) {
	p := &MockProvider{Responses: []string{"first", "second"}, Default: "default"}
	req := &ChatCompletionRequest{Model: "mock"}

	for _, want := range []string{"first", "second", "default", "default"} {
		resp, err := p.CreateChatCompletion(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if got := resp.Choices[0].Message.Content; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if p.CallCount() != 4 {
		t.Errorf("expected 4 calls recorded, got %d", p.CallCount())
	}
}

func TestUnmarshalJSONExtractsFromSurroundingText(t *testing.T) {
	var out struct {
		ID string `json:"id"`
	}
	raw := []byte("Here is the response:\n```json\n{\"id\": \"abc\"}\n```\nThanks!")
	if err := unmarshalJSON(raw, &out); err != nil {
		t.Fatalf("expected extraction to succeed, got %v", err)
	}
	if out.ID != "abc" {
		t.Errorf("got %q, want abc", out.ID)
	}
}

func TestIsContextLengthErrorMatchesKnownPhrases(t *testing.T) {
	if !isContextLengthError("Error: maximum context length exceeded") {
		t.Error("expected match on 'maximum context'")
	}
	if isContextLengthError("internal server error") {
		t.Error("expected no match on unrelated error text")
	}
}
