package orchestrator

import (
	"context"
	"testing"

	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/pkg/models"
)

func TestClassifyIntentRecognizedLabel(t *testing.T) {
	mock := &provider.MockProvider{Responses: []string{"feature_request"}}
	intent, err := ClassifyIntent(context.Background(), mock, "mock", "add a login page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent != models.IntentFeatureRequest {
		t.Errorf("intent = %q, want feature_request", intent)
	}
}

func TestClassifyIntentUnrecognizedLabelCollapsesToChat(t *testing.T) {
	mock := &provider.MockProvider{Responses: []string{"something_weird"}}
	intent, err := ClassifyIntent(context.Background(), mock, "mock", "hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent != models.IntentChat {
		t.Errorf("intent = %q, want chat", intent)
	}
}

func TestClassifyIntentTrimsWhitespaceAndCase(t *testing.T) {
	mock := &provider.MockProvider{Responses: []string{"  DEBUG\n"}}
	intent, err := ClassifyIntent(context.Background(), mock, "mock", "the app is crashing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent != models.IntentDebug {
		t.Errorf("intent = %q, want debug", intent)
	}
}
