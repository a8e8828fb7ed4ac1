package orchestrator

import (
	"context"
	"strings"

	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/pkg/models"
)

const intentClassifierPrompt = `Classify the user's message into exactly one of these labels: feature_request, debug, question, chat.
feature_request: the user wants something built, added, or changed in the app.
debug: the user is reporting a failure or asking why something is broken.
question: the user is asking how something works, with no request to change code.
chat: anything else, including greetings and small talk.
Respond with the single label and nothing else.`

// ClassifyIntent makes the dedicated, low-temperature model call from
// spec.md §4.9 step 1. An unrecognised or malformed label collapses to
// IntentChat via models.NormalizeIntent, so this never returns an error
// the caller has to branch on for a bad classification.
func ClassifyIntent(ctx context.Context, p provider.Protocol, model, userMessage string) (models.Intent, error) {
	resp, err := p.CreateChatCompletion(ctx, &provider.ChatCompletionRequest{
		Model:       model,
		Temperature: 0,
		Messages: []provider.ChatMessage{
			{Role: "system", Content: intentClassifierPrompt},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return models.IntentChat, nil
	}
	label := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	return models.NormalizeIntent(label), nil
}
