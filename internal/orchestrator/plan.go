package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/pkg/models"
)

// planningTemperature matches the higher-temperature creative-planning
// call in original_source's ai_orchestrator.py, distinct from the
// near-zero intent classifier.
const planningTemperature = 0.7

const planningSystemPrompt = `You are an application planner. Given a feature request, respond with a single JSON object and nothing else, matching this shape:
{
  "description": "...",
  "tasks": [{"title": "...", "description": "...", "priority": "low|medium|high", "integrations": ["..."], "labels": ["..."]}],
  "database_schema": [{"name": "...", "description": "...", "columns": [{"name": "...", "type": "...", "constraints": "..."}]}],
  "apis": [{"method": "GET|POST|PUT|DELETE|PATCH", "endpoint": "...", "description": "..."}],
  "pages": [{"name": "...", "route": "...", "description": "..."}],
  "integrations": ["..."]
}`

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// GeneratePlan drives the planning model call in strict JSON mode and
// parses its response into a Plan.
func GeneratePlan(ctx context.Context, p provider.Protocol, model, userMessage string) (models.Plan, error) {
	resp, err := p.CreateChatCompletion(ctx, &provider.ChatCompletionRequest{
		Model:          model,
		Temperature:    planningTemperature,
		ResponseFormat: &provider.ResponseFormat{Type: "json_object"},
		Messages: []provider.ChatMessage{
			{Role: "system", Content: planningSystemPrompt},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return models.Plan{}, err
	}
	if len(resp.Choices) == 0 {
		return models.Plan{}, fmt.Errorf("planner returned no choices")
	}
	return parsePlanResponse(resp.Choices[0].Message.Content)
}

// parsePlanResponse deserialises a planning response to a Plan,
// tolerating three shapes in order: a raw JSON object, a ```json fenced
// code block, and a JSON object embedded in surrounding prose. The
// Python reference's planner does exactly this three-tier fallback,
// since even "json_object" response-format models occasionally wrap
// their output in commentary or fences.
func parsePlanResponse(raw string) (models.Plan, error) {
	var plan models.Plan

	if err := json.Unmarshal([]byte(raw), &plan); err == nil {
		return plan, nil
	}

	if m := fencedJSONPattern.FindStringSubmatch(raw); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &plan); err == nil {
			return plan, nil
		}
	}

	if obj := extractBraceObject(raw); obj != "" {
		if err := json.Unmarshal([]byte(obj), &plan); err == nil {
			return plan, nil
		}
	}

	return models.Plan{}, fmt.Errorf("could not parse plan response as JSON: %s", strings.TrimSpace(raw))
}

// extractBraceObject returns the first balanced {...} substring of s,
// respecting quoted strings and escapes, or "" if none closes.
func extractBraceObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
