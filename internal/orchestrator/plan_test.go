package orchestrator

import "testing"

func TestParsePlanResponseRawJSON(t *testing.T) {
	raw := `{"description":"a todo app","tasks":[{"title":"Add login","priority":"high"}]}`
	plan, err := parsePlanResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Description != "a todo app" {
		t.Errorf("description = %q", plan.Description)
	}
	if len(plan.Tasks) != 1 || plan.Tasks[0].Title != "Add login" {
		t.Errorf("tasks = %+v", plan.Tasks)
	}
}

func TestParsePlanResponseFencedJSON(t *testing.T) {
	raw := "Sure, here's the plan:\n```json\n{\"description\":\"fenced plan\",\"tasks\":[]}\n```\nLet me know if you need changes."
	plan, err := parsePlanResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Description != "fenced plan" {
		t.Errorf("description = %q", plan.Description)
	}
}

func TestParsePlanResponseEmbeddedInProse(t *testing.T) {
	raw := `I think the plan is {"description":"embedded plan","tasks":[{"title":"T1","priority":"low"}]} — let me know what you think.`
	plan, err := parsePlanResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Description != "embedded plan" {
		t.Errorf("description = %q", plan.Description)
	}
}

func TestParsePlanResponseUnparseableReturnsError(t *testing.T) {
	_, err := parsePlanResponse("no json anywhere in this message")
	if err == nil {
		t.Fatal("expected an error for unparseable response")
	}
}

func TestExtractBraceObjectHandlesEscapedQuotes(t *testing.T) {
	raw := `prefix {"description":"has \"quotes\" inside","tasks":[]} suffix`
	obj := extractBraceObject(raw)
	if obj == "" {
		t.Fatal("expected a non-empty object")
	}
	plan, err := parsePlanResponse(obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Description != `has "quotes" inside` {
		t.Errorf("description = %q", plan.Description)
	}
}
