package models

import "testing"

func TestNormalizeIntentCollapsesUnknown(t *testing.T) {
	cases := map[string]Intent{
		"feature_request": IntentFeatureRequest,
		"debug":            IntentDebug,
		"question":         IntentQuestion,
		"chat":             IntentChat,
		"":                 IntentChat,
		"sarcasm":          IntentChat,
		"FEATURE_REQUEST":  IntentChat, // classifier labels are case-sensitive by contract
	}
	for label, want := range cases {
		if got := NormalizeIntent(label); got != want {
			t.Errorf("NormalizeIntent(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestContextDataMergeUnionsAndTruncates(t *testing.T) {
	base := ContextData{
		CurrentPhase:   "planning",
		FilesGenerated: []string{"a.py", "b.py"},
		TasksCompleted: []string{"t1"},
		RecentErrors:   []string{"e1", "e2"},
		AIMemory:       map[string]interface{}{"k1": "v1"},
	}
	update := ContextData{
		CurrentPhase:   "code_generation_complete",
		FilesGenerated: []string{"b.py", "c.py"},
		TasksCompleted: []string{"t2"},
		RecentErrors:   []string{"e3"},
		AIMemory:       map[string]interface{}{"k2": "v2"},
	}

	merged := base.Merge(update)

	if merged.CurrentPhase != "code_generation_complete" {
		t.Errorf("expected scalar overwrite, got %q", merged.CurrentPhase)
	}
	if len(merged.FilesGenerated) != 3 {
		t.Errorf("expected set-union of 3 files, got %v", merged.FilesGenerated)
	}
	if len(merged.TasksCompleted) != 2 {
		t.Errorf("expected 2 completed tasks, got %v", merged.TasksCompleted)
	}
	if len(merged.RecentErrors) != 3 {
		t.Errorf("expected 3 recent errors, got %v", merged.RecentErrors)
	}
	if merged.AIMemory["k1"] != "v1" || merged.AIMemory["k2"] != "v2" {
		t.Errorf("expected shallow-merged ai_memory, got %v", merged.AIMemory)
	}
}

func TestContextDataMergeTruncatesRecentErrorsTo10(t *testing.T) {
	base := ContextData{}
	for i := 0; i < 8; i++ {
		base.RecentErrors = append(base.RecentErrors, "e")
	}
	update := ContextData{RecentErrors: []string{"f1", "f2", "f3", "f4"}}

	merged := base.Merge(update)

	if len(merged.RecentErrors) != MaxRecentErrors {
		t.Fatalf("expected %d recent errors, got %d", MaxRecentErrors, len(merged.RecentErrors))
	}
	// Truncation keeps the most recent entries (tail of the concatenation).
	last := merged.RecentErrors[len(merged.RecentErrors)-1]
	if last != "f4" {
		t.Errorf("expected most recent error last, got %q", last)
	}
}

func TestUnionStringsDeduplicatesPreservingOrder(t *testing.T) {
	got := unionStrings([]string{"a", "b"}, []string{"b", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
