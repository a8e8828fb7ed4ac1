package errorstore

import "testing"

func TestParseBuildLogESBuildForm(t *testing.T) {
	log := "src/pages/Home.tsx:12:5: ERROR: Unexpected token\nbuild failed\n"
	got := ParseBuildLog(log)
	if len(got) != 1 {
		t.Fatalf("expected 1 parsed error, got %d: %+v", len(got), got)
	}
	if got[0].File != "src/pages/Home.tsx" || got[0].Line != 12 || got[0].Column != 5 {
		t.Errorf("unexpected parse: %+v", got[0])
	}
	if got[0].Message != "Unexpected token" {
		t.Errorf("unexpected message: %q", got[0].Message)
	}
}

func TestParseBuildLogTypeScriptForm(t *testing.T) {
	log := "src/lib/api.ts:40:10 - error TS2322: Type 'string' is not assignable to type 'number'."
	got := ParseBuildLog(log)
	if len(got) != 1 {
		t.Fatalf("expected 1 parsed error, got %d: %+v", len(got), got)
	}
	if got[0].ErrorCode != "TS2322" {
		t.Errorf("expected error code TS2322, got %q", got[0].ErrorCode)
	}
}

func TestNormalizeFileStripsWorkspacePrefix(t *testing.T) {
	got := NormalizeFile("/workspaces/proj-1/frontend", "/workspaces/proj-1/frontend/src/pages/Home.tsx")
	if got != "src/pages/Home.tsx" {
		t.Errorf("got %q", got)
	}
}

func TestSnippetExtractsSurroundingLines(t *testing.T) {
	content := "l1\nl2\nl3\nl4\nl5\n"
	got := Snippet(content, 3, 1)
	want := "2: l2\n3: l3\n4: l4\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSnippetClampsAtBoundaries(t *testing.T) {
	content := "l1\nl2\n"
	got := Snippet(content, 1, 5)
	want := "1: l1\n2: l2\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
