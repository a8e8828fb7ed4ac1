package workspace

import "testing"

func TestMaterializedPathRouting(t *testing.T) {
	l := LayoutFor("/base", "proj-1")

	cases := map[string]string{
		"backend/app/apis/todos/__init__": l.BackendDir + "/app/apis/todos/__init__",
		"frontend/src/pages/Home":         l.FrontendSrcDir + "/pages/Home",
		"frontend/package-manifest":       l.FrontendDir + "/package-manifest",
		"pages/Home":                      l.FrontendSrcDir + "/pages/Home",
	}
	for path, want := range cases {
		got, err := materializedPath(l, path)
		if err != nil {
			t.Fatalf("materializedPath(%q): %v", path, err)
		}
		if got != want {
			t.Errorf("materializedPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestMaterializedPathRejectsEmpty(t *testing.T) {
	l := LayoutFor("/base", "proj-1")
	if _, err := materializedPath(l, ""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestMapPythonImportsAppliesMappingAndFilters(t *testing.T) {
	got := mapPythonImports([]string{"cv2", "os", "fastapi", "pandas"})
	want := map[string]bool{"opencv-python": true, "pandas": true}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, pkg := range got {
		if !want[pkg] {
			t.Errorf("unexpected package %q", pkg)
		}
	}
}

func TestMapNPMImportsFiltersBuiltinsAndFramework(t *testing.T) {
	got := mapNPMImports([]string{"fs", "react", "axios"})
	if len(got) != 1 || got[0] != "axios" {
		t.Errorf("got %v, want [axios]", got)
	}
}
