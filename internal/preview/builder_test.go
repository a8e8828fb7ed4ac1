package preview

import "testing"

func TestNormalizePathStripsFrontendPrefix(t *testing.T) {
	got, ok := normalizePath("frontend/src/pages/Home.tsx")
	if !ok || got != "src/pages/Home.tsx" {
		t.Errorf("got (%q, %v)", got, ok)
	}
}

func TestNormalizePathDiscardsBackendPaths(t *testing.T) {
	_, ok := normalizePath("backend/app/apis/todos/__init__")
	if ok {
		t.Error("expected backend/ path to be discarded")
	}
}

func TestNormalizePathRootsAtSrc(t *testing.T) {
	got, ok := normalizePath("pages/Home.tsx")
	if !ok || got != "src/pages/Home.tsx" {
		t.Errorf("got (%q, %v)", got, ok)
	}
}

func TestNormalizePathLeavesAlreadyRootedPaths(t *testing.T) {
	got, ok := normalizePath("frontend/src/lib/api.ts")
	if !ok || got != "src/lib/api.ts" {
		t.Errorf("got (%q, %v)", got, ok)
	}
}
