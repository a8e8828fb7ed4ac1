package workspace

import (
	"os"
	"testing"
)

func TestEnsureIsIdempotent(t *testing.T) {
	base := t.TempDir()

	l1, err := Ensure(base, "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l1.BackendManifest, []byte("custom content"), 0o644); err != nil {
		t.Fatal(err)
	}

	l2, err := Ensure(base, "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	if l1 != l2 {
		t.Fatalf("layout changed across re-run: %+v vs %+v", l1, l2)
	}

	data, err := os.ReadFile(l2.BackendManifest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "custom content" {
		t.Errorf("re-running Ensure overwrote existing manifest: %q", string(data))
	}
}

func TestEnsureCreatesFullTree(t *testing.T) {
	base := t.TempDir()
	l, err := Ensure(base, "proj-2")
	if err != nil {
		t.Fatal(err)
	}

	for _, dir := range []string{l.BackendDir, l.BackendAppsDir, l.FrontendDir, l.FrontendSrcDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
	if l.VenvExists() {
		t.Error("venv should not exist until EnsureVenvAsync runs")
	}
}
