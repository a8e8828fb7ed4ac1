package preview

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureStubsCreatesIdempotentScaffolding(t *testing.T) {
	srcDir := t.TempDir()
	sources := map[string]string{
		"src/App.tsx": `import Home from './pages/Home'
import { Widget } from './components'
`,
		"src/pages/Home.tsx": "export default function Home() { return null }\n",
	}

	if err := ensureStubs(srcDir, sources); err != nil {
		t.Fatal(err)
	}

	for _, rel := range []string{cssEntrypoint, mainEntry, compatModule, "components/Widget.tsx", "components/index.ts", uiIndex} {
		if _, err := os.Stat(filepath.Join(srcDir, rel)); err != nil {
			t.Errorf("expected %s to exist: %v", rel, err)
		}
	}

	// Re-running must not clobber an existing file.
	widgetPath := filepath.Join(srcDir, "components/Widget.tsx")
	if err := os.WriteFile(widgetPath, []byte("export const Widget = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ensureStubs(srcDir, sources); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(widgetPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "export const Widget = 1\n" {
		t.Errorf("ensureStubs overwrote an existing component stub: %q", string(data))
	}
}

func TestEnsurePageStubsSkipsWhenNoPageExists(t *testing.T) {
	srcDir := t.TempDir()
	sources := map[string]string{
		"src/App.tsx": `import Settings from './pages/Settings'
`,
	}
	if err := ensureStubs(srcDir, sources); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(srcDir, "pages", "Settings.tsx")); err == nil {
		t.Error("expected no page stub to be created when no page exists at all")
	}
}
