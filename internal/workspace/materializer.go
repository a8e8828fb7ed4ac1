// Package workspace implements the workspace materializer (spec.md C3):
// the per-project on-disk directory tree, its template manifests and
// entry points, and the backing store for GeneratedFile persistence.
//
// Grounded on internal/actions/build_env.go's OS-family-aware setup flow
// (background environment creation, marker-file completion signal) and
// pkg/server/server.go's plain os/filepath tree layout; persistence
// itself delegates to internal/database.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout names the fixed directories and manifest files every project
// workspace contains, per spec.md §4.3.
type Layout struct {
	Root            string
	BackendDir      string
	BackendManifest string
	BackendMain     string
	BackendAppsDir  string
	BackendVenv     string
	FrontendDir     string
	FrontendManifest string
	FrontendSrcDir  string
}

// LayoutFor computes the fixed directory layout for a project under
// base, without touching the filesystem.
func LayoutFor(base, projectID string) Layout {
	root := filepath.Join(base, projectID)
	backend := filepath.Join(root, "backend")
	frontend := filepath.Join(root, "frontend")
	return Layout{
		Root:             root,
		BackendDir:       backend,
		BackendManifest:  filepath.Join(backend, "pyproject-manifest"),
		BackendMain:      filepath.Join(backend, "main"),
		BackendAppsDir:   filepath.Join(backend, "app", "apis"),
		BackendVenv:      filepath.Join(backend, ".venv"),
		FrontendDir:      frontend,
		FrontendManifest: filepath.Join(frontend, "package-manifest"),
		FrontendSrcDir:   filepath.Join(frontend, "src"),
	}
}

const defaultPythonManifest = `project:
  name: generated-backend
  dependencies:
    - fastapi
    - uvicorn
`

const defaultNodeManifest = `{
  "name": "generated-frontend",
  "dependencies": {
    "react": "latest",
    "react-dom": "latest"
  }
}
`

const backendMainStub = `# auto-mounts every submodule under app/apis exposing a router
`

// Ensure creates the fixed directory tree and template files for a
// project, idempotently: existing files are left untouched, only
// missing scaffolding is filled in, per spec.md §4.3.
func Ensure(base, projectID string) (Layout, error) {
	l := LayoutFor(base, projectID)

	dirs := []string{
		l.BackendDir,
		l.BackendAppsDir,
		l.FrontendDir,
		filepath.Join(l.FrontendSrcDir, "pages"),
		filepath.Join(l.FrontendSrcDir, "components"),
		filepath.Join(l.FrontendSrcDir, "lib"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return Layout{}, fmt.Errorf("create workspace directory %s: %w", d, err)
		}
	}

	if err := writeIfMissing(l.BackendManifest, defaultPythonManifest); err != nil {
		return Layout{}, err
	}
	if err := writeIfMissing(l.BackendMain, backendMainStub); err != nil {
		return Layout{}, err
	}
	if err := writeIfMissing(l.FrontendManifest, defaultNodeManifest); err != nil {
		return Layout{}, err
	}

	return l, nil
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// VenvExists reports whether the backend virtual environment has
// appeared yet. Its creation is a background task (spec.md §4.3);
// consumers must cope with its absence.
func (l Layout) VenvExists() bool {
	_, err := os.Stat(l.BackendVenv)
	return err == nil
}
