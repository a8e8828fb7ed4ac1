// Package preview implements the preview builder (spec.md C4): it
// stages a project's generated files into its workspace, fills in
// autogen stubs, installs frontend dependencies, and invokes the
// bundler, capturing build output for the error store.
//
// Grounded on original_source/backend/app/apis/preview/__init__.py's
// build_preview flow (staging, autogen stubs, esbuild invocation) and
// the teacher's pattern of small operation structs wrapping
// internal/executor for subprocess boundaries.
package preview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/appgenhq/appgen/internal/errorstore"
	"github.com/appgenhq/appgen/internal/executor"
	"github.com/appgenhq/appgen/internal/workspace"
	"github.com/appgenhq/appgen/pkg/models"
)

const installTimeout = 120 * time.Second

// Result is the outcome of a build operation: spec.md's
// {success, logs, dist_dir?}.
type Result struct {
	Success bool
	Logs    string
	DistDir string
}

// Builder runs the build(project_id) operation and caches successful
// output directories, last-write-wins, per spec.md §5.
type Builder struct {
	baseDir string
	shell   *executor.Shell
	errors  *errorstore.Store

	mu    sync.RWMutex
	cache map[string]string
}

// NewBuilder constructs a Builder rooted at baseDir (the workspace base
// directory shared with internal/workspace).
func NewBuilder(baseDir string, shell *executor.Shell, errors *errorstore.Store) *Builder {
	return &Builder{baseDir: baseDir, shell: shell, errors: errors, cache: make(map[string]string)}
}

// DistDir returns the cached output directory for a project, if a build
// has ever succeeded.
func (b *Builder) DistDir(projectID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.cache[projectID]
	return d, ok
}

// Build runs the eight-step build operation from spec.md §4.4.
func (b *Builder) Build(ctx context.Context, projectID string, files []*models.GeneratedFile) (Result, error) {
	l := workspace.LayoutFor(b.baseDir, projectID)
	if err := os.MkdirAll(l.FrontendSrcDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create frontend src dir: %w", err)
	}

	// Step 2+3: normalize and materialize, overwriting.
	sources := make(map[string]string)
	for _, f := range files {
		rel, ok := normalizePath(f.Path)
		if !ok {
			continue
		}
		sources[rel] = f.Content
		dest := filepath.Join(l.FrontendDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return Result{}, fmt.Errorf("materialize %s: %w", rel, err)
		}
		if err := os.WriteFile(dest, []byte(f.Content), 0o644); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", rel, err)
		}
	}

	// Step 4: autogen stubs.
	if err := ensureStubs(l.FrontendSrcDir, sources); err != nil {
		return Result{}, fmt.Errorf("autogen stubs: %w", err)
	}

	// Step 5: compose manifest.
	if _, err := composeManifest(l.FrontendManifest, sources); err != nil {
		return Result{}, fmt.Errorf("compose manifest: %w", err)
	}

	var logs strings.Builder

	// Step 6: install, 120s cap; overrun is fatal.
	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()
	stdout, stderr, err := b.shell.Run(installCtx, l.FrontendDir, "npm", "install", "--no-audit", "--legacy-peer-deps")
	logs.WriteString(stdout)
	logs.WriteString(stderr)
	if err != nil {
		if installCtx.Err() != nil {
			return Result{Success: false, Logs: logs.String()}, fmt.Errorf("dependency install exceeded %s timeout", installTimeout)
		}
		return Result{Success: false, Logs: logs.String()}, fmt.Errorf("dependency install failed: %w", err)
	}

	// Step 7: invoke bundler.
	distDir := filepath.Join(l.FrontendDir, "dist")
	buildOut, buildErr, buildRunErr := b.shell.Run(ctx, l.FrontendDir, "esbuild",
		filepath.Join(l.FrontendSrcDir, "main.tsx"),
		"--bundle", "--outdir="+distDir, "--loader:.tsx=tsx", "--loader:.ts=ts")
	logs.WriteString(buildOut)
	logs.WriteString(buildErr)

	if buildRunErr != nil {
		// Step 8 (failure branch): parse errors before surfacing.
		if b.errors != nil {
			if _, recErr := b.errors.RecordBuildFailure(projectID, logs.String()); recErr != nil {
				logs.WriteString(fmt.Sprintf("\n(failed to record parsed errors: %v)\n", recErr))
			}
		}
		return Result{Success: false, Logs: logs.String()}, nil
	}

	// Step 8 (success branch): cache dist dir, last-write-wins.
	b.mu.Lock()
	b.cache[projectID] = distDir
	b.mu.Unlock()

	return Result{Success: true, Logs: logs.String(), DistDir: distDir}, nil
}

// normalizePath applies spec.md §4.4 step 2: strip a leading frontend/
// prefix, discard backend/ paths entirely, and ensure the remainder is
// rooted at src/.
func normalizePath(path string) (string, bool) {
	if strings.HasPrefix(path, "backend/") {
		return "", false
	}
	rel := strings.TrimPrefix(path, "frontend/")
	if !strings.HasPrefix(rel, "src/") {
		rel = filepath.Join("src", rel)
	}
	return rel, true
}
