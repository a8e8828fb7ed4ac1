package packages

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// PythonManifest models the subset of the workspace's pyproject-style
// manifest the installer needs: a single named dependency group.
type PythonManifest struct {
	Project struct {
		Name         string   `yaml:"name"`
		Dependencies []string `yaml:"dependencies"`
	} `yaml:"project"`
}

// MergePython set-unions newPackages into the manifest's dependency
// group, re-serializing sorted and quoted, per spec.md §4.2.
func MergePython(manifest []byte, newPackages []string) ([]byte, error) {
	var m PythonManifest
	if len(manifest) > 0 {
		if err := yaml.Unmarshal(manifest, &m); err != nil {
			return nil, fmt.Errorf("parse python manifest: %w", err)
		}
	}

	existing := make(map[string]bool, len(m.Project.Dependencies))
	for _, d := range m.Project.Dependencies {
		existing[d] = true
	}
	for _, pkg := range newPackages {
		existing[pkg] = true
	}

	deps := make([]string, 0, len(existing))
	for d := range existing {
		deps = append(deps, d)
	}
	sort.Strings(deps)
	m.Project.Dependencies = deps

	var doc yaml.Node
	if err := doc.Encode(&m); err != nil {
		return nil, fmt.Errorf("serialize python manifest: %w", err)
	}
	var quote func(n *yaml.Node, inSeq bool)
	quote = func(n *yaml.Node, inSeq bool) {
		if inSeq && n.Kind == yaml.ScalarNode {
			n.Style = yaml.DoubleQuotedStyle
		}
		for _, c := range n.Content {
			quote(c, n.Kind == yaml.SequenceNode)
		}
	}
	quote(&doc, false)
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("serialize python manifest: %w", err)
	}
	return out, nil
}

// NodeManifest models the subset of package.json the installer needs.
type NodeManifest struct {
	Name         string            `json:"name"`
	Dependencies map[string]string `json:"dependencies"`
}

// MergeNode adds each new package under dependencies at version "latest"
// unless a version is already pinned, per spec.md §4.2.
func MergeNode(manifest []byte, newPackages []string) ([]byte, error) {
	var m NodeManifest
	if len(manifest) > 0 {
		if err := json.Unmarshal(manifest, &m); err != nil {
			return nil, fmt.Errorf("parse node manifest: %w", err)
		}
	}
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string)
	}
	for _, pkg := range newPackages {
		if _, ok := m.Dependencies[pkg]; !ok {
			m.Dependencies[pkg] = "latest"
		}
	}

	out, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize node manifest: %w", err)
	}
	return out, nil
}

// Runner invokes a workspace's package tool. internal/executor implements
// this against os/exec with the project's allowlist and timeout.
type Runner interface {
	Run(ctx context.Context, workDir string, name string, args ...string) (stdout string, stderr string, err error)
}

// InstallResult reports one install attempt; per spec.md §4.2 a failure
// here never aborts the enclosing file creation, so callers log Warning
// instead of propagating an error as a hard failure.
type InstallResult struct {
	Warning string
}

// InstallPython invokes the project's isolated virtual environment tool
// to install newPackages. A failure becomes a warning, not an error, in
// keeping with the non-aborting failure policy.
func InstallPython(ctx context.Context, runner Runner, workDir string, newPackages []string) InstallResult {
	if len(newPackages) == 0 {
		return InstallResult{}
	}
	args := append([]string{"add"}, newPackages...)
	_, stderr, err := runner.Run(ctx, workDir, "uv", args...)
	if err != nil {
		return InstallResult{Warning: fmt.Sprintf("python package install failed: %v: %s", err, stderr)}
	}
	return InstallResult{}
}

// InstallNode invokes the project's npm toolchain to install
// newPackages, following the same non-aborting failure policy.
func InstallNode(ctx context.Context, runner Runner, workDir string, newPackages []string) InstallResult {
	if len(newPackages) == 0 {
		return InstallResult{}
	}
	args := append([]string{"install"}, newPackages...)
	_, stderr, err := runner.Run(ctx, workDir, "npm", args...)
	if err != nil {
		return InstallResult{Warning: fmt.Sprintf("npm package install failed: %v: %s", err, stderr)}
	}
	return InstallResult{}
}
