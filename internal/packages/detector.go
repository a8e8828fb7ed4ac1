// Package packages implements the dependency detector (spec.md C2): it
// scans generated source for import statements and reports the external
// packages a workspace install step must fetch.
//
// Grounded on original_source/backend/app/libs/package_detector.py; the
// mapping tables are carried over verbatim since they encode
// package-naming facts (PyPI/npm names) rather than behavior to adapt.
// Import extraction itself is not reimplemented here: spec.md §4.2 routes
// a file to C1's import extractor, so DetectPython/DetectNPM call
// internal/validator.ExtractPythonImports/ExtractTypeScriptImports
// rather than keeping a second, independently-drifting set of regexes.
package packages

import (
	"sort"
	"strings"

	"github.com/appgenhq/appgen/internal/validator"
)

// DetectPython extracts the external PyPI package names a Python source
// string depends on, via C1's import extractor, filtering the standard
// library and the framework's own modules and applying
// PythonPackageMapping.
func DetectPython(code string) []string {
	mapped := make(map[string]bool)
	for _, pkg := range validator.ExtractPythonImports(code) {
		if PythonStdlib[pkg] || FrameworkPythonPackages[pkg] {
			continue
		}
		if alias, ok := PythonPackageMapping[pkg]; ok {
			mapped[alias] = true
		} else {
			mapped[pkg] = true
		}
	}
	return sortedKeys(mapped)
}

// DetectNPM extracts the external npm package names a TypeScript/
// JavaScript source string depends on, via C1's import extractor
// (already reduced to @scope/name and stripped of relative imports),
// filtering Node builtins, framework packages, and path-alias imports
// (@/...).
func DetectNPM(code string) []string {
	filtered := make(map[string]bool)
	for _, pkg := range validator.ExtractTypeScriptImports(code) {
		if NodeBuiltins[pkg] || FrameworkUIPackages[pkg] {
			continue
		}
		if strings.HasPrefix(pkg, "@/") {
			continue
		}
		filtered[pkg] = true
	}
	return sortedKeys(filtered)
}

// FileSet mirrors one generated file's path and content, the unit
// DetectFromFiles operates on.
type FileSet struct {
	Path    string
	Content string
}

// Detected groups detector output by ecosystem, matching
// detect_packages_from_files's {"python": [...], "npm": [...]} shape.
type Detected struct {
	Python []string
	NPM    []string
}

// DetectFromFiles dispatches each file to DetectPython or DetectNPM by
// its extension and unions the results across the whole file set.
func DetectFromFiles(files []FileSet) Detected {
	python := make(map[string]bool)
	npm := make(map[string]bool)

	for _, f := range files {
		switch {
		case strings.HasSuffix(f.Path, ".py"):
			for _, pkg := range DetectPython(f.Content) {
				python[pkg] = true
			}
		case strings.HasSuffix(f.Path, ".tsx"), strings.HasSuffix(f.Path, ".ts"),
			strings.HasSuffix(f.Path, ".jsx"), strings.HasSuffix(f.Path, ".js"):
			for _, pkg := range DetectNPM(f.Content) {
				npm[pkg] = true
			}
		}
	}

	return Detected{Python: sortedKeys(python), NPM: sortedKeys(npm)}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
