package preview

import (
	"os"

	"github.com/appgenhq/appgen/internal/packages"
)

var baseFrontendDependencies = []string{
	"react",
	"react-dom",
	"esbuild",
}

// composeManifest merges the frontend's base dependencies with every
// package detected across the project's source files (spec.md §4.4
// step 5), then writes the result back to manifestPath.
func composeManifest(manifestPath string, sources map[string]string) ([]string, error) {
	var files []packages.FileSet
	for path, content := range sources {
		files = append(files, packages.FileSet{Path: path, Content: content})
	}
	detected := packages.DetectFromFiles(files)

	all := append(append([]string{}, baseFrontendDependencies...), detected.NPM...)

	existing, _ := os.ReadFile(manifestPath)
	merged, err := packages.MergeNode(existing, all)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(manifestPath, merged, 0o644); err != nil {
		return nil, err
	}
	return all, nil
}
