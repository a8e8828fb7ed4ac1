package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/appgenhq/appgen/internal/database"
	"github.com/appgenhq/appgen/internal/executor"
	"github.com/appgenhq/appgen/internal/packages"
	"github.com/appgenhq/appgen/internal/validator"
	"github.com/appgenhq/appgen/pkg/models"
)

// Store persists GeneratedFiles and drives the C1→C2→C3 chain on every
// create/update: validate, land the file in the relational store and on
// disk, then detect and install its packages.
type Store struct {
	db      *database.Database
	shell   *executor.Shell
	baseDir string
}

// NewStore constructs a file Store rooted at baseDir.
func NewStore(db *database.Database, shell *executor.Shell, baseDir string) *Store {
	return &Store{db: db, shell: shell, baseDir: baseDir}
}

// CreateResult reports the outcome of a file create/update: validation
// errors (if any), detected packages, and any non-fatal install warning.
type CreateResult struct {
	Validation validator.Result
	Packages   []string
	Warning    string
}

func languageFor(path string) models.Language {
	switch filepath.Ext(path) {
	case ".py":
		return models.LanguagePython
	case ".ts", ".tsx", ".js", ".jsx":
		return models.LanguageTypeScript
	default:
		return models.Language("")
	}
}

// Create validates content, persists a new active GeneratedFile, and
// harvests/installs any newly detected packages. Per spec.md §4.2, an
// install failure never aborts file creation — it is reported as
// CreateResult.Warning.
func (s *Store) Create(ctx context.Context, projectID, path, content string) (*models.GeneratedFile, CreateResult, error) {
	lang := languageFor(path)
	result := validator.Validate(lang, content)

	f := &models.GeneratedFile{
		ID:        fmt.Sprintf("file-%s", uuid.New().String()[:8]),
		ProjectID: projectID,
		Path:      path,
		Content:   content,
		Language:  lang,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.db.CreateFile(f); err != nil {
		return nil, CreateResult{Validation: result}, fmt.Errorf("persist file: %w", err)
	}

	l := LayoutFor(s.baseDir, projectID)
	diskPath, err := materializedPath(l, path)
	if err != nil {
		return f, CreateResult{Validation: result}, err
	}
	if err := os.MkdirAll(filepath.Dir(diskPath), 0o755); err != nil {
		return f, CreateResult{Validation: result}, fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(diskPath, []byte(content), 0o644); err != nil {
		return f, CreateResult{Validation: result}, fmt.Errorf("write %s: %w", path, err)
	}

	cr := CreateResult{Validation: result, Packages: result.Imports}
	if warning := s.harvestPackages(ctx, l, lang, result.Imports); warning != "" {
		cr.Warning = warning
	}

	return f, cr, nil
}

// Update overwrites an active file's content, re-running the same
// validate/harvest chain as Create.
func (s *Store) Update(ctx context.Context, projectID, path, content string) (CreateResult, error) {
	lang := languageFor(path)
	result := validator.Validate(lang, content)

	if err := s.db.UpdateFile(projectID, path, content); err != nil {
		return CreateResult{Validation: result}, fmt.Errorf("update file: %w", err)
	}

	l := LayoutFor(s.baseDir, projectID)
	diskPath, err := materializedPath(l, path)
	if err != nil {
		return CreateResult{Validation: result}, err
	}
	if err := os.WriteFile(diskPath, []byte(content), 0o644); err != nil {
		return CreateResult{Validation: result}, fmt.Errorf("write %s: %w", path, err)
	}

	cr := CreateResult{Validation: result, Packages: result.Imports}
	if warning := s.harvestPackages(ctx, l, lang, result.Imports); warning != "" {
		cr.Warning = warning
	}
	return cr, nil
}

// Delete soft-deletes a file (flips is_active), leaving its on-disk copy
// in place per spec.md §4.3.
func (s *Store) Delete(projectID, path string) error {
	return s.db.DeleteFile(projectID, path)
}

// ReadAll returns every active file for a project.
func (s *Store) ReadAll(projectID string) ([]*models.GeneratedFile, error) {
	return s.db.ListActiveFiles(projectID)
}

// ReadContent returns one active file's content, satisfying
// errorstore.FileReader so parsed build errors can carry a source
// snippet.
func (s *Store) ReadContent(projectID, path string) (string, bool) {
	files, err := s.db.ListActiveFiles(projectID)
	if err != nil {
		return "", false
	}
	for _, f := range files {
		if f.Path == path {
			return f.Content, true
		}
	}
	return "", false
}

// harvestPackages maps raw imports to canonical package names, merges
// them into the appropriate manifest, and attempts installation. Any
// install failure is swallowed into a warning string.
func (s *Store) harvestPackages(ctx context.Context, l Layout, lang models.Language, imports []string) string {
	if len(imports) == 0 {
		return ""
	}

	switch lang {
	case models.LanguagePython:
		mapped := mapPythonImports(imports)
		if err := mergeAndInstallPython(ctx, s.shell, l, mapped); err != nil {
			return err.Error()
		}
	case models.LanguageTypeScript:
		mapped := mapNPMImports(imports)
		if err := mergeAndInstallNode(ctx, s.shell, l, mapped); err != nil {
			return err.Error()
		}
	}
	return ""
}

func mapPythonImports(imports []string) []string {
	var out []string
	for _, imp := range imports {
		if packages.PythonStdlib[imp] || packages.FrameworkPythonPackages[imp] {
			continue
		}
		if alias, ok := packages.PythonPackageMapping[imp]; ok {
			out = append(out, alias)
		} else {
			out = append(out, imp)
		}
	}
	return out
}

func mapNPMImports(imports []string) []string {
	var out []string
	for _, imp := range imports {
		if packages.NodeBuiltins[imp] || packages.FrameworkUIPackages[imp] {
			continue
		}
		out = append(out, imp)
	}
	return out
}

func mergeAndInstallPython(ctx context.Context, shell *executor.Shell, l Layout, pkgs []string) error {
	if len(pkgs) == 0 {
		return nil
	}
	existing, _ := os.ReadFile(l.BackendManifest)
	merged, err := packages.MergePython(existing, pkgs)
	if err != nil {
		return fmt.Errorf("merge python manifest: %w", err)
	}
	if err := os.WriteFile(l.BackendManifest, merged, 0o644); err != nil {
		return fmt.Errorf("write python manifest: %w", err)
	}
	result := packages.InstallPython(ctx, shell, l.BackendDir, pkgs)
	if result.Warning != "" {
		return fmt.Errorf("%s", result.Warning)
	}
	return nil
}

func mergeAndInstallNode(ctx context.Context, shell *executor.Shell, l Layout, pkgs []string) error {
	if len(pkgs) == 0 {
		return nil
	}
	existing, _ := os.ReadFile(l.FrontendManifest)
	merged, err := packages.MergeNode(existing, pkgs)
	if err != nil {
		return fmt.Errorf("merge node manifest: %w", err)
	}
	if err := os.WriteFile(l.FrontendManifest, merged, 0o644); err != nil {
		return fmt.Errorf("write node manifest: %w", err)
	}
	result := packages.InstallNode(ctx, shell, l.FrontendDir, pkgs)
	if result.Warning != "" {
		return fmt.Errorf("%s", result.Warning)
	}
	return nil
}

// materializedPath resolves a GeneratedFile's workspace-relative path to
// its on-disk location: backend/... under the backend dir, anything
// else under the frontend src dir.
func materializedPath(l Layout, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty file path")
	}
	switch {
	case hasPrefix(path, "backend/"):
		return filepath.Join(l.BackendDir, path[len("backend/"):]), nil
	case hasPrefix(path, "frontend/src/"):
		return filepath.Join(l.FrontendSrcDir, path[len("frontend/src/"):]), nil
	case hasPrefix(path, "frontend/"):
		return filepath.Join(l.FrontendDir, path[len("frontend/"):]), nil
	default:
		return filepath.Join(l.FrontendSrcDir, path), nil
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
