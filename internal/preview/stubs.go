package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	cssEntrypoint = "index.css"
	mainEntry     = "main.tsx"
	appEntry      = "src/App.tsx"
	compatModule  = "lib/appgen.ts"
	uiIndex       = "components/ui/index.ts"
)

var (
	pageImportPattern      = regexp.MustCompile(`import\s+\w+\s+from\s+['"]\./pages/(\w+)['"]`)
	componentImportPattern = regexp.MustCompile(`import\s*\{([^}]+)\}\s*from\s*['"]\./components(?:/\w+)?['"]`)
)

// ensureStubs fills in every idempotent autogen stub spec.md §4.4 names,
// using srcDir as the frontend's src/ root and the already-materialized
// source tree to scan for references.
func ensureStubs(srcDir string, sources map[string]string) error {
	if err := ensurePageStubs(srcDir, sources); err != nil {
		return err
	}
	if err := ensureComponentStubs(srcDir, sources); err != nil {
		return err
	}
	if err := writeIfMissing(filepath.Join(srcDir, cssEntrypoint), cssStub); err != nil {
		return err
	}
	if err := writeIfMissing(filepath.Join(srcDir, mainEntry), mainStub); err != nil {
		return err
	}
	if err := writeIfMissing(filepath.Join(srcDir, compatModule), compatStub); err != nil {
		return err
	}
	if err := ensureUIPrimitives(srcDir); err != nil {
		return err
	}
	return nil
}

// ensurePageStubs re-exports an existing page for every ./pages/Y import
// found in the root app component that has no corresponding page file,
// per spec.md §4.4: "first one found"; if no page exists at all, skip.
func ensurePageStubs(srcDir string, sources map[string]string) error {
	app, ok := sources[filepath.ToSlash(appEntry)]
	if !ok {
		return nil
	}

	existingPage := ""
	for path := range sources {
		if strings.HasPrefix(path, "src/pages/") {
			base := strings.TrimPrefix(path, "src/pages/")
			existingPage = strings.TrimSuffix(base, filepath.Ext(base))
			break
		}
	}
	if existingPage == "" {
		return nil
	}

	for _, m := range pageImportPattern.FindAllStringSubmatch(app, -1) {
		name := m[1]
		if name == existingPage {
			continue
		}
		pagePath := filepath.Join(srcDir, "pages", name+".tsx")
		if _, err := os.Stat(pagePath); err == nil {
			continue
		}
		content := fmt.Sprintf("export { default } from './%s'\n", existingPage)
		if err := writeIfMissing(pagePath, content); err != nil {
			return err
		}
	}
	return nil
}

// ensureComponentStubs creates a minimal export for every named import
// from ./components[/N] that has no backing file, then emits an index
// re-exporting every component.
func ensureComponentStubs(srcDir string, sources map[string]string) error {
	seen := make(map[string]bool)
	for _, content := range sources {
		for _, m := range componentImportPattern.FindAllStringSubmatch(content, -1) {
			for _, name := range strings.Split(m[1], ",") {
				name = strings.TrimSpace(name)
				if name != "" {
					seen[name] = true
				}
			}
		}
	}

	var names []string
	for name := range seen {
		names = append(names, name)
		path := filepath.Join(srcDir, "components", name+".tsx")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		content := fmt.Sprintf("export function %s(props: any) {\n  return null\n}\nexport default %s\n", name, name)
		if err := writeIfMissing(path, content); err != nil {
			return err
		}
	}

	var idx strings.Builder
	for _, name := range names {
		fmt.Fprintf(&idx, "export { %s } from './%s'\n", name, name)
	}
	return writeIfMissing(filepath.Join(srcDir, "components", "index.ts"), idx.String())
}

func ensureUIPrimitives(srcDir string) error {
	prims := map[string]string{
		"button.tsx":  uiButtonStub,
		"spinner.tsx": uiSpinnerStub,
		"alert.tsx":   uiAlertStub,
	}
	var names []string
	for name, content := range prims {
		if err := writeIfMissing(filepath.Join(srcDir, "components", "ui", name), content); err != nil {
			return err
		}
		names = append(names, strings.TrimSuffix(name, ".tsx"))
	}

	var idx strings.Builder
	for _, name := range names {
		fmt.Fprintf(&idx, "export * from './%s'\n", name)
	}
	return writeIfMissing(filepath.Join(srcDir, uiIndex), idx.String())
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

const cssStub = `@tailwind base;
@tailwind components;
@tailwind utilities;
`

const mainStub = `import React from 'react'
import ReactDOM from 'react-dom/client'
import App from './App'
import './index.css'

ReactDOM.createRoot(document.getElementById('root')!).render(
  <React.StrictMode>
    <App />
  </React.StrictMode>
)
`

const compatStub = `export const API_URL = (import.meta as any).env?.VITE_API_URL ?? ''
export const mode = (import.meta as any).env?.MODE ?? 'production'

async function noop(..._args: any[]): Promise<any> {
  return null
}

export const apiClient = {
  get: noop,
  post: noop,
  put: noop,
  delete: noop,
}
`

const uiButtonStub = `export function Button(props: any) {
  return null
}
`

const uiSpinnerStub = `export function Spinner() {
  return null
}
`

const uiAlertStub = `export function Alert(props: any) {
  return null
}
`
