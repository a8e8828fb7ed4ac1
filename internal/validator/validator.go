// Package validator implements the code validator (spec.md C1): a pure,
// deterministic, I/O-free check of a generated source string against a
// declared language, returning detected errors/warnings/imports.
//
// Grounded on original_source/backend/app/libs/code_validator.py, adapted
// from Python's ast module (not available in Go) to a lightweight
// structural checker for the typescript case and a bracket/indentation
// heuristic for the python case, in the teacher's style of small, pure
// analysis helpers (internal/cache/analyzer.go walks go/ast the same way
// this package walks source text).
package validator

import "github.com/appgenhq/appgen/pkg/models"

// ValidationError is one problem found in a source string.
type ValidationError struct {
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Result is the output of Validate.
type Result struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
	Imports  []string          `json:"imports"`
}

// Validate dispatches to the language-specific checker. Unknown languages
// are treated as valid with no detected imports — validation is advisory,
// never a hard gate on an unsupported language.
func Validate(language models.Language, source string) Result {
	switch language {
	case models.LanguagePython:
		return validatePython(source)
	case models.LanguageTypeScript:
		return validateTypeScript(source)
	default:
		return Result{Valid: true}
	}
}

// ExtractPythonImports exposes this package's Python import extractor to
// internal/packages (spec.md §4.2: the dependency detector routes to
// this extractor rather than keeping its own).
func ExtractPythonImports(source string) []string {
	return extractPythonImports(source)
}

// ExtractTypeScriptImports exposes this package's TypeScript import
// extractor to internal/packages, for the same reason.
func ExtractTypeScriptImports(source string) []string {
	return extractTypeScriptImports(source)
}
