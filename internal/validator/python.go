package validator

import (
	"regexp"
	"strings"
)

// validatePython performs a cheap structural check in place of a real
// Python AST parse (unavailable to a Go module): bracket balance across
// the whole source, indentation consistency (no line mixing tabs and
// spaces in its leading whitespace), and f-string brace balance. On
// success it walks the source line-by-line collecting top-level module
// names from every import form, mirroring ast.walk over ast.Import /
// ast.ImportFrom nodes in code_validator.py.
func validatePython(source string) Result {
	if err, ok := checkBalancedBrackets(source); ok {
		return Result{Valid: false, Errors: []ValidationError{err}}
	}
	if err, ok := checkIndentation(source); ok {
		return Result{Valid: false, Errors: []ValidationError{err}}
	}
	if err, ok := checkFStrings(source); ok {
		return Result{Valid: false, Errors: []ValidationError{err}}
	}

	return Result{
		Valid:   true,
		Imports: extractPythonImports(source),
	}
}

var bracketPairs = map[rune]rune{'(': ')', '[': ']', '{': '}'}
var closingBrackets = map[rune]rune{')': '(', ']': '[', '}': '{'}

// checkBalancedBrackets scans rune-by-rune, skipping string/comment
// content, tracking a bracket stack. Mirrors the "missing bracket"
// suggestion bucket in _suggest_syntax_fix.
func checkBalancedBrackets(source string) (ValidationError, bool) {
	var stack []rune
	var stackLines []int
	line := 1
	inString := rune(0)
	escaped := false

	runes := []rune(source)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\n' {
			line++
		}
		if inString != 0 {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == inString {
				inString = 0
			}
			continue
		}
		switch c {
		case '#':
			// Skip to end of line.
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			line++
		case '\'', '"':
			inString = c
		case '(', '[', '{':
			stack = append(stack, c)
			stackLines = append(stackLines, line)
		case ')', ']', '}':
			if len(stack) == 0 {
				return ValidationError{
					Line:       line,
					Message:    "unexpected closing bracket '" + string(c) + "' with nothing open",
					Suggestion: "Check for missing closing brackets, parentheses, or quotes",
				}, true
			}
			top := stack[len(stack)-1]
			if bracketPairs[top] != c {
				return ValidationError{
					Line:       line,
					Message:    "mismatched bracket: expected '" + string(bracketPairs[top]) + "' but found '" + string(c) + "'",
					Suggestion: "Check for missing closing brackets, parentheses, or quotes",
				}, true
			}
			stack = stack[:len(stack)-1]
			stackLines = stackLines[:len(stackLines)-1]
		}
	}

	if len(stack) > 0 {
		return ValidationError{
			Line:       stackLines[len(stackLines)-1],
			Message:    "unexpected EOF while parsing: unclosed '" + string(stack[len(stack)-1]) + "'",
			Suggestion: "Check for missing closing brackets, parentheses, or quotes",
		}, true
	}
	return ValidationError{}, false
}

// checkIndentation flags any line whose leading whitespace mixes tabs and
// spaces, the most common indentation defect code_validator.py's
// suggestion table names explicitly.
func checkIndentation(source string) (ValidationError, bool) {
	for i, line := range strings.Split(source, "\n") {
		var sawSpace, sawTab bool
		for _, c := range line {
			switch c {
			case ' ':
				sawSpace = true
			case '\t':
				sawTab = true
			default:
				goto done
			}
		}
	done:
		if sawSpace && sawTab {
			return ValidationError{
				Line:       i + 1,
				Message:    "inconsistent use of tabs and spaces in indentation",
				Suggestion: "Fix indentation - use consistent spaces or tabs",
			}, true
		}
	}
	return ValidationError{}, false
}

var fStringPattern = regexp.MustCompile(`f(?:'''|"""|'|")`)

// checkFStrings verifies brace balance inside every f-string literal
// found in the source.
func checkFStrings(source string) (ValidationError, bool) {
	locs := fStringPattern.FindAllStringIndex(source, -1)
	for _, loc := range locs {
		quote := source[loc[1]-1:]
		var q string
		switch {
		case strings.HasPrefix(source[loc[0]+1:], `"""`):
			q = `"""`
		case strings.HasPrefix(source[loc[0]+1:], `'''`):
			q = `'''`
		default:
			q = quote[:1]
		}
		start := loc[1]
		end := strings.Index(source[start:], q)
		if end < 0 {
			continue
		}
		body := source[start : start+end]
		if strings.Count(body, "{") != strings.Count(body, "}") {
			line := 1 + strings.Count(source[:loc[0]], "\n")
			return ValidationError{
				Line:       line,
				Message:    "unbalanced braces in f-string expression",
				Suggestion: "Check f-string syntax - ensure proper braces {}",
			}, true
		}
	}
	return ValidationError{}, false
}

var (
	pyImportPattern     = regexp.MustCompile(`^\s*import\s+([\w.]+)`)
	pyFromImportPattern = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import`)
)

// extractPythonImports walks every import/from-import line and collects
// the top-level module name (the first dotted component).
func extractPythonImports(source string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(source, "\n") {
		var module string
		if m := pyImportPattern.FindStringSubmatch(line); m != nil {
			module = m[1]
		} else if m := pyFromImportPattern.FindStringSubmatch(line); m != nil {
			module = m[1]
		} else {
			continue
		}
		if module == "" {
			continue
		}
		top := strings.SplitN(module, ".", 2)[0]
		if !seen[top] {
			seen[top] = true
			out = append(out, top)
		}
	}
	return out
}
