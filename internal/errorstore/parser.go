// Package errorstore implements the error store and parser (spec.md
// C5): it normalizes bundler output and runtime-channel reports into
// ErrorRecords, and answers open/resolved queries.
//
// Grounded on original_source/backend/app/apis/preview/__init__.py's
// error-parsing regexes (esbuild and typescript-compiler forms) and the
// teacher's pattern of small, pure parse helpers feeding a database
// layer (internal/database).
package errorstore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	esbuildErrorPattern = regexp.MustCompile(`([^\s:][^:]*\.tsx?):?(\d+)?:?(\d+)?:\s*ERROR:\s*(.+)`)
	tsErrorPattern       = regexp.MustCompile(`([^\s:][^:]*\.tsx?):(\d+):(\d+)\s*-\s*error\s+(TS\d+)?:?\s*(.+)`)
)

// ParsedError is one build-log match before it is widened into an
// ErrorRecord with a source snippet.
type ParsedError struct {
	File      string
	Line      int
	Column    int
	Message   string
	ErrorCode string
}

// ParseBuildLog scans a bundler's combined stdout+stderr for esbuild and
// TypeScript compiler error lines, per spec.md §4.5's two regex shapes.
func ParseBuildLog(log string) []ParsedError {
	var out []ParsedError
	for _, line := range strings.Split(log, "\n") {
		if m := tsErrorPattern.FindStringSubmatch(line); m != nil {
			out = append(out, ParsedError{
				File:      m[1],
				Line:      atoiOr(m[2], 0),
				Column:    atoiOr(m[3], 0),
				ErrorCode: m[4],
				Message:   strings.TrimSpace(m[5]),
			})
			continue
		}
		if m := esbuildErrorPattern.FindStringSubmatch(line); m != nil {
			out = append(out, ParsedError{
				File:    m[1],
				Line:    atoiOr(m[2], 0),
				Column:  atoiOr(m[3], 0),
				Message: strings.TrimSpace(m[4]),
			})
			continue
		}
	}
	return out
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// NormalizeFile strips a workspace prefix from a parsed error's file
// path so it becomes workspace-relative, per spec.md §4.5.
func NormalizeFile(workspaceRoot, file string) string {
	rel := strings.TrimPrefix(file, workspaceRoot)
	rel = strings.TrimPrefix(rel, "/")
	return rel
}

// Snippet extracts ±context lines of source around line (1-indexed)
// from the full file content, for embedding into an ErrorRecord.
func Snippet(content string, line, context int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	start := line - 1 - context
	if start < 0 {
		start = 0
	}
	end := line - 1 + context + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end || start >= len(lines) {
		return ""
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%d: %s\n", i+1, lines[i])
	}
	return b.String()
}
