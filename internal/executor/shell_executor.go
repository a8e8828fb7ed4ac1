// Package executor runs allowlisted shell commands on behalf of the
// package installer (C2) and the preview builder (C4). The allowlist
// admits package managers (uv, pip, npm, npx, yarn), runtimes (node,
// python), esbuild, git, and the read-only ls, cat and find.
//
// Grounded on internal/executor/shell_executor.go, stripped of its
// command_logs persistence (there is no equivalent table in this
// domain's schema; spec.md's failure policy only needs a result value,
// not an audit trail) and given the allowlist below.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// allowedCommands is the allowlist of permitted commands.
var allowedCommands = map[string]bool{
	"uv":     true,
	"pip":    true,
	"pip3":   true,
	"npm":    true,
	"npx":    true,
	"yarn":   true,
	"node":   true,
	"python": true,
	"python3": true,
	"esbuild": true,
	"git":    true,
	"ls":     true,
	"cat":    true,
	"find":   true,
}

// validateCommand checks if a command is allowed and returns its parsed
// argument vector.
func validateCommand(name string, args []string) ([]string, error) {
	binary := filepath.Base(name)
	if !allowedCommands[binary] {
		return nil, fmt.Errorf("command not allowed: %s (use one of: uv, pip, npm, node, python, esbuild, git)", binary)
	}
	parts := append([]string{name}, args...)
	return parts, nil
}

// Shell executes allowlisted commands with a context timeout, in the
// project's workspace directory.
type Shell struct {
	// DefaultTimeout bounds command duration when the caller's context
	// carries no deadline of its own.
	DefaultTimeout time.Duration
}

// NewShell constructs a Shell with spec.md's 5-minute default timeout.
func NewShell() *Shell {
	return &Shell{DefaultTimeout: 5 * time.Minute}
}

// Run validates name against the allowlist, then executes it in workDir
// with ctx's deadline (or s.DefaultTimeout if ctx carries none),
// returning captured stdout/stderr.
func (s *Shell) Run(ctx context.Context, workDir string, name string, args ...string) (string, string, error) {
	parts, err := validateCommand(name, args)
	if err != nil {
		return "", "", fmt.Errorf("command validation failed: %w", err)
	}

	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.DefaultTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, parts[0], parts[1:]...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("[Shell] running %s in %s", strings.Join(parts, " "), workDir)
	start := time.Now()
	runErr := cmd.Run()
	log.Printf("[Shell] completed %s in %s (err=%v)", parts[0], time.Since(start), runErr)

	return stdout.String(), stderr.String(), runErr
}
