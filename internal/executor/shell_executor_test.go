package executor

import (
	"context"
	"strings"
	"testing"
)

func TestRunRejectsDisallowedCommand(t *testing.T) {
	s := NewShell()
	_, _, err := s.Run(context.Background(), ".", "rm", "-rf", "/")
	if err == nil {
		t.Fatal("expected disallowed command to be rejected")
	}
	if !strings.Contains(err.Error(), "not allowed") {
		t.Errorf("expected allowlist error, got %v", err)
	}
}

func TestRunExecutesGit(t *testing.T) {
	s := NewShell()
	_, stderr, err := s.Run(context.Background(), ".", "git", "--version")
	if err != nil {
		t.Skipf("git not available in test environment: %v (%s)", err, stderr)
	}
}
