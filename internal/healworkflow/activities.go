// Package healworkflow is the durable counterpart to
// internal/orchestrator's inline Healer: the same bounded
// trigger_build/get_open_errors/fix-file loop, but run as a Temporal
// workflow so a crashed worker resumes instead of losing an in-flight
// heal pass.
//
// Grounded on internal/temporal/workflows/workflows.go's
// ActivityOptions/RetryPolicy shape and internal/temporal/client/client.go's
// client wrapper, repurposed from the bead/agent/decision workflow
// domain to the build-heal domain.
package healworkflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/appgenhq/appgen/internal/errorstore"
	"github.com/appgenhq/appgen/internal/preview"
	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/internal/workspace"
	"github.com/appgenhq/appgen/pkg/models"
)

const healerTemperature = 0.1

// Activities bundles the components the heal workflow's activities run
// against. A *Activities value is registered with the Temporal worker.
type Activities struct {
	Files    *workspace.Store
	Errors   *errorstore.Store
	Builder  *preview.Builder
	Provider provider.Protocol
	Model    string
}

// BuildOutcome is TriggerBuild's activity result.
type BuildOutcome struct {
	Success bool
	Logs    string
}

// TriggerBuild runs the preview builder for a project, the same build
// step the inline healer and the trigger_build tool both call.
func (a *Activities) TriggerBuild(ctx context.Context, projectID string) (BuildOutcome, error) {
	files, err := a.Files.ReadAll(projectID)
	if err != nil {
		return BuildOutcome{}, fmt.Errorf("read files: %w", err)
	}
	result, err := a.Builder.Build(ctx, projectID, files)
	if err != nil {
		return BuildOutcome{}, fmt.Errorf("build: %w", err)
	}
	return BuildOutcome{Success: result.Success, Logs: result.Logs}, nil
}

// GetOpenErrors returns the project's currently open error records.
func (a *Activities) GetOpenErrors(ctx context.Context, projectID string) ([]*models.ErrorRecord, error) {
	return a.Errors.ListOpen(projectID)
}

// FixFile asks the model to rewrite the file named by rec to address
// it, and writes the result, but does NOT mark the record resolved —
// per the stricter ordering this package implements, resolution only
// happens once a subsequent TriggerBuild no longer reproduces it.
func (a *Activities) FixFile(ctx context.Context, projectID string, rec *models.ErrorRecord) error {
	files, err := a.Files.ReadAll(projectID)
	if err != nil {
		return fmt.Errorf("read files: %w", err)
	}
	var fullFile string
	found := false
	for _, f := range files {
		if f.Path == rec.File {
			fullFile = f.Content
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("file %s not found among active files", rec.File)
	}

	prompt := fmt.Sprintf(
		"Fix the following error by rewriting the entire file.\nPath: %s\nLine: %d\nMessage: %s\nSnippet:\n%s\nFull file:\n%s\nRespond with the complete replacement file content only, no commentary and no code fences.",
		rec.File, rec.Line, rec.Message, rec.CodeSnippet, fullFile,
	)
	resp, err := a.Provider.CreateChatCompletion(ctx, &provider.ChatCompletionRequest{
		Model:       a.Model,
		Temperature: healerTemperature,
		Messages: []provider.ChatMessage{
			{Role: "system", Content: "You are fixing a build error. Always respond with the complete corrected file and nothing else."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("healer returned no choices")
	}

	fixed := stripFences(resp.Choices[0].Message.Content)
	_, err = a.Files.Update(ctx, projectID, rec.File, fixed)
	return err
}

// ResolveError marks an error record resolved. Called only after a
// rebuild confirms the error no longer reproduces.
func (a *Activities) ResolveError(ctx context.Context, errorID, notes string) error {
	return a.Errors.Resolve(errorID, notes)
}

// IncrementAttempt bumps a record's attempt counter when an attempt
// round ends without the record being resolved.
func (a *Activities) IncrementAttempt(ctx context.Context, errorID string) error {
	return a.Errors.IncrementAttempt(errorID)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 1 {
		lines = lines[1:]
	}
	s = strings.TrimSpace(strings.Join(lines, "\n"))
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
