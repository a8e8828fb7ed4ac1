package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appgenhq/appgen/internal/errorstore"
	"github.com/appgenhq/appgen/internal/preview"
	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/internal/workspace"
	"github.com/appgenhq/appgen/pkg/models"
)

// healerTemperature is low: the healer is rewriting a file to satisfy a
// known constraint, not being creative.
const healerTemperature = 0.1

const maxHealAttempts = 3
const maxErrorsPerAttempt = 3

// Healer drives the bounded inline auto-healing pass from spec.md §4.9
// step 8: trigger_build, observe open errors, and for up to three
// errors per attempt, prompt the model for a whole-file replacement.
type Healer struct {
	Files    *workspace.Store
	Errors   *errorstore.Store
	Builder  *preview.Builder
	Provider provider.Protocol
	Model    string
}

// Run executes up to maxHealAttempts rounds, emitting progress via
// emit, and returns nil once a build produces no open errors.
func (h *Healer) Run(ctx context.Context, projectID string, emit func(string)) error {
	for attempt := 1; attempt <= maxHealAttempts; attempt++ {
		files, err := h.Files.ReadAll(projectID)
		if err != nil {
			return fmt.Errorf("heal: read files: %w", err)
		}
		if _, err := h.Builder.Build(ctx, projectID, files); err != nil {
			return fmt.Errorf("heal: trigger build: %w", err)
		}
		time.Sleep(2 * time.Second)

		open, err := h.Errors.ListOpen(projectID)
		if err != nil {
			return fmt.Errorf("heal: list open errors: %w", err)
		}
		if len(open) == 0 {
			emit(fmt.Sprintf("build succeeded on attempt %d", attempt))
			return nil
		}

		toFix := open
		if len(toFix) > maxErrorsPerAttempt {
			toFix = toFix[:maxErrorsPerAttempt]
		}
		for _, rec := range toFix {
			if err := h.fixOne(ctx, projectID, rec, attempt); err != nil {
				emit(fmt.Sprintf("attempt %d: failed to fix %s: %v", attempt, rec.File, err))
				if incErr := h.Errors.IncrementAttempt(rec.ID); incErr != nil {
					emit(fmt.Sprintf("attempt %d: could not record failed fix on %s: %v", attempt, rec.File, incErr))
				}
				continue
			}
			emit(fmt.Sprintf("attempt %d: patched %s", attempt, rec.File))
		}
	}

	remaining, err := h.Errors.ListOpen(projectID)
	if err != nil {
		return fmt.Errorf("heal: final error check: %w", err)
	}
	if len(remaining) > 0 {
		return fmt.Errorf("heal: %d error(s) remain open after %d attempts", len(remaining), maxHealAttempts)
	}
	return nil
}

func (h *Healer) fixOne(ctx context.Context, projectID string, rec *models.ErrorRecord, attempt int) error {
	files, err := h.Files.ReadAll(projectID)
	if err != nil {
		return err
	}
	var fullFile string
	for _, f := range files {
		if f.Path == rec.File {
			fullFile = f.Content
			break
		}
	}
	if fullFile == "" {
		return fmt.Errorf("file %s not found among active files", rec.File)
	}

	prompt := fmt.Sprintf(
		"Fix the following error by rewriting the entire file.\nPath: %s\nLine: %d\nMessage: %s\nSnippet:\n%s\nFull file:\n%s\nRespond with the complete replacement file content only, no commentary and no code fences.",
		rec.File, rec.Line, rec.Message, rec.CodeSnippet, fullFile,
	)
	resp, err := h.Provider.CreateChatCompletion(ctx, &provider.ChatCompletionRequest{
		Model:       h.Model,
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
	if _, err := h.Files.Update(ctx, projectID, rec.File, fixed); err != nil {
		return err
	}
	return h.Errors.Resolve(rec.ID, fmt.Sprintf("auto-fixed on attempt %d", attempt))
}

// stripFences removes a single leading/trailing ``` fence, if present,
// from a whole-file model response.
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
