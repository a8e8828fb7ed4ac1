package healworkflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/appgenhq/appgen/pkg/models"
)

const maxHealAttempts = 3
const maxErrorsPerAttempt = 3
const postBuildSettleDelay = 2 * time.Second

// HealWorkflowInput is HealWorkflow's sole argument.
type HealWorkflowInput struct {
	ProjectID string
}

// HealWorkflowResult reports how the durable heal pass concluded.
type HealWorkflowResult struct {
	Healed         bool
	AttemptsUsed   int
	RemainingCount int
}

// HealWorkflow drives the bounded auto-heal loop with the stricter
// ordering: a fix is written, then a rebuild is triggered and observed,
// and only a record whose rebuild no longer reproduces it is marked
// resolved. A record that survives a fix attempt gets its attempt
// counter bumped instead, and the loop moves on.
func HealWorkflow(ctx workflow.Context, input HealWorkflowInput) (HealWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	})

	var a *Activities

	for attempt := 1; attempt <= maxHealAttempts; attempt++ {
		var build BuildOutcome
		if err := workflow.ExecuteActivity(ctx, a.TriggerBuild, input.ProjectID).Get(ctx, &build); err != nil {
			return HealWorkflowResult{}, fmt.Errorf("heal attempt %d: trigger build: %w", attempt, err)
		}

		// Let the build's error-parsing pipeline land its records before
		// querying for them.
		_ = workflow.Sleep(ctx, postBuildSettleDelay)

		var open []*models.ErrorRecord
		if err := workflow.ExecuteActivity(ctx, a.GetOpenErrors, input.ProjectID).Get(ctx, &open); err != nil {
			return HealWorkflowResult{}, fmt.Errorf("heal attempt %d: list open errors: %w", attempt, err)
		}

		if len(open) == 0 {
			logger.Info("heal workflow converged", "attempt", attempt)
			return HealWorkflowResult{Healed: true, AttemptsUsed: attempt}, nil
		}

		toFix := open
		if len(toFix) > maxErrorsPerAttempt {
			toFix = toFix[:maxErrorsPerAttempt]
		}

		// Snapshot which records existed before this round's fixes, so
		// we can tell after the next build which ones stopped reproducing.
		beforeIDs := make(map[string]bool, len(toFix))
		for _, rec := range toFix {
			beforeIDs[rec.ID] = true
			if err := workflow.ExecuteActivity(ctx, a.FixFile, input.ProjectID, rec).Get(ctx, nil); err != nil {
				logger.Warn("heal fix failed", "file", rec.File, "attempt", attempt, "error", err.Error())
				_ = workflow.ExecuteActivity(ctx, a.IncrementAttempt, rec.ID).Get(ctx, nil)
				delete(beforeIDs, rec.ID)
			}
		}

		if len(beforeIDs) == 0 {
			continue
		}

		// Rebuild and observe: only now do we know whether the fixes held.
		if err := workflow.ExecuteActivity(ctx, a.TriggerBuild, input.ProjectID).Get(ctx, &build); err != nil {
			return HealWorkflowResult{}, fmt.Errorf("heal attempt %d: verification build: %w", attempt, err)
		}
		_ = workflow.Sleep(ctx, postBuildSettleDelay)

		var stillOpen []*models.ErrorRecord
		if err := workflow.ExecuteActivity(ctx, a.GetOpenErrors, input.ProjectID).Get(ctx, &stillOpen); err != nil {
			return HealWorkflowResult{}, fmt.Errorf("heal attempt %d: verification error list: %w", attempt, err)
		}
		stillOpenIDs := make(map[string]bool, len(stillOpen))
		for _, rec := range stillOpen {
			stillOpenIDs[rec.ID] = true
		}

		for id := range beforeIDs {
			if stillOpenIDs[id] {
				_ = workflow.ExecuteActivity(ctx, a.IncrementAttempt, id).Get(ctx, nil)
				continue
			}
			note := fmt.Sprintf("auto-fixed on attempt %d, verified by rebuild", attempt)
			_ = workflow.ExecuteActivity(ctx, a.ResolveError, id, note).Get(ctx, nil)
		}

		if len(stillOpen) == 0 {
			return HealWorkflowResult{Healed: true, AttemptsUsed: attempt}, nil
		}
	}

	var remaining []*models.ErrorRecord
	_ = workflow.ExecuteActivity(ctx, a.GetOpenErrors, input.ProjectID).Get(ctx, &remaining)
	return HealWorkflowResult{Healed: false, AttemptsUsed: maxHealAttempts, RemainingCount: len(remaining)}, nil
}
