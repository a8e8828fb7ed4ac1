package healworkflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/appgenhq/appgen/internal/config"
)

// Client wraps the Temporal client with the connection-retry behavior
// internal/temporal/client/client.go establishes, scoped to the single
// heal workflow this package defines.
type Client struct {
	temporal  client.Client
	taskQueue string
}

// New dials Temporal using cfg, retrying with exponential backoff.
func New(cfg *config.TemporalConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("temporal config cannot be nil")
	}

	const maxRetries = 5
	const baseDelay = 2 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			log.Printf("retrying temporal connection in %v (attempt %d/%d)", delay, attempt+1, maxRetries)
			time.Sleep(delay)
		}

		dialCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		c, err := client.DialContext(dialCtx, client.Options{
			HostPort:  cfg.Host,
			Namespace: cfg.Namespace,
		})
		cancel()
		if err == nil {
			log.Printf("connected to temporal at %s (namespace %s)", cfg.Host, cfg.Namespace)
			return &Client{temporal: c, taskQueue: cfg.TaskQueue}, nil
		}
		log.Printf("temporal connection attempt %d failed: %v", attempt+1, err)
	}

	return nil, fmt.Errorf("failed to connect to temporal after %d retries", maxRetries)
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c.temporal != nil {
		c.temporal.Close()
	}
}

// NewWorker builds a Worker bound to this connection's task queue,
// running HealWorkflow against activities.
func (c *Client) NewWorker(activities *Activities) *Worker {
	return NewWorker(c.temporal, c.taskQueue, activities)
}

// StartHeal kicks off a HealWorkflow run for a project and returns once
// the workflow is accepted (not once it completes).
func (c *Client) StartHeal(ctx context.Context, projectID string) (client.WorkflowRun, error) {
	return c.temporal.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("heal-%s", projectID),
		TaskQueue: c.taskQueue,
	}, HealWorkflow, HealWorkflowInput{ProjectID: projectID})
}

// Result blocks until the named heal workflow run completes and
// returns its result.
func (c *Client) Result(ctx context.Context, run client.WorkflowRun) (HealWorkflowResult, error) {
	var result HealWorkflowResult
	err := run.Get(ctx, &result)
	return result, err
}
