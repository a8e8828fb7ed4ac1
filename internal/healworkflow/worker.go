package healworkflow

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// Worker wraps a Temporal worker.Worker registered for HealWorkflow and
// its Activities, grounded on internal/temporal/manager.go's
// worker.New/RegisterWorkflow/RegisterActivity/Run shape.
type Worker struct {
	w worker.Worker
}

// NewWorker builds a Worker for taskQueue, registering HealWorkflow and
// activities against temporalClient.
func NewWorker(temporalClient client.Client, taskQueue string, activities *Activities) *Worker {
	w := worker.New(temporalClient, taskQueue, worker.Options{})
	w.RegisterWorkflow(HealWorkflow)
	w.RegisterActivity(activities)
	return &Worker{w: w}
}

// Run blocks, serving workflow and activity tasks until interrupted.
func (wk *Worker) Run() error {
	log.Println("[healworkflow] starting temporal worker")
	return wk.w.Run(worker.InterruptCh())
}

// Stop requests the worker shut down.
func (wk *Worker) Stop() {
	wk.w.Stop()
}
