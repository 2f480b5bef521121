package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ReclusterWorkflowID is the fixed ID of the single periodic run.
const ReclusterWorkflowID = "waypoint-recluster"

// defaultRunsPerExecution bounds workflow history before ContinueAsNew.
const defaultRunsPerExecution = 24

// ReclusterInput is the input for the recluster workflow.
type ReclusterInput struct {
	RadiusMeters float64
	Interval     time.Duration
	// RunsPerExecution is how many recomputes happen before the workflow
	// continues as new. Zero means 24.
	RunsPerExecution int
}

// ReclusterWorkflow recomputes the cluster snapshot every Interval, forever.
// A failed recompute is logged and retried on the next tick.
func ReclusterWorkflow(ctx workflow.Context, input ReclusterInput) error {
	logger := workflow.GetLogger(ctx)

	if input.RadiusMeters <= 0 || input.Interval <= 0 {
		return temporal.NewNonRetryableApplicationError("radius and interval must be positive", "InvalidInput", nil)
	}
	runs := input.RunsPerExecution
	if runs <= 0 {
		runs = defaultRunsPerExecution
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 10 * time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	for i := 0; i < runs; i++ {
		var result ReclusterResult
		err := workflow.ExecuteActivity(ctx, "Recompute", input.RadiusMeters).Get(ctx, &result)
		if err != nil {
			logger.Warn("recluster failed", "error", err)
		} else {
			logger.Info("recluster done", "inputs", result.Inputs, "clusters", result.Clusters)
		}

		if err := workflow.Sleep(ctx, input.Interval); err != nil {
			return err
		}
	}

	return workflow.NewContinueAsNewError(ctx, ReclusterWorkflow, input)
}
