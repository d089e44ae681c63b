package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/cuemby/orca/internal/activity"
	"github.com/cuemby/orca/internal/domain"
)

// MonitorDeploymentParams identifies the deployment a recurring Monitor
// Schedule fires against.
type MonitorDeploymentParams struct {
	DeploymentHash     string
	HealthcheckTimeout time.Duration
}

type MonitorDeploymentResult struct {
	Status domain.DeploymentStatus
	Reason string
}

// MonitorDeploymentWorkflow is the one-shot workflow a Temporal Schedule
// invokes on each tick to re-check a HEALTHY deployment's liveness,
// grounded on original_source's MonitorDockerDeploymentWorkflow. The
// original's monitor_close_faulty_db_connections activity resets Django's
// per-worker database connection pool before running the healthcheck; the
// bbolt store here holds no connection pool to reset, so that step has no
// analogue.
func MonitorDeploymentWorkflow(ctx workflow.Context, params MonitorDeploymentParams) (MonitorDeploymentResult, error) {
	timeout := params.HealthcheckTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var result activity.RunDeploymentHealthcheckResult
	err := workflow.ExecuteActivity(withTimeout(ctx, timeout+5*time.Second), "RunMonitorHealthcheck",
		activity.RunMonitorHealthcheckParams{DeploymentHash: params.DeploymentHash}).Get(ctx, &result)
	if err != nil {
		return MonitorDeploymentResult{}, fmt.Errorf("run monitor healthcheck: %w", err)
	}

	return MonitorDeploymentResult{Status: result.Status, Reason: result.Reason}, nil
}
