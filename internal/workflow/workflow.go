// Package workflow holds the durable Temporal workflow definitions
// orchestrating the deployment engine: project resource provisioning,
// teardown, the blue/green deployment rollout itself, service archival,
// and sleep/wake toggling.
//
// Grounded on original_source/backend/zane_api/temporal/workflows.py (the
// literal source these workflows are ported from) for control flow, and on
// other_examples/e41bf1fa_cycle-start-hosting__internal-workflow-node.go.go
// for the idiomatic Go shape: workflow.ExecuteActivity(ctx, "Name",
// params).Get(ctx, &result), workflow.ActivityOptions with a
// temporal.RetryPolicy, and Params/Result structs per activity call.
package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/cuemby/orca/internal/activity"
	"github.com/cuemby/orca/internal/domain"
)

func standardRetryPolicy() *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		MaximumAttempts: 5,
		MaximumInterval: 30 * time.Second,
	}
}

func withTimeout(ctx workflow.Context, timeout time.Duration) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy:         standardRetryPolicy(),
	})
}

// --- CreateProjectResourcesWorkflow ---

type CreateProjectResourcesParams struct {
	ProjectID string
}

// CreateProjectResourcesWorkflow creates the project's overlay network and
// attaches it to the reverse proxy, per original CreateProjectResourcesWorkflow.
func CreateProjectResourcesWorkflow(ctx workflow.Context, params CreateProjectResourcesParams) (string, error) {
	var networkResult activity.CreateProjectNetworkResult
	err := workflow.ExecuteActivity(withTimeout(ctx, 5*time.Second), "CreateProjectNetwork",
		activity.CreateProjectNetworkParams{ProjectID: params.ProjectID}).Get(ctx, &networkResult)
	if err != nil {
		return "", fmt.Errorf("create project network: %w", err)
	}

	err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "AttachNetworkToProxy",
		activity.AttachNetworkToProxyParams{NetworkID: networkResult.NetworkID}).Get(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("attach network to proxy: %w", err)
	}

	return networkResult.NetworkID, nil
}

// --- RemoveProjectResourcesWorkflow ---

type RemoveProjectResourcesParams struct {
	ArchivedProject domain.ArchivedProject
}

// RemoveProjectResourcesWorkflow unexposes and cleans up every archived
// service in parallel, then detaches and removes the project's network.
func RemoveProjectResourcesWorkflow(ctx workflow.Context, params RemoveProjectResourcesParams) error {
	var services []domain.ArchivedService
	err := workflow.ExecuteActivity(withTimeout(ctx, 5*time.Second), "GetArchivedProjectServices",
		activity.GetArchivedProjectServicesParams{ArchivedProject: params.ArchivedProject}).Get(ctx, &services)
	if err != nil {
		return fmt.Errorf("get archived project services: %w", err)
	}

	unexposeCtx := withTimeout(ctx, 10*time.Second)
	unexposeFutures := make([]workflow.Future, len(services))
	for i, svc := range services {
		unexposeFutures[i] = workflow.ExecuteActivity(unexposeCtx, "UnexposeFromHTTP",
			activity.UnexposeFromHTTPParams{ArchivedService: svc})
	}
	for _, f := range unexposeFutures {
		if err := f.Get(ctx, nil); err != nil {
			return fmt.Errorf("unexpose service from http: %w", err)
		}
	}

	cleanupCtx := withTimeout(ctx, 60*time.Second)
	cleanupFutures := make([]workflow.Future, len(services))
	for i, svc := range services {
		cleanupFutures[i] = workflow.ExecuteActivity(cleanupCtx, "CleanupDockerServiceResources",
			activity.CleanupDockerServiceResourcesParams{ArchivedService: svc})
	}
	for _, f := range cleanupFutures {
		if err := f.Get(ctx, nil); err != nil {
			return fmt.Errorf("cleanup docker service resources: %w", err)
		}
	}

	err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "DetachNetworkFromProxy",
		activity.DetachNetworkFromProxyParams{ArchivedProject: params.ArchivedProject}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("detach network from proxy: %w", err)
	}

	err = workflow.ExecuteActivity(withTimeout(ctx, 10*time.Second), "RemoveProjectNetwork",
		activity.RemoveProjectNetworkParams{ArchivedProject: params.ArchivedProject}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("remove project network: %w", err)
	}

	return nil
}

// --- ArchiveServiceWorkflow ---

type ArchiveServiceParams struct {
	ArchivedService domain.ArchivedService
}

func ArchiveServiceWorkflow(ctx workflow.Context, params ArchiveServiceParams) error {
	err := workflow.ExecuteActivity(withTimeout(ctx, 10*time.Second), "UnexposeFromHTTP",
		activity.UnexposeFromHTTPParams{ArchivedService: params.ArchivedService}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("unexpose service from http: %w", err)
	}

	err = workflow.ExecuteActivity(withTimeout(ctx, 60*time.Second), "CleanupDockerServiceResources",
		activity.CleanupDockerServiceResourcesParams{ArchivedService: params.ArchivedService}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("cleanup docker service resources: %w", err)
	}
	return nil
}

// --- ToggleServiceWorkflow ---

type ToggleServiceParams struct {
	Deployment activity.SimpleDeploymentRef
	Status     domain.DeploymentStatus
}

// ToggleServiceWorkflow scales a service back up from SLEEPING, or scales
// it down to sleep, per the original's status-branch.
func ToggleServiceWorkflow(ctx workflow.Context, params ToggleServiceParams) error {
	activityCtx := withTimeout(ctx, 60*time.Second)
	if params.Status == domain.StatusSleeping {
		return workflow.ExecuteActivity(activityCtx, "ScaleBackServiceDeployment",
			activity.ScaleBackServiceDeploymentParams{Deployment: params.Deployment}).Get(ctx, nil)
	}
	return workflow.ExecuteActivity(activityCtx, "ScaleDownServiceDeployment",
		activity.ScaleDownServiceDeploymentParams{Deployment: params.Deployment}).Get(ctx, nil)
}

// --- DeployServiceWorkflow ---

// CancelDeploymentResult mirrors the original's @workflow.update response
// shape for the cancel_deployment update.
type CancelDeploymentResult struct {
	Success bool
	Message string
}

// DeployServiceState holds the mutable state the cancel-deployment update
// handler reads and writes, since workflow.Context alone cannot carry
// per-execution mutable fields the way a Python workflow instance can.
type DeployServiceState struct {
	HasFinished           bool
	CancellationRequested bool
}

type DeployServiceParams struct {
	DeploymentHash     string
	ProjectID          string
	ServiceID          string
	EnvironmentID      string
	HTTPEnabled        bool
	HealthcheckTimeout time.Duration
	AuthEndpoint       string
}

type DeployServiceResult struct {
	DeploymentStatus     domain.DeploymentStatus
	HealthcheckReason    string
	NextQueuedDeployment *domain.Deployment
}

// RegisterCancelDeploymentHandler installs the cancel_deployment update
// handler; call it at the top of DeployServiceWorkflow before any await
// point, matching the original's @workflow.update placement.
func RegisterCancelDeploymentHandler(ctx workflow.Context, state *DeployServiceState) error {
	return workflow.SetUpdateHandler(ctx, "cancel_deployment", func(ctx workflow.Context) (CancelDeploymentResult, error) {
		if !state.HasFinished && !state.CancellationRequested {
			state.CancellationRequested = true
			return CancelDeploymentResult{Success: true}, nil
		}
		msg := "Cancellation already requested"
		if state.HasFinished {
			msg = "Deployment already finished"
		}
		return CancelDeploymentResult{Success: false, Message: msg}, nil
	})
}

// hasConflictingResources reports whether svc declares a resource that
// cannot exist twice concurrently: a host-published port (bound to a
// specific host port, not the ingress mesh) or a managed volume (backed by
// a single `vol-{id}` orchestrator resource, as opposed to a host bind
// mount). Only then must the previous slot scale to zero before the new
// one is created; otherwise the two slots run side by side for true
// zero-downtime blue/green.
func hasConflictingResources(svc domain.Service) bool {
	for _, p := range svc.Ports {
		if p.Host {
			return true
		}
	}
	for _, v := range svc.Volumes {
		if v.Managed() {
			return true
		}
	}
	return false
}

// DeployServiceWorkflow runs the thirteen-step blue/green rollout
// described in §4.1/§8, including the cancellation update handler and the
// HEALTHY/UNHEALTHY branches, ending by draining the next queued
// deployment via continue_as_new.
func DeployServiceWorkflow(ctx workflow.Context, params DeployServiceParams) (DeployServiceResult, error) {
	state := &DeployServiceState{}
	if err := RegisterCancelDeploymentHandler(ctx, state); err != nil {
		return DeployServiceResult{}, fmt.Errorf("register cancel handler: %w", err)
	}

	if state.CancellationRequested {
		next, err := queueNextDeployment(ctx, params.ServiceID, params.DeploymentHash)
		if err != nil {
			return DeployServiceResult{}, err
		}
		return DeployServiceResult{DeploymentStatus: domain.StatusCancelled, NextQueuedDeployment: next}, nil
	}

	err := workflow.ExecuteActivity(withTimeout(ctx, 5*time.Second), "PrepareDeployment",
		activity.PrepareDeploymentParams{DeploymentHash: params.DeploymentHash}).Get(ctx, nil)
	if err != nil {
		return DeployServiceResult{}, fmt.Errorf("prepare deployment: %w", err)
	}

	var previousProduction *domain.Deployment
	err = workflow.ExecuteActivity(withTimeout(ctx, 5*time.Second), "GetPreviousProductionDeployment",
		activity.GetPreviousProductionDeploymentParams{DeploymentHash: params.DeploymentHash}).Get(ctx, &previousProduction)
	if err != nil {
		return DeployServiceResult{}, fmt.Errorf("get previous production deployment: %w", err)
	}

	err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "CreateVolumes",
		activity.CreateVolumesParams{DeploymentHash: params.DeploymentHash}).Get(ctx, nil)
	if err != nil {
		return DeployServiceResult{}, fmt.Errorf("create volumes: %w", err)
	}

	if previousProduction != nil && previousProduction.Status != domain.StatusFailed && hasConflictingResources(previousProduction.Service) {
		ref := activity.SimpleDeploymentRef{ProjectID: params.ProjectID, ServiceID: params.ServiceID, DeploymentHash: previousProduction.Hash}
		err = workflow.ExecuteActivity(withTimeout(ctx, 60*time.Second), "ScaleDownServiceDeployment",
			activity.ScaleDownServiceDeploymentParams{Deployment: ref}).Get(ctx, nil)
		if err != nil {
			return DeployServiceResult{}, fmt.Errorf("scale down previous deployment: %w", err)
		}
	}

	err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "CreateSwarmService",
		activity.CreateSwarmServiceParams{DeploymentHash: params.DeploymentHash}).Get(ctx, nil)
	if err != nil {
		return DeployServiceResult{}, fmt.Errorf("create swarm service: %w", err)
	}

	if params.HTTPEnabled {
		err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "ExposeDeploymentURL",
			activity.ExposeDeploymentURLParams{DeploymentHash: params.DeploymentHash, AuthEndpoint: params.AuthEndpoint}).Get(ctx, nil)
		if err != nil {
			return DeployServiceResult{}, fmt.Errorf("expose deployment url: %w", err)
		}
	}

	healthcheckTimeout := params.HealthcheckTimeout
	if healthcheckTimeout <= 0 {
		healthcheckTimeout = 30 * time.Second
	}
	var healthcheckResult activity.RunDeploymentHealthcheckResult
	err = workflow.ExecuteActivity(withTimeout(ctx, healthcheckTimeout+5*time.Second), "RunDeploymentHealthcheck",
		activity.RunDeploymentHealthcheckParams{DeploymentHash: params.DeploymentHash, OverallTimeout: healthcheckTimeout}).Get(ctx, &healthcheckResult)
	if err != nil {
		return DeployServiceResult{}, fmt.Errorf("run deployment healthcheck: %w", err)
	}

	if healthcheckResult.Status == domain.StatusHealthy && params.HTTPEnabled {
		err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "ExposeServiceURLs",
			activity.ExposeServiceURLsParams{DeploymentHash: params.DeploymentHash}).Get(ctx, nil)
		if err != nil {
			return DeployServiceResult{}, fmt.Errorf("expose service urls: %w", err)
		}
	}

	state.HasFinished = true

	var finalStatus domain.DeploymentStatus
	err = workflow.ExecuteActivity(withTimeout(ctx, 5*time.Second), "FinishAndSave",
		activity.FinishAndSaveParams{DeploymentHash: params.DeploymentHash, Status: healthcheckResult.Status, Reason: healthcheckResult.Reason}).Get(ctx, &finalStatus)
	if err != nil {
		return DeployServiceResult{}, fmt.Errorf("finish and save deployment: %w", err)
	}

	if healthcheckResult.Status == domain.StatusHealthy {
		if previousProduction != nil {
			prevRef := activity.SimpleDeploymentRef{ProjectID: params.ProjectID, ServiceID: params.ServiceID, DeploymentHash: previousProduction.Hash}
			err = workflow.ExecuteActivity(withTimeout(ctx, 60*time.Second), "ScaleDownAndRemove",
				activity.ScaleDownAndRemoveParams{Deployment: prevRef}).Get(ctx, nil)
			if err != nil {
				return DeployServiceResult{}, fmt.Errorf("scale down and remove previous deployment: %w", err)
			}

			err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "RemoveOldVolumes",
				activity.RemoveOldVolumesParams{DeploymentHash: params.DeploymentHash}).Get(ctx, nil)
			if err != nil {
				return DeployServiceResult{}, fmt.Errorf("remove old volumes: %w", err)
			}

			err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "RemoveOldURLs",
				activity.RemoveOldURLsParams{DeploymentHash: params.DeploymentHash}).Get(ctx, nil)
			if err != nil {
				return DeployServiceResult{}, fmt.Errorf("remove old urls: %w", err)
			}

			err = workflow.ExecuteActivity(withTimeout(ctx, 5*time.Second), "CleanupPreviousProductionDeployment",
				activity.CleanupPreviousProductionDeploymentParams{Deployment: *previousProduction}).Get(ctx, nil)
			if err != nil {
				return DeployServiceResult{}, fmt.Errorf("cleanup previous production deployment: %w", err)
			}
		}

		err = workflow.ExecuteActivity(withTimeout(ctx, 5*time.Second), "CreateDeploymentHealthcheckSchedule",
			activity.CreateDeploymentHealthcheckScheduleParams{DeploymentHash: params.DeploymentHash}).Get(ctx, nil)
		if err != nil {
			return DeployServiceResult{}, fmt.Errorf("create deployment healthcheck schedule: %w", err)
		}
	} else {
		currentRef := activity.SimpleDeploymentRef{ProjectID: params.ProjectID, ServiceID: params.ServiceID, DeploymentHash: params.DeploymentHash}
		err = workflow.ExecuteActivity(withTimeout(ctx, 60*time.Second), "ScaleDownAndRemove",
			activity.ScaleDownAndRemoveParams{Deployment: currentRef}).Get(ctx, nil)
		if err != nil {
			return DeployServiceResult{}, fmt.Errorf("scale down and remove failed deployment: %w", err)
		}

		if previousProduction != nil && previousProduction.Status != domain.StatusFailed {
			prevRef := activity.SimpleDeploymentRef{ProjectID: params.ProjectID, ServiceID: params.ServiceID, DeploymentHash: previousProduction.Hash}
			err = workflow.ExecuteActivity(withTimeout(ctx, 30*time.Second), "ScaleBackServiceDeployment",
				activity.ScaleBackServiceDeploymentParams{Deployment: prevRef}).Get(ctx, nil)
			if err != nil {
				return DeployServiceResult{}, fmt.Errorf("scale back previous deployment: %w", err)
			}
		}
	}

	next, err := queueNextDeployment(ctx, params.ServiceID, params.DeploymentHash)
	if err != nil {
		return DeployServiceResult{}, err
	}

	return DeployServiceResult{
		DeploymentStatus:     finalStatus,
		HealthcheckReason:    healthcheckResult.Reason,
		NextQueuedDeployment: next,
	}, nil
}

// queueNextDeployment mirrors the original's static queue_next_deployment:
// fetch the oldest other QUEUED deployment for the service and, if one
// exists, continue_as_new into it so the queue drains one deployment at a
// time without growing the workflow's event history unbounded.
func queueNextDeployment(ctx workflow.Context, serviceID, excludeHash string) (*domain.Deployment, error) {
	var next *domain.Deployment
	err := workflow.ExecuteActivity(withTimeout(ctx, 5*time.Second), "GetOldestQueuedDeployment",
		activity.GetOldestQueuedDeploymentParams{ServiceID: serviceID, ExcludeHash: excludeHash}).Get(ctx, &next)
	if err != nil {
		return nil, fmt.Errorf("get oldest queued deployment: %w", err)
	}
	if next == nil {
		return nil, nil
	}

	nextParams := DeployServiceParams{
		DeploymentHash: next.Hash,
		ProjectID:      next.ProjectID,
		ServiceID:      next.ServiceID,
		EnvironmentID:  next.EnvironmentID,
		HTTPEnabled:    len(next.Service.URLs) > 0,
	}
	return next, workflow.NewContinueAsNewError(ctx, DeployServiceWorkflow, nextParams)
}
