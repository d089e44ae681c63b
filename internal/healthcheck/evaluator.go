// Package healthcheck maps Docker Swarm task states to deployment status,
// runs the service's optional custom probe, and implements the two timing
// modes (bounded, during a rollout; oneshot, for the recurring monitor
// schedule) behind a single converged evaluator.
//
// Grounded on cuemby-warren/pkg/health's Checker interface and
// cuemby-warren/pkg/worker/health_monitor.go's per-entity polling loop
// idiom, generalized with the swarm task-state matrix from §4.5 and a
// Mode parameter that converges what was, in the distilled source, two
// near-duplicate loops (see DESIGN.md's Open Question decisions).
package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/swarm"

	"github.com/cuemby/orca/internal/domain"
	orcaswarm "github.com/cuemby/orca/internal/swarm"
	"github.com/cuemby/orca/pkg/log"
	"github.com/cuemby/orca/pkg/metrics"
)

// Mode selects the evaluator's timing behavior.
type Mode string

const (
	// ModeBounded polls up to an overall timeout budget, used during a
	// deployment rollout (DeployService step 8).
	ModeBounded Mode = "bounded"
	// ModeOneshot runs a single pass with no retry loop, used by the
	// recurring Monitor Schedule.
	ModeOneshot Mode = "oneshot"
)

// DefaultHealthcheckTimeout is used when the service declares no
// healthcheck.timeout_seconds.
const DefaultHealthcheckTimeout = 30 * time.Second

// HCWait is the poll interval between healthcheck attempts.
const HCWait = 3 * time.Second

// Target identifies the swarm service/deployment the evaluator inspects.
type Target struct {
	ServiceName    string // srv-{project}-{service}-{hash}
	DeploymentHash string
	DeploymentURL  string
	AuthToken      string
	PreviouslySeen bool // the deployment has previously been observed HEALTHY/STARTING/RESTARTING
}

// Result is the evaluator's outcome.
type Result struct {
	Status DeploymentStatus
	Reason string
}

// DeploymentStatus is an alias of domain.DeploymentStatus; the constants
// below name the subset of values the evaluator can produce.
type DeploymentStatus = domain.DeploymentStatus

const (
	statusStarting   = domain.StatusStarting
	statusRestarting = domain.StatusRestarting
	statusHealthy    = domain.StatusHealthy
	statusUnhealthy  = domain.StatusUnhealthy
	statusRemoved    = domain.StatusRemoved
)

// Evaluator evaluates a single deployment's health.
type Evaluator struct {
	adapter *orcaswarm.Adapter
	probe   ProbeRunner
}

// ProbeRunner executes a service's optional custom probe. Implemented by
// HTTPProbe and CommandProbe below.
type ProbeRunner interface {
	Run(ctx context.Context, target Target, task swarm.Task, timeout time.Duration) Result
}

// NewEvaluator builds an Evaluator. probe may be nil if the service
// declares no custom healthcheck.
func NewEvaluator(adapter *orcaswarm.Adapter, probe ProbeRunner) *Evaluator {
	return &Evaluator{adapter: adapter, probe: probe}
}

// mapTaskState applies the authoritative task-state mapping from §4.5.
func mapTaskState(t swarm.Task, concurrentTasks int) (DeploymentStatus, string) {
	switch t.Status.State {
	case swarm.TaskStateNew, swarm.TaskStatePending, swarm.TaskStateAssigned,
		swarm.TaskStateAccepted, swarm.TaskStateReady, swarm.TaskStatePreparing,
		swarm.TaskStateStarting:
		if concurrentTasks > 1 {
			return statusRestarting, t.Status.Message
		}
		return statusStarting, t.Status.Message

	case swarm.TaskStateRunning:
		return statusHealthy, ""

	case swarm.TaskStateComplete, swarm.TaskStateShutdown, swarm.TaskStateRemove:
		if t.Status.State == swarm.TaskStateShutdown {
			if t.Status.Err != "" {
				return statusUnhealthy, t.Status.Err
			}
			if t.Status.ContainerStatus != nil && t.Status.ContainerStatus.ExitCode != 0 {
				return statusUnhealthy, fmt.Sprintf("container exited with code %d", t.Status.ContainerStatus.ExitCode)
			}
		}
		return statusRemoved, t.Status.Message

	case swarm.TaskStateFailed, swarm.TaskStateRejected, swarm.TaskStateOrphaned:
		reason := t.Status.Err
		if reason == "" {
			reason = t.Status.Message
		}
		return statusUnhealthy, reason

	default:
		return statusUnhealthy, fmt.Sprintf("unrecognized task state %q", t.Status.State)
	}
}

// evaluateOnce performs a single attempt: list tasks, pick the
// largest-Version.Index task (tie-break per §4.5), map its state, and run
// the custom probe if the mapped status is HEALTHY. The probe timeout is
// 5s, capped at the time left before deadline when deadline is non-zero.
func (e *Evaluator) evaluateOnce(ctx context.Context, target Target, deadline time.Time) Result {
	tasks, err := e.adapter.Tasks(ctx, target.ServiceName, target.DeploymentHash)
	if err != nil {
		return Result{Status: statusUnhealthy, Reason: err.Error()}
	}

	if len(tasks) == 0 {
		if target.PreviouslySeen {
			return Result{Status: statusUnhealthy, Reason: "did you manually scale down the service?"}
		}
		return Result{Status: statusStarting, Reason: "no tasks observed yet"}
	}

	task, _ := orcaswarm.LatestTask(tasks)
	status, reason := mapTaskState(task, len(tasks))

	if status == statusHealthy && e.probe != nil {
		timeout := 5 * time.Second
		if !deadline.IsZero() {
			if left := time.Until(deadline); left < timeout {
				timeout = left
			}
		}
		probeResult := e.probe.Run(ctx, target, task, timeout)
		return probeResult
	}

	return Result{Status: status, Reason: reason}
}

// Evaluate runs the evaluator in the given mode.
//
// ModeOneshot: a single evaluateOnce call, no retry loop.
//
// ModeBounded: loop { attempt; if HEALTHY return; if time_left > HCWait,
// sleep HCWait and retry; else return the last (UNHEALTHY) result }, per
// the timing model in §4.5. The initial reason is the spec's fixed string.
func (e *Evaluator) Evaluate(ctx context.Context, target Target, mode Mode, overallTimeout time.Duration) Result {
	metrics.HealthcheckAttempts.WithLabelValues(string(mode)).Inc()
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.HealthcheckDuration)

	if mode == ModeOneshot {
		result := e.evaluateOnce(ctx, target, time.Time{})
		if result.Status != statusHealthy {
			metrics.HealthcheckFailures.WithLabelValues(string(mode)).Inc()
		}
		return result
	}

	if overallTimeout <= 0 {
		overallTimeout = DefaultHealthcheckTimeout
	}

	deadline := time.Now().Add(overallTimeout)
	last := Result{Status: statusUnhealthy, Reason: "service failed to meet the healthcheck requirements when starting the service."}

	for {
		result := e.evaluateOnce(ctx, target, deadline)
		if result.Status == statusHealthy {
			return result
		}
		last = result

		timeLeft := time.Until(deadline)
		if timeLeft <= HCWait {
			last.Status = statusUnhealthy
			break
		}

		select {
		case <-ctx.Done():
			metrics.HealthcheckFailures.WithLabelValues(string(mode)).Inc()
			return Result{Status: statusUnhealthy, Reason: ctx.Err().Error()}
		case <-time.After(HCWait):
		}
	}

	metrics.HealthcheckFailures.WithLabelValues(string(mode)).Inc()
	log.WithComponent("healthcheck").Warn().
		Str("service", target.ServiceName).
		Str("reason", last.Reason).
		Msg("healthcheck did not reach HEALTHY within the overall timeout")
	return last
}
