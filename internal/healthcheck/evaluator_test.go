package healthcheck

import (
	"testing"

	"github.com/docker/docker/api/types/swarm"
	"github.com/stretchr/testify/assert"

	orcaswarm "github.com/cuemby/orca/internal/swarm"
)

func taskAt(index uint64, state swarm.TaskState, exitCode int) swarm.Task {
	t := swarm.Task{
		Version: swarm.Version{Index: index},
		Status: swarm.TaskStatus{
			State: state,
		},
	}
	if state == swarm.TaskStateShutdown {
		t.Status.ContainerStatus = &swarm.ContainerStatus{ExitCode: exitCode}
	}
	return t
}

func TestLatestTask_TieBreakOnVersionIndex(t *testing.T) {
	shutdown := taskAt(7, swarm.TaskStateShutdown, 0)
	running := taskAt(12, swarm.TaskStateRunning, 0)

	latest, ok := orcaswarm.LatestTask([]swarm.Task{shutdown, running})
	assert.True(t, ok)
	assert.Equal(t, swarm.TaskStateRunning, latest.Status.State)

	status, _ := mapTaskState(latest, 2)
	assert.Equal(t, statusHealthy, status)
}

func TestMapTaskState_ShutdownWithNonZeroExitOverridesToUnhealthy(t *testing.T) {
	task := taskAt(1, swarm.TaskStateShutdown, 1)
	status, reason := mapTaskState(task, 1)
	assert.Equal(t, statusUnhealthy, status)
	assert.Contains(t, reason, "exited with code 1")
}

func TestMapTaskState_ShutdownCleanExitMapsToRemoved(t *testing.T) {
	task := taskAt(1, swarm.TaskStateShutdown, 0)
	status, _ := mapTaskState(task, 1)
	assert.Equal(t, statusRemoved, status)
}

func TestMapTaskState_StartingStatesMapToRestartingWhenConcurrent(t *testing.T) {
	task := taskAt(1, swarm.TaskStatePreparing, 0)
	status, _ := mapTaskState(task, 2)
	assert.Equal(t, statusRestarting, status)

	status, _ = mapTaskState(task, 1)
	assert.Equal(t, statusStarting, status)
}

func TestMapTaskState_FailedRejectedOrphanedAreUnhealthy(t *testing.T) {
	for _, state := range []swarm.TaskState{swarm.TaskStateFailed, swarm.TaskStateRejected, swarm.TaskStateOrphaned} {
		task := taskAt(1, state, 0)
		status, _ := mapTaskState(task, 1)
		assert.Equal(t, statusUnhealthy, status, "state=%s", state)
	}
}
