package workflow

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/cuemby/orca/internal/activity"
	"github.com/cuemby/orca/internal/domain"
)

// Every activity method here takes (ctx, params), so each OnActivity call
// needs two mock.Anything matchers: one for the context, one for the
// params struct.
var anyCtxAndParams = []any{mock.Anything, mock.Anything}

type WorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *WorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
}

func (s *WorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func TestWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowTestSuite))
}

func (s *WorkflowTestSuite) Test_CreateProjectResourcesWorkflow_Succeeds() {
	s.env.OnActivity("CreateProjectNetwork", anyCtxAndParams...).Return(
		activity.CreateProjectNetworkResult{NetworkID: "net-proj-1"}, nil)
	s.env.OnActivity("AttachNetworkToProxy", anyCtxAndParams...).Return(nil)

	s.env.ExecuteWorkflow(CreateProjectResourcesWorkflow, CreateProjectResourcesParams{ProjectID: "proj-1"})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var networkID string
	s.NoError(s.env.GetWorkflowResult(&networkID))
	s.Equal("net-proj-1", networkID)
}

func (s *WorkflowTestSuite) Test_ToggleServiceWorkflow_SleepingScalesBack() {
	s.env.OnActivity("ScaleBackServiceDeployment", anyCtxAndParams...).Return(nil)

	ref := activity.SimpleDeploymentRef{ProjectID: "proj-1", ServiceID: "svc-1", DeploymentHash: "hash-1"}
	s.env.ExecuteWorkflow(ToggleServiceWorkflow, ToggleServiceParams{Deployment: ref, Status: domain.StatusSleeping})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *WorkflowTestSuite) Test_ToggleServiceWorkflow_HealthyScalesDown() {
	s.env.OnActivity("ScaleDownServiceDeployment", anyCtxAndParams...).Return(nil)

	ref := activity.SimpleDeploymentRef{ProjectID: "proj-1", ServiceID: "svc-1", DeploymentHash: "hash-1"}
	s.env.ExecuteWorkflow(ToggleServiceWorkflow, ToggleServiceParams{Deployment: ref, Status: domain.StatusHealthy})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *WorkflowTestSuite) Test_DeployServiceWorkflow_HealthyPathWithNoPreviousDeployment() {
	s.env.OnActivity("PrepareDeployment", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("GetPreviousProductionDeployment", anyCtxAndParams...).Return((*domain.Deployment)(nil), nil)
	s.env.OnActivity("CreateVolumes", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("CreateSwarmService", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("RunDeploymentHealthcheck", anyCtxAndParams...).Return(
		activity.RunDeploymentHealthcheckResult{Status: domain.StatusHealthy}, nil)
	s.env.OnActivity("FinishAndSave", anyCtxAndParams...).Return(domain.StatusHealthy, nil)
	s.env.OnActivity("CreateDeploymentHealthcheckSchedule", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("GetOldestQueuedDeployment", anyCtxAndParams...).Return((*domain.Deployment)(nil), nil)

	s.env.ExecuteWorkflow(DeployServiceWorkflow, DeployServiceParams{
		DeploymentHash: "hash-1",
		ProjectID:      "proj-1",
		ServiceID:      "svc-1",
		EnvironmentID:  "env-1",
		HTTPEnabled:    false,
	})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result DeployServiceResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(domain.StatusHealthy, result.DeploymentStatus)
}

func (s *WorkflowTestSuite) Test_DeployServiceWorkflow_UnhealthyScalesDownAndRollsBack() {
	previous := &domain.Deployment{
		Hash: "hash-0", ProjectID: "proj-1", ServiceID: "svc-1", Status: domain.StatusHealthy,
		Service: domain.Service{Ports: []domain.PortSpec{{PublishedPort: 5432, ForwardedPort: 5432, Host: true}}},
	}

	s.env.OnActivity("PrepareDeployment", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("GetPreviousProductionDeployment", anyCtxAndParams...).Return(previous, nil)
	s.env.OnActivity("CreateVolumes", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("ScaleDownServiceDeployment", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("CreateSwarmService", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("RunDeploymentHealthcheck", anyCtxAndParams...).Return(
		activity.RunDeploymentHealthcheckResult{Status: domain.StatusUnhealthy, Reason: "boom"}, nil)
	s.env.OnActivity("FinishAndSave", anyCtxAndParams...).Return(domain.StatusFailed, nil)
	s.env.OnActivity("ScaleDownAndRemove", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("ScaleBackServiceDeployment", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("GetOldestQueuedDeployment", anyCtxAndParams...).Return((*domain.Deployment)(nil), nil)

	s.env.ExecuteWorkflow(DeployServiceWorkflow, DeployServiceParams{
		DeploymentHash: "hash-1",
		ProjectID:      "proj-1",
		ServiceID:      "svc-1",
		EnvironmentID:  "env-1",
	})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result DeployServiceResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(domain.StatusFailed, result.DeploymentStatus)
}

func (s *WorkflowTestSuite) Test_DeployServiceWorkflow_HTTPOnlyRedeployDoesNotScaleDownEarly() {
	previous := &domain.Deployment{
		Hash: "hash-0", ProjectID: "proj-1", ServiceID: "svc-1", Status: domain.StatusHealthy,
		Service: domain.Service{Ports: []domain.PortSpec{{PublishedPort: 443, ForwardedPort: 8080, Host: false}}},
	}

	s.env.OnActivity("PrepareDeployment", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("GetPreviousProductionDeployment", anyCtxAndParams...).Return(previous, nil)
	s.env.OnActivity("CreateVolumes", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("CreateSwarmService", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("RunDeploymentHealthcheck", anyCtxAndParams...).Return(
		activity.RunDeploymentHealthcheckResult{Status: domain.StatusHealthy}, nil)
	s.env.OnActivity("FinishAndSave", anyCtxAndParams...).Return(domain.StatusHealthy, nil)
	s.env.OnActivity("ScaleDownAndRemove", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("RemoveOldVolumes", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("RemoveOldURLs", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("CleanupPreviousProductionDeployment", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("CreateDeploymentHealthcheckSchedule", anyCtxAndParams...).Return(nil)
	s.env.OnActivity("GetOldestQueuedDeployment", anyCtxAndParams...).Return((*domain.Deployment)(nil), nil)

	s.env.ExecuteWorkflow(DeployServiceWorkflow, DeployServiceParams{
		DeploymentHash: "hash-1",
		ProjectID:      "proj-1",
		ServiceID:      "svc-1",
		EnvironmentID:  "env-1",
	})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result DeployServiceResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(domain.StatusHealthy, result.DeploymentStatus)
}

func (s *WorkflowTestSuite) Test_MonitorDeploymentWorkflow_ReportsHealthcheckResult() {
	s.env.OnActivity("RunMonitorHealthcheck", anyCtxAndParams...).Return(
		activity.RunDeploymentHealthcheckResult{Status: domain.StatusHealthy}, nil)

	s.env.ExecuteWorkflow(MonitorDeploymentWorkflow, MonitorDeploymentParams{DeploymentHash: "hash-1"})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result MonitorDeploymentResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(domain.StatusHealthy, result.Status)
}
