package swarm

import "fmt"

// LabelManaged marks every resource this adapter owns.
const LabelManaged = "orca-managed"

// LabelProject, LabelParent, LabelDeploymentHash, LabelService are attached
// to resources alongside LabelManaged so activities can look resources up
// by label instead of tracking IDs themselves.
const (
	LabelProject        = "orca-project"
	LabelParent         = "orca-parent"
	LabelDeploymentHash = "orca-deployment-hash"
	LabelService        = "orca-service"
)

// ProjectNetworkName is the legacy, project-wide overlay network name. It
// is the resource CreateProjectResources creates and attaches to the proxy.
func ProjectNetworkName(projectID string) string {
	return fmt.Sprintf("net-%s", projectID)
}

// EnvironmentNetworkName is the per-environment overlay network name used
// by DeployService and its activities.
func EnvironmentNetworkName(projectID, environmentID string) string {
	return fmt.Sprintf("net-%s-%s", projectID, environmentID)
}

// VolumeName is the resource name for a managed volume.
func VolumeName(volumeID string) string {
	return fmt.Sprintf("vol-%s", volumeID)
}

// ServiceName is the resource name for a swarm service backing one
// deployment. It must be reproduced bit-exact: it is used as a
// cross-process handle by the proxy adapter and the healthcheck evaluator.
func ServiceName(projectID, serviceID, hash string) string {
	return fmt.Sprintf("srv-%s-%s-%s", projectID, serviceID, hash)
}

// Labels builds the standard label set attached to every managed resource.
func Labels(projectID string, extra map[string]string) map[string]string {
	labels := map[string]string{
		LabelManaged: "true",
		LabelProject: projectID,
	}
	for k, v := range extra {
		labels[k] = v
	}
	return labels
}
