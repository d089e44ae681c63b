// Package swarm is the thin semantic wrapper over the Docker Swarm API:
// services, tasks, volumes, and networks. Every resource name it produces
// is bit-exact per the naming rules in names.go, because those names are
// used as cross-process handles by the proxy adapter and the healthcheck
// evaluator.
package swarm

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/swarm"
	dockervolume "github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"

	"github.com/cuemby/orca/pkg/log"
	"github.com/cuemby/orca/pkg/metrics"
)

// Adapter wraps a Docker Engine API client scoped to one swarm cluster.
// Constructed per activity-worker, not held as process-wide global state.
type Adapter struct {
	cli         *client.Client
	proxyService string // swarm service name fronting the reverse proxy
}

// NewAdapter builds an Adapter over an already-configured Docker client.
func NewAdapter(cli *client.Client, proxyServiceName string) *Adapter {
	return &Adapter{cli: cli, proxyService: proxyServiceName}
}

func timed(op string) func() {
	t := metrics.NewTimer()
	return func() { t.ObserveDurationVec(metrics.SwarmAPIRequestDuration, op) }
}

func recordErr(op string, err error) error {
	if err != nil {
		metrics.SwarmAPIErrorsTotal.WithLabelValues(op).Inc()
	}
	return err
}

// EnsureNetwork looks a network up by name and creates it if absent.
// Idempotent: lookup-by-name-then-create. An existing network of that name
// is returned as is; its labels are not compared.
func (a *Adapter) EnsureNetwork(ctx context.Context, name, projectID string) (string, error) {
	defer timed("network.ensure")()

	existing, err := a.cli.NetworkInspect(ctx, name, network.InspectOptions{})
	if err == nil {
		return existing.ID, nil
	}
	if !client.IsErrNotFound(err) {
		return "", recordErr("network.ensure", err)
	}

	resp, err := a.cli.NetworkCreate(ctx, name, network.CreateOptions{
		Driver:     "overlay",
		Attachable: true,
		Labels:     Labels(projectID, nil),
	})
	if err != nil {
		return "", recordErr("network.create", err)
	}
	return resp.ID, nil
}

// RemoveNetwork deletes a network by name. Not found is not an error: the
// caller (RemoveProjectResources) has already waited for the proxy to
// observably drop the network.
func (a *Adapter) RemoveNetwork(ctx context.Context, name string) error {
	defer timed("network.remove")()
	err := a.cli.NetworkRemove(ctx, name)
	if err != nil && client.IsErrNotFound(err) {
		return nil
	}
	return recordErr("network.remove", err)
}

// AttachNetworkToProxy adds networkID to the proxy service's task template
// network list, if not already present, and bumps the service version.
func (a *Adapter) AttachNetworkToProxy(ctx context.Context, networkID string) error {
	defer timed("proxy.attach_network")()

	svc, _, err := a.cli.ServiceInspectWithRaw(ctx, a.proxyService, swarm.ServiceInspectOptions{})
	if err != nil {
		return recordErr("proxy.attach_network", err)
	}

	for _, n := range svc.Spec.TaskTemplate.Networks {
		if n.Target == networkID {
			return nil // already attached
		}
	}
	spec := svc.Spec
	spec.TaskTemplate.Networks = append(spec.TaskTemplate.Networks, swarm.NetworkAttachmentConfig{Target: networkID})

	_, err = a.cli.ServiceUpdate(ctx, svc.ID, svc.Version, spec, swarm.ServiceUpdateOptions{})
	return recordErr("proxy.attach_network", err)
}

// DetachNetworkFromProxy removes networkID from the proxy service's task
// template network list.
func (a *Adapter) DetachNetworkFromProxy(ctx context.Context, networkID string) error {
	defer timed("proxy.detach_network")()

	svc, _, err := a.cli.ServiceInspectWithRaw(ctx, a.proxyService, swarm.ServiceInspectOptions{})
	if err != nil {
		return recordErr("proxy.detach_network", err)
	}

	spec := svc.Spec
	kept := spec.TaskTemplate.Networks[:0]
	for _, n := range spec.TaskTemplate.Networks {
		if n.Target != networkID {
			kept = append(kept, n)
		}
	}
	spec.TaskTemplate.Networks = kept

	_, err = a.cli.ServiceUpdate(ctx, svc.ID, svc.Version, spec, swarm.ServiceUpdateOptions{})
	return recordErr("proxy.detach_network", err)
}

// ProxyTasksReferenceNetwork reports whether any currently running proxy
// task still lists networkID, used to poll until the detach above has
// taken observable effect before the network is deleted.
func (a *Adapter) ProxyTasksReferenceNetwork(ctx context.Context, networkID string) (bool, error) {
	tasks, err := a.cli.TaskList(ctx, swarm.TaskListOptions{
		Filters: filters.NewArgs(filters.Arg("service", a.proxyService), filters.Arg("desired-state", "running")),
	})
	if err != nil {
		return false, recordErr("proxy.list_tasks", err)
	}
	for _, t := range tasks {
		for _, n := range t.Spec.Networks {
			if n.Target == networkID {
				return true, nil
			}
		}
	}
	return false, nil
}

// EnsureVolume creates a `vol-{id}` volume if it does not exist yet.
func (a *Adapter) EnsureVolume(ctx context.Context, volumeID, serviceID, projectID string) (string, error) {
	defer timed("volume.ensure")()
	name := VolumeName(volumeID)

	_, err := a.cli.VolumeInspect(ctx, name)
	if err == nil {
		return name, nil
	}
	if !client.IsErrNotFound(err) {
		return "", recordErr("volume.ensure", err)
	}

	_, err = a.cli.VolumeCreate(ctx, dockervolume.CreateOptions{
		Name:   name,
		Driver: "local",
		Labels: Labels(projectID, map[string]string{LabelParent: serviceID}),
	})
	if err != nil {
		return "", recordErr("volume.create", err)
	}
	return name, nil
}

// RemoveVolume force-removes a volume by id, ignoring not-found.
func (a *Adapter) RemoveVolume(ctx context.Context, volumeID string) error {
	defer timed("volume.remove")()
	err := a.cli.VolumeRemove(ctx, VolumeName(volumeID), true)
	if err != nil && client.IsErrNotFound(err) {
		return nil
	}
	return recordErr("volume.remove", err)
}

// PullImage pulls imageRef using the given base64-encoded registry auth
// (may be empty for public images) and drains the pull response stream.
func (a *Adapter) PullImage(ctx context.Context, imageRef, registryAuth string) error {
	defer timed("image.pull")()

	rc, err := a.cli.ImagePull(ctx, imageRef, image.PullOptions{RegistryAuth: registryAuth})
	if err != nil {
		return recordErr("image.pull", err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return recordErr("image.pull", err)
	}
	return nil
}

// ServiceSpecInput carries everything CreateSwarmService needs to build a
// swarm.ServiceSpec; fields map directly onto spec §4.1 step 6 / §4.3.
type ServiceSpecInput struct {
	Name          string
	Image         string
	Command       []string
	Env           []string
	Mounts        []MountSpec
	EndpointPorts []EndpointPort
	NetworkID     string
	NetworkAliases []string
	Labels        map[string]string
}

// MountSpec is a single bind or volume mount on the service's container spec.
type MountSpec struct {
	Source   string
	Target   string
	ReadOnly bool
	Bind     bool // true for a host path, false for a named volume
}

// EndpointPort is one published, non-HTTP port.
type EndpointPort struct {
	PublishedPort uint32
	TargetPort    uint32
	Protocol      string // "tcp" or "udp"
	Host          bool
}

// EnsureService creates the named swarm service if it does not already
// exist. Idempotent per §4.2's CreateSwarmService contract: "if the named
// swarm service already exists, skip."
func (a *Adapter) EnsureService(ctx context.Context, in ServiceSpecInput) error {
	defer timed("service.ensure")()

	_, _, err := a.cli.ServiceInspectWithRaw(ctx, in.Name, swarm.ServiceInspectOptions{})
	if err == nil {
		log.WithComponent("swarm").Debug().Str("service", in.Name).Msg("service already exists, skipping create")
		return nil
	}
	if !client.IsErrNotFound(err) {
		return recordErr("service.ensure", err)
	}

	spec := buildServiceSpec(in)
	_, err = a.cli.ServiceCreate(ctx, spec, swarm.ServiceCreateOptions{})
	return recordErr("service.create", err)
}

func buildServiceSpec(in ServiceSpecInput) swarm.ServiceSpec {
	spec := swarm.ServiceSpec{
		Annotations: swarm.Annotations{
			Name:   in.Name,
			Labels: in.Labels,
		},
		TaskTemplate: swarm.TaskSpec{
			ContainerSpec: &swarm.ContainerSpec{
				Image:   in.Image,
				Command: in.Command,
				Env:     in.Env,
				Mounts:  toDockerMounts(in.Mounts),
				Labels:  in.Labels,
			},
			Networks: []swarm.NetworkAttachmentConfig{
				{Target: in.NetworkID, Aliases: in.NetworkAliases},
			},
			RestartPolicy: &swarm.RestartPolicy{
				Condition:   swarm.RestartPolicyConditionOnFailure,
				MaxAttempts: uint64Ptr(3),
				Delay:       durationPtr(5 * time.Second),
			},
			LogDriver: &swarm.Driver{Name: "json-file"},
		},
		Mode: swarm.ServiceMode{
			Replicated: &swarm.ReplicatedService{Replicas: uint64Ptr(1)},
		},
	}

	if len(in.EndpointPorts) > 0 {
		ports := make([]swarm.PortConfig, 0, len(in.EndpointPorts))
		for _, p := range in.EndpointPorts {
			mode := swarm.PortConfigPublishModeIngress
			if p.Host {
				mode = swarm.PortConfigPublishModeHost
			}
			proto := swarm.PortConfigProtocolTCP
			if p.Protocol == "udp" {
				proto = swarm.PortConfigProtocolUDP
			}
			ports = append(ports, swarm.PortConfig{
				Protocol:      proto,
				TargetPort:    p.TargetPort,
				PublishedPort: p.PublishedPort,
				PublishMode:   mode,
			})
		}
		spec.EndpointSpec = &swarm.EndpointSpec{Mode: swarm.ResolutionModeVIP, Ports: ports}
	}

	return spec
}

func toDockerMounts(ms []MountSpec) []mount.Mount {
	out := make([]mount.Mount, 0, len(ms))
	for _, m := range ms {
		t := mount.TypeVolume
		if m.Bind {
			t = mount.TypeBind
		}
		out = append(out, mount.Mount{Type: t, Source: m.Source, Target: m.Target, ReadOnly: m.ReadOnly})
	}
	return out
}

func uint64Ptr(v uint64) *uint64 { return &v }
func durationPtr(d time.Duration) *time.Duration { return &d }

// ScaleService updates the service's replica count to n.
func (a *Adapter) ScaleService(ctx context.Context, name string, replicas uint64) error {
	defer timed("service.scale")()

	svc, _, err := a.cli.ServiceInspectWithRaw(ctx, name, swarm.ServiceInspectOptions{})
	if err != nil {
		if client.IsErrNotFound(err) {
			return fmt.Errorf("swarm service %q not found: %w", name, errNotFound)
		}
		return recordErr("service.scale", err)
	}
	spec := svc.Spec
	if spec.Mode.Replicated == nil {
		spec.Mode.Replicated = &swarm.ReplicatedService{}
	}
	spec.Mode.Replicated.Replicas = &replicas

	_, err = a.cli.ServiceUpdate(ctx, svc.ID, svc.Version, spec, swarm.ServiceUpdateOptions{})
	return recordErr("service.scale", err)
}

// RemoveService removes the named service. Not-found is treated as success
// (the activity is idempotent per §4.2's RemoveOldVolumes-style contracts).
func (a *Adapter) RemoveService(ctx context.Context, name string) error {
	defer timed("service.remove")()
	err := a.cli.ServiceRemove(ctx, name)
	if err != nil && client.IsErrNotFound(err) {
		return nil
	}
	return recordErr("service.remove", err)
}

// Tasks lists the tasks for the named service, optionally filtered to a
// single deployment hash via the orca-deployment-hash label.
func (a *Adapter) Tasks(ctx context.Context, serviceName, deploymentHash string) ([]swarm.Task, error) {
	defer timed("service.tasks")()
	args := filters.NewArgs(filters.Arg("service", serviceName))
	if deploymentHash != "" {
		args.Add("label", fmt.Sprintf("%s=%s", LabelDeploymentHash, deploymentHash))
	}
	tasks, err := a.cli.TaskList(ctx, swarm.TaskListOptions{Filters: args})
	if err != nil {
		return nil, recordErr("service.tasks", err)
	}
	return tasks, nil
}

// LatestTask returns the task with the largest Version.Index among the
// given tasks, the tie-break rule the evaluator relies on. Returns false
// if the slice is empty.
func LatestTask(tasks []swarm.Task) (swarm.Task, bool) {
	if len(tasks) == 0 {
		return swarm.Task{}, false
	}
	latest := tasks[0]
	for _, t := range tasks[1:] {
		if t.Version.Index > latest.Version.Index {
			latest = t
		}
	}
	return latest, true
}

// ExecInTask runs cmd inside the container backing a running task and
// returns its exit code and combined output, for the COMMAND probe type.
func (a *Adapter) ExecInTask(ctx context.Context, containerID string, cmd []string) (int, string, error) {
	defer timed("exec.run")()

	execCreate, err := a.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return -1, "", recordErr("exec.create", err)
	}

	attach, err := a.cli.ContainerExecAttach(ctx, execCreate.ID, container.ExecAttachOptions{})
	if err != nil {
		return -1, "", recordErr("exec.attach", err)
	}
	defer attach.Close()

	output, err := io.ReadAll(attach.Reader)
	if err != nil {
		return -1, "", recordErr("exec.read", err)
	}

	inspect, err := a.cli.ContainerExecInspect(ctx, execCreate.ID)
	if err != nil {
		return -1, "", recordErr("exec.inspect", err)
	}
	return inspect.ExitCode, string(output), nil
}

var errNotFound = fmt.Errorf("resource not found")
