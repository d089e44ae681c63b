// Package activity implements the idempotent, retryable side-effectful
// steps that internal/workflow composes: every method on
// DeploymentActivities maps one-to-one onto the "Deployment Activities"
// table the specification lists, grounded on
// original_source/backend/zane_api/temporal/activities.py's method-per-step
// DockerSwarmActivities class and on
// other_examples/e41bf1fa_cycle-start-hosting's Params/Result struct
// idiom for Temporal activity registration.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/orca/internal/domain"
	"github.com/cuemby/orca/internal/healthcheck"
	"github.com/cuemby/orca/internal/proxy"
	"github.com/cuemby/orca/internal/store"
	orcaswarm "github.com/cuemby/orca/internal/swarm"
	"github.com/cuemby/orca/pkg/log"
	"github.com/cuemby/orca/pkg/metrics"
	"github.com/docker/docker/api/types/swarm"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/temporal"
)

// DeploymentActivities bundles the dependencies every activity method
// needs. Constructed once per activity worker process and registered with
// the Temporal worker by value, not held as package-level globals, per the
// Design Note in the specification's open questions.
type DeploymentActivities struct {
	Swarm          *orcaswarm.Adapter
	Proxy          *proxy.Client
	Store          store.Store
	InternalDomain string
	ProxyAuthToken string
	HCWait         time.Duration
}

func NewDeploymentActivities(swarmAdapter *orcaswarm.Adapter, proxyClient *proxy.Client, st store.Store, internalDomain, proxyAuthToken string, hcWait time.Duration) *DeploymentActivities {
	return &DeploymentActivities{
		Swarm:          swarmAdapter,
		Proxy:          proxyClient,
		Store:          st,
		InternalDomain: internalDomain,
		ProxyAuthToken: proxyAuthToken,
		HCWait:         hcWait,
	}
}

func (a *DeploymentActivities) logger() zerolog.Logger {
	return log.WithComponent("activity")
}

// --- Project network lifecycle ---

type CreateProjectNetworkParams struct {
	ProjectID string
}

type CreateProjectNetworkResult struct {
	NetworkID string
}

// CreateProjectNetwork is a no-op if a network of that name already exists;
// its labels are not compared (EnsureNetwork's lookup-by-name-then-create).
func (a *DeploymentActivities) CreateProjectNetwork(ctx context.Context, p CreateProjectNetworkParams) (CreateProjectNetworkResult, error) {
	id, err := a.Swarm.EnsureNetwork(ctx, orcaswarm.ProjectNetworkName(p.ProjectID), p.ProjectID)
	if err != nil {
		return CreateProjectNetworkResult{}, fmt.Errorf("create project network: %w", err)
	}
	return CreateProjectNetworkResult{NetworkID: id}, nil
}

type AttachNetworkToProxyParams struct {
	NetworkID string
}

func (a *DeploymentActivities) AttachNetworkToProxy(ctx context.Context, p AttachNetworkToProxyParams) error {
	return a.Swarm.AttachNetworkToProxy(ctx, p.NetworkID)
}

type DetachNetworkFromProxyParams struct {
	ArchivedProject domain.ArchivedProject
}

// DetachNetworkFromProxy detaches the network and polls until no running
// proxy task still references it, per the adapter's ProxyTasksReferenceNetwork
// contract.
func (a *DeploymentActivities) DetachNetworkFromProxy(ctx context.Context, p DetachNetworkFromProxyParams) error {
	if err := a.Swarm.DetachNetworkFromProxy(ctx, p.ArchivedProject.NetworkID); err != nil {
		return err
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		referenced, err := a.Swarm.ProxyTasksReferenceNetwork(ctx, p.ArchivedProject.NetworkID)
		if err != nil {
			return err
		}
		if !referenced {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return fmt.Errorf("proxy tasks still reference network %s after detach", p.ArchivedProject.NetworkID)
}

type RemoveProjectNetworkParams struct {
	ArchivedProject domain.ArchivedProject
}

func (a *DeploymentActivities) RemoveProjectNetwork(ctx context.Context, p RemoveProjectNetworkParams) error {
	return a.Swarm.RemoveNetwork(ctx, orcaswarm.ProjectNetworkName(p.ArchivedProject.ID))
}

// GetArchivedProjectServices returns the archived service snapshots for a
// project, read during RemoveProjectResources before any live rows may
// still exist.
type GetArchivedProjectServicesParams struct {
	ArchivedProject domain.ArchivedProject
}

func (a *DeploymentActivities) GetArchivedProjectServices(ctx context.Context, p GetArchivedProjectServicesParams) ([]domain.ArchivedService, error) {
	return a.Store.ListArchivedServices(p.ArchivedProject.ID)
}

// --- Deployment lifecycle ---

type PrepareDeploymentParams struct {
	DeploymentHash string
}

// PrepareDeployment transitions QUEUED -> PREPARING. Non-retryable if the
// deployment row is missing, and a no-op (not an error) if it has already
// left QUEUED, since a workflow retry must not regress a further-along
// deployment back to PREPARING.
func (a *DeploymentActivities) PrepareDeployment(ctx context.Context, p PrepareDeploymentParams) error {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return temporal.NewNonRetryableApplicationError(fmt.Sprintf("prepare deployment: %v", err), "DeploymentNotFound", err)
	}
	if d.Status != domain.StatusQueued {
		return nil
	}
	d.Status = domain.StatusPreparing
	now := time.Now()
	d.StartedAt = &now
	return a.Store.UpdateDeployment(d)
}

type GetPreviousProductionDeploymentParams struct {
	DeploymentHash string
}

// GetPreviousProductionDeployment returns the most recently queued earlier
// deployment of the same service with a different hash, whatever its
// production flag, or nil if there is none.
func (a *DeploymentActivities) GetPreviousProductionDeployment(ctx context.Context, p GetPreviousProductionDeploymentParams) (*domain.Deployment, error) {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return nil, fmt.Errorf("get previous production deployment: %w", err)
	}
	return a.Store.GetPreviousProductionDeployment(d.ServiceID, d.Hash, d.QueuedAt.Unix())
}

type GetOldestQueuedDeploymentParams struct {
	ServiceID      string
	ExcludeHash    string
}

// GetOldestQueuedDeployment backs queue_next_deployment: it returns the
// oldest other QUEUED deployment for the service so the workflow can
// continue_as_new into it, draining the per-service queue one deployment
// at a time.
func (a *DeploymentActivities) GetOldestQueuedDeployment(ctx context.Context, p GetOldestQueuedDeploymentParams) (*domain.Deployment, error) {
	return a.Store.GetOldestQueuedDeployment(p.ServiceID, p.ExcludeHash)
}

type CreateVolumesParams struct {
	DeploymentHash string
}

// CreateVolumes ensures every managed (non-host-path) volume in the
// deployment's service snapshot exists.
func (a *DeploymentActivities) CreateVolumes(ctx context.Context, p CreateVolumesParams) error {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return fmt.Errorf("create volumes: %w", err)
	}
	for _, v := range d.Service.Volumes {
		if !v.Managed() {
			continue
		}
		if _, err := a.Swarm.EnsureVolume(ctx, v.ID, d.ServiceID, d.ProjectID); err != nil {
			return fmt.Errorf("create volume %s: %w", v.ID, err)
		}
	}
	return nil
}

type CreateSwarmServiceParams struct {
	DeploymentHash string
}

// CreateSwarmService builds and creates `srv-{project}-{service}-{hash}`
// exactly as specified in §4.3, idempotent via the adapter's
// inspect-then-create EnsureService.
func (a *DeploymentActivities) CreateSwarmService(ctx context.Context, p CreateSwarmServiceParams) error {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return fmt.Errorf("create swarm service: %w", err)
	}
	svc := d.Service

	if err := a.Swarm.PullImage(ctx, svc.Image, ""); err != nil {
		return fmt.Errorf("pull image %s: %w", svc.Image, err)
	}

	mounts := make([]orcaswarm.MountSpec, 0, len(svc.Volumes))
	for _, v := range svc.Volumes {
		mounts = append(mounts, orcaswarm.MountSpec{
			Source:   mountSource(v),
			Target:   v.ContainerPath,
			ReadOnly: v.Mode == domain.VolumeRO,
			Bind:     !v.Managed(),
		})
	}

	ports := make([]orcaswarm.EndpointPort, 0, len(svc.Ports))
	for _, p := range svc.Ports {
		ports = append(ports, orcaswarm.EndpointPort{
			PublishedPort: uint32(p.PublishedPort),
			TargetPort:    uint32(p.ForwardedPort),
			Protocol:      "tcp",
			Host:          p.Host,
		})
	}

	name := orcaswarm.ServiceName(d.ProjectID, d.ServiceID, d.Hash)
	networkName := orcaswarm.EnvironmentNetworkName(d.ProjectID, d.EnvironmentID)
	networkID, err := a.Swarm.EnsureNetwork(ctx, networkName, d.ProjectID)
	if err != nil {
		return fmt.Errorf("ensure environment network: %w", err)
	}

	envVars := make([]string, 0, len(svc.EnvVariables))
	for k, v := range svc.EnvVariables {
		envVars = append(envVars, fmt.Sprintf("%s=%s", k, v))
	}

	labels := orcaswarm.Labels(d.ProjectID, map[string]string{
		orcaswarm.LabelParent:         d.ServiceID,
		orcaswarm.LabelDeploymentHash: d.Hash,
		orcaswarm.LabelService:        d.ServiceID,
	})

	return a.Swarm.EnsureService(ctx, orcaswarm.ServiceSpecInput{
		Name:           name,
		Image:          svc.Image,
		Command:        commandParts(svc.Command),
		Env:            envVars,
		Mounts:         mounts,
		EndpointPorts:  ports,
		NetworkID:      networkID,
		NetworkAliases: []string{fmt.Sprintf("%s.%s.%s", svc.NetworkAlias, strings.ToLower(string(d.Slot)), a.InternalDomain)},
		Labels:         labels,
	})
}

func mountSource(v domain.Volume) string {
	if !v.Managed() {
		return v.HostPath
	}
	return orcaswarm.VolumeName(v.ID)
}

func commandParts(cmd string) []string {
	if cmd == "" {
		return nil
	}
	return []string{"sh", "-c", cmd}
}

// SimpleDeploymentRef identifies a deployment's swarm service without
// carrying the full snapshot, mirroring the original's
// SimpleDeploymentDetails used for scale/remove activities that don't need
// the service body.
type SimpleDeploymentRef struct {
	ProjectID      string
	ServiceID      string
	DeploymentHash string
}

func (a *DeploymentActivities) serviceName(ref SimpleDeploymentRef) string {
	return orcaswarm.ServiceName(ref.ProjectID, ref.ServiceID, ref.DeploymentHash)
}

type ScaleDownServiceDeploymentParams struct {
	Deployment SimpleDeploymentRef
}

// ScaleDownServiceDeployment scales the previous production deployment to
// zero replicas and waits until none of its tasks is in a non-terminal
// state before returning (at most 30s), so
// callers that create a conflicting resource (a host-published port, a
// managed volume) right after never race the old tasks' teardown.
func (a *DeploymentActivities) ScaleDownServiceDeployment(ctx context.Context, p ScaleDownServiceDeploymentParams) error {
	name := a.serviceName(p.Deployment)
	if err := a.Swarm.ScaleService(ctx, name, 0); err != nil {
		return err
	}

	wait := a.HCWait
	if wait <= 0 {
		wait = 3 * time.Second
	}
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		tasks, err := a.Swarm.Tasks(ctx, name, p.Deployment.DeploymentHash)
		if err != nil {
			return err
		}
		if !anyTaskRunning(tasks) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("service %s still has running tasks after scale down", name)
}

// anyTaskRunning reports whether any task in the list is still running or
// transitioning toward running, as opposed to shut down or otherwise
// terminal.
func anyTaskRunning(tasks []swarm.Task) bool {
	for _, t := range tasks {
		switch t.Status.State {
		case swarm.TaskStateShutdown, swarm.TaskStateComplete, swarm.TaskStateRemove,
			swarm.TaskStateFailed, swarm.TaskStateRejected, swarm.TaskStateOrphaned:
			continue
		default:
			return true
		}
	}
	return false
}

type ScaleBackServiceDeploymentParams struct {
	Deployment SimpleDeploymentRef
}

// ScaleBackServiceDeployment restores a previous production deployment to
// one replica, used on the UNHEALTHY rollback path.
func (a *DeploymentActivities) ScaleBackServiceDeployment(ctx context.Context, p ScaleBackServiceDeploymentParams) error {
	return a.Swarm.ScaleService(ctx, a.serviceName(p.Deployment), 1)
}

type ScaleDownAndRemoveParams struct {
	Deployment SimpleDeploymentRef
}

// ScaleDownAndRemove scales to zero then removes the swarm service
// entirely, used both on the HEALTHY cleanup path (removing the deposed
// previous production deployment) and on the UNHEALTHY path (removing the
// failed current deployment).
func (a *DeploymentActivities) ScaleDownAndRemove(ctx context.Context, p ScaleDownAndRemoveParams) error {
	name := a.serviceName(p.Deployment)
	if err := a.Swarm.ScaleService(ctx, name, 0); err != nil {
		return err
	}
	return a.Swarm.RemoveService(ctx, name)
}

type RemoveOldVolumesParams struct {
	DeploymentHash string
}

// RemoveOldVolumes removes every volume the deployment's Changes list
// marks DELETE, ignoring not-found.
func (a *DeploymentActivities) RemoveOldVolumes(ctx context.Context, p RemoveOldVolumesParams) error {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return fmt.Errorf("remove old volumes: %w", err)
	}
	for _, c := range d.Changes {
		if c.Field != "volumes" || c.Type != domain.ChangeDelete {
			continue
		}
		if err := a.Swarm.RemoveVolume(ctx, c.ItemID); err != nil {
			return fmt.Errorf("remove volume %s: %w", c.ItemID, err)
		}
	}
	return nil
}

// CleanupDockerServiceResources removes the compute resources
// (service+volumes) tied to a single archived/removed service, used by
// ArchiveServiceWorkflow and RemoveProjectResourcesWorkflow.
type CleanupDockerServiceResourcesParams struct {
	ArchivedService domain.ArchivedService
}

func (a *DeploymentActivities) CleanupDockerServiceResources(ctx context.Context, p CleanupDockerServiceResourcesParams) error {
	for _, hash := range p.ArchivedService.DeploymentHashes {
		name := orcaswarm.ServiceName(p.ArchivedService.ProjectID, p.ArchivedService.ID, hash)
		if err := a.Swarm.RemoveService(ctx, name); err != nil {
			return fmt.Errorf("remove service for hash %s: %w", hash, err)
		}
	}
	for _, volumeID := range p.ArchivedService.VolumeIDs {
		if err := a.Swarm.RemoveVolume(ctx, volumeID); err != nil {
			return fmt.Errorf("remove volume %s: %w", volumeID, err)
		}
	}
	return nil
}

// CleanupPreviousProductionDeployment marks the previous production
// deployment REMOVED in the store once the rollout is confirmed healthy.
// It touches no Swarm or proxy resource: the previous service, its volumes
// and its routes are removed by ScaleDownAndRemove, RemoveOldVolumes and
// RemoveOldURLs.
type CleanupPreviousProductionDeploymentParams struct {
	Deployment domain.Deployment
}

func (a *DeploymentActivities) CleanupPreviousProductionDeployment(ctx context.Context, p CleanupPreviousProductionDeploymentParams) error {
	p.Deployment.Status = domain.StatusRemoved
	return a.Store.UpdateDeployment(&p.Deployment)
}

// --- HTTP exposure ---

type ExposeDeploymentURLParams struct {
	DeploymentHash string
	AuthEndpoint   string
}

// ExposeDeploymentURL creates the deployment-only preview URL route, iff
// the deployment snapshot declares one.
func (a *DeploymentActivities) ExposeDeploymentURL(ctx context.Context, p ExposeDeploymentURLParams) error {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return fmt.Errorf("expose deployment url: %w", err)
	}
	if d.URL == "" {
		return nil
	}
	port := 80
	if len(d.Service.Ports) > 0 {
		port = d.Service.Ports[0].ForwardedPort
	}
	name := orcaswarm.ServiceName(d.ProjectID, d.ServiceID, d.Hash)
	route := proxy.BuildDeploymentRoute(d.URL, p.AuthEndpoint, name, port)
	return a.Proxy.UpsertRoute(ctx, d.URL, route)
}

type ExposeServiceURLsParams struct {
	DeploymentHash string
}

// ExposeServiceURLs installs or refreshes every production URL route for
// the service, pointing both blue and green upstreams per §4.4's
// BuildServiceRoute.
func (a *DeploymentActivities) ExposeServiceURLs(ctx context.Context, p ExposeServiceURLsParams) error {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return fmt.Errorf("expose service urls: %w", err)
	}

	hashes := proxy.BlueGreenHashes{CurrentSlot: d.Slot, CurrentHash: d.Hash}
	if prev, err := a.Store.GetPreviousProductionDeployment(d.ServiceID, d.Hash, d.QueuedAt.Unix()); err == nil && prev != nil {
		hashes.PreviousSlot = prev.Slot
		hashes.PreviousHash = prev.Hash
	}

	for _, u := range d.Service.URLs {
		route := proxy.BuildServiceRoute(u, d.ServiceID, a.InternalDomain, d.Service.NetworkAlias, hashes)
		if err := a.Proxy.UpsertRoute(ctx, u.Domain, route); err != nil {
			return fmt.Errorf("expose url %s%s: %w", u.Domain, u.BasePath, err)
		}
	}
	return nil
}

type RemoveOldURLsParams struct {
	DeploymentHash string
}

// RemoveOldURLs deletes the route for every URL the new snapshot's
// Changes list marks DELETE.
func (a *DeploymentActivities) RemoveOldURLs(ctx context.Context, p RemoveOldURLsParams) error {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return fmt.Errorf("remove old urls: %w", err)
	}
	for _, c := range d.Changes {
		if c.Field != "urls" || c.Type != domain.ChangeDelete {
			continue
		}
		// OldValue is an `any`; after a store round trip it holds a decoded
		// JSON object rather than a domain.URL, so re-decode it.
		raw, err := json.Marshal(c.OldValue)
		if err != nil {
			continue
		}
		var old domain.URL
		if err := json.Unmarshal(raw, &old); err != nil || old.Domain == "" {
			continue
		}
		routeID := proxy.URLRouteID(old.Domain, old.BasePath)
		if err := a.Proxy.RemoveRoute(ctx, old.Domain, routeID); err != nil {
			return fmt.Errorf("remove url route %s: %w", routeID, err)
		}
	}
	return nil
}

type UnexposeFromHTTPParams struct {
	ArchivedService domain.ArchivedService
}

// UnexposeFromHTTP deletes every route for the archived service's URLs and
// deployment URLs; RemoveRoute deletes the whole domain config once its
// route list becomes empty.
func (a *DeploymentActivities) UnexposeFromHTTP(ctx context.Context, p UnexposeFromHTTPParams) error {
	for _, u := range p.ArchivedService.URLs {
		routeID := proxy.URLRouteID(u.Domain, u.BasePath)
		if err := a.Proxy.RemoveRoute(ctx, u.Domain, routeID); err != nil {
			return fmt.Errorf("unexpose url %s: %w", routeID, err)
		}
	}
	for _, depURL := range p.ArchivedService.DeploymentURLs {
		if err := a.Proxy.RemoveDeploymentURL(ctx, depURL); err != nil {
			return fmt.Errorf("unexpose deployment url %s: %w", depURL, err)
		}
	}
	return nil
}

// --- Healthcheck ---

type RunDeploymentHealthcheckParams struct {
	DeploymentHash   string
	OverallTimeout   time.Duration
}

type RunDeploymentHealthcheckResult struct {
	Status domain.DeploymentStatus
	Reason string
}

// RunDeploymentHealthcheck runs the bounded evaluator against the
// deployment's swarm service and optional custom probe.
func (a *DeploymentActivities) RunDeploymentHealthcheck(ctx context.Context, p RunDeploymentHealthcheckParams) (RunDeploymentHealthcheckResult, error) {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return RunDeploymentHealthcheckResult{}, fmt.Errorf("run deployment healthcheck: %w", err)
	}

	var probe healthcheck.ProbeRunner
	if hc := d.Service.Healthcheck; hc != nil {
		switch hc.Type {
		case domain.ProbePath:
			probe = healthcheck.NewHTTPProbe("http", hc.Value)
		case domain.ProbeCommand:
			probe = healthcheck.NewCommandProbe(a.Swarm, commandParts(hc.Value))
		}
	}

	evaluator := healthcheck.NewEvaluator(a.Swarm, probe)
	target := healthcheck.Target{
		ServiceName:    orcaswarm.ServiceName(d.ProjectID, d.ServiceID, d.Hash),
		DeploymentHash: d.Hash,
		DeploymentURL:  d.URL,
		AuthToken:      a.ProxyAuthToken,
	}

	timeout := p.OverallTimeout
	if timeout <= 0 {
		timeout = healthcheck.DefaultHealthcheckTimeout
	}
	result := evaluator.Evaluate(ctx, target, healthcheck.ModeBounded, timeout)
	metrics.DeploymentsTotal.WithLabelValues(string(result.Status)).Inc()
	return RunDeploymentHealthcheckResult{Status: result.Status, Reason: result.Reason}, nil
}

// RunMonitorHealthcheck runs the one-shot evaluator for the recurring
// Monitor Schedule, re-using the same Evaluator with ModeOneshot.
type RunMonitorHealthcheckParams struct {
	DeploymentHash string
}

func (a *DeploymentActivities) RunMonitorHealthcheck(ctx context.Context, p RunMonitorHealthcheckParams) (RunDeploymentHealthcheckResult, error) {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return RunDeploymentHealthcheckResult{}, fmt.Errorf("run monitor healthcheck: %w", err)
	}

	var probe healthcheck.ProbeRunner
	if hc := d.Service.Healthcheck; hc != nil {
		switch hc.Type {
		case domain.ProbePath:
			probe = healthcheck.NewHTTPProbe("http", hc.Value)
		case domain.ProbeCommand:
			probe = healthcheck.NewCommandProbe(a.Swarm, commandParts(hc.Value))
		}
	}

	evaluator := healthcheck.NewEvaluator(a.Swarm, probe)
	target := healthcheck.Target{
		ServiceName:    orcaswarm.ServiceName(d.ProjectID, d.ServiceID, d.Hash),
		DeploymentHash: d.Hash,
		DeploymentURL:  d.URL,
		AuthToken:      a.ProxyAuthToken,
		PreviouslySeen: true,
	}
	result := evaluator.Evaluate(ctx, target, healthcheck.ModeOneshot, 0)

	if result.Status != d.Status {
		d.Status = result.Status
		d.StatusReason = result.Reason
		if err := a.Store.UpdateDeployment(d); err != nil {
			return RunDeploymentHealthcheckResult{}, fmt.Errorf("persist monitor status: %w", err)
		}
	}
	return RunDeploymentHealthcheckResult{Status: result.Status, Reason: result.Reason}, nil
}

// CreateDeploymentHealthcheckSchedule is a placeholder activity matching
// the original's create_deployment_healthcheck_schedule. It only logs a
// debug line; no Temporal Schedule for MonitorDeploymentWorkflow is created
// anywhere in this module.
type CreateDeploymentHealthcheckScheduleParams struct {
	DeploymentHash string
}

func (a *DeploymentActivities) CreateDeploymentHealthcheckSchedule(ctx context.Context, p CreateDeploymentHealthcheckScheduleParams) error {
	a.logger().Debug().Str("deployment", p.DeploymentHash).Msg("healthcheck monitor schedule requested")
	return nil
}

// --- Finalize ---

type FinishAndSaveParams struct {
	DeploymentHash string
	Status         domain.DeploymentStatus
	Reason         string
}

// FinishAndSave atomically writes the final status — collapsing any
// non-HEALTHY healthcheck outcome to FAILED, per the original's
// finish_and_save_deployment — and flips IsCurrentProduction when the
// deployment is HEALTHY or it is the service's only deployment, so a
// service is never left with zero current-production rows.
func (a *DeploymentActivities) FinishAndSave(ctx context.Context, p FinishAndSaveParams) (domain.DeploymentStatus, error) {
	d, err := a.Store.GetDeployment(p.DeploymentHash)
	if err != nil {
		return "", fmt.Errorf("finish and save: %w", err)
	}

	status := p.Status
	if status != domain.StatusHealthy {
		status = domain.StatusFailed
	}
	d.Status = status
	d.StatusReason = p.Reason
	now := time.Now()
	d.FinishedAt = &now

	siblings, err := a.Store.ListDeploymentsByService(d.ServiceID)
	if err != nil {
		return "", fmt.Errorf("finish and save: list sibling deployments: %w", err)
	}
	onlyDeployment := len(siblings) <= 1

	if status == domain.StatusHealthy || onlyDeployment {
		if prev, err := a.Store.GetPreviousProductionDeployment(d.ServiceID, d.Hash, d.QueuedAt.Unix()); err == nil && prev != nil {
			prev.IsCurrentProduction = false
			if err := a.Store.UpdateDeployment(prev); err != nil {
				return "", fmt.Errorf("demote previous production deployment: %w", err)
			}
		}
		d.IsCurrentProduction = true
	}

	if err := a.Store.UpdateDeployment(d); err != nil {
		return "", fmt.Errorf("finish and save: %w", err)
	}
	return d.Status, nil
}
