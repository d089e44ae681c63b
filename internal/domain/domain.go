// Package domain defines the deployment engine's entities: the tenant,
// environment, service and deployment rows the workflows and activities
// read and write.
package domain

import "time"

// Project is a tenant boundary owning an overlay network and environments.
type Project struct {
	ID        string
	Name      string
	Labels    map[string]string
	CreatedAt time.Time
}

// Environment is a named slice within a project (e.g. "production"). Owns
// its own overlay network.
type Environment struct {
	ID        string
	ProjectID string
	Name      string
	CreatedAt time.Time
}

// Service is the desired-state description of a workload.
type Service struct {
	ID              string
	EnvironmentID   string
	ProjectID       string
	Name            string
	NetworkAlias    string
	Image           string
	Command         string
	EnvVariables    map[string]string
	Volumes         []Volume
	Ports           []PortSpec
	URLs            []URL
	Healthcheck     *HealthcheckSpec
	ResourceLimits  *ResourceLimits
	CredentialsName string // registry credentials, if the image is private
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PortSpec is a non-HTTP port the swarm service should publish via its
// EndpointSpec. HTTP ports are fronted by the proxy and never published
// directly.
type PortSpec struct {
	PublishedPort int
	ForwardedPort int
	Host          bool // true selects PublishModeHost, else PublishModeIngress
}

// ResourceLimits mirrors the orchestrator's CPU/memory limit fields.
type ResourceLimits struct {
	CPUs     float64 // fractional cores
	MemoryMB int64
}

// HealthcheckSpec is the service's optional custom probe, consulted by the
// healthcheck evaluator only once the mapped swarm status is HEALTHY.
type HealthcheckSpec struct {
	Type             ProbeType
	Value            string // command string, or URL path for PATH probes
	TimeoutSeconds   int
	IntervalSeconds  int
	AssociatedPort   int
}

// ProbeType enumerates the two custom probe kinds the evaluator supports.
type ProbeType string

const (
	ProbeCommand ProbeType = "COMMAND"
	ProbePath    ProbeType = "PATH"
)

// Slot is one of two DNS-addressable upstream pools per service.
type Slot string

const (
	SlotBlue  Slot = "BLUE"
	SlotGreen Slot = "GREEN"
)

// Other returns the slot this one should alternate to on the next deploy.
func (s Slot) Other() Slot {
	if s == SlotBlue {
		return SlotGreen
	}
	return SlotBlue
}

// DeploymentStatus is the deployment lifecycle state, per the state diagram:
//
//	QUEUED -> PREPARING -> STARTING -> RESTARTING -> HEALTHY -> REMOVED
//	                                              -> UNHEALTHY -> FAILED
//	QUEUED -> CANCELLED (before PREPARING)
//	HEALTHY -> SLEEPING <-> HEALTHY (toggle)
type DeploymentStatus string

const (
	StatusQueued     DeploymentStatus = "QUEUED"
	StatusPreparing  DeploymentStatus = "PREPARING"
	StatusStarting   DeploymentStatus = "STARTING"
	StatusRestarting DeploymentStatus = "RESTARTING"
	StatusHealthy    DeploymentStatus = "HEALTHY"
	StatusUnhealthy  DeploymentStatus = "UNHEALTHY"
	StatusFailed     DeploymentStatus = "FAILED"
	StatusRemoved    DeploymentStatus = "REMOVED"
	StatusCancelled  DeploymentStatus = "CANCELLED"
	StatusSleeping   DeploymentStatus = "SLEEPING"
)

// Terminal reports whether the status is one from which the deployment
// never transitions again.
func (s DeploymentStatus) Terminal() bool {
	switch s {
	case StatusRemoved, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Deployment is an immutable snapshot of a service at enqueue time.
type Deployment struct {
	Hash                string
	ServiceID           string
	ProjectID           string
	EnvironmentID       string
	Service             Service // snapshot, not a live reference
	Slot                Slot
	QueuedAt            time.Time
	StartedAt           *time.Time
	FinishedAt          *time.Time
	URL                 string // optional inbound deployment-only URL
	Status              DeploymentStatus
	StatusReason        string
	IsCurrentProduction bool
	Changes             []DeploymentChange
	CommitSHA           string
	CommitMessage       string
	CommitAuthorName    string
	BuildStartedAt      *time.Time
	BuildFinishedAt     *time.Time
	IgnoreBuildCache    bool
}

// ChangeType enumerates the kinds of DeploymentChange.
type ChangeType string

const (
	ChangeAdd    ChangeType = "ADD"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// DeploymentChange records a single diff between the last applied
// deployment and this one, for side-effectful diffing (which volumes to
// delete, which URLs to unexpose).
type DeploymentChange struct {
	Field    string
	Type     ChangeType
	ItemID   string
	NewValue any
	OldValue any
}

// VolumeMode enumerates the two mount modes a Volume supports.
type VolumeMode string

const (
	VolumeRW VolumeMode = "RW"
	VolumeRO VolumeMode = "RO"
)

// Volume is a managed or host-backed mount point. A Volume with HostPath
// set has no managed orchestrator resource (no vol-{id} is created).
type Volume struct {
	ID            string
	ContainerPath string
	HostPath      string
	Mode          VolumeMode
}

// Managed reports whether this volume needs a `vol-{id}` orchestrator
// resource created/removed, as opposed to a bare host bind mount.
func (v Volume) Managed() bool {
	return v.HostPath == ""
}

// URL is an HTTP ingress rule for a service.
type URL struct {
	Domain              string
	BasePath            string
	StripPrefix         bool
	RedirectTo          string // if set, this URL is a redirect, not a proxy target
	RedirectPermanent   bool
	AssociatedPort      int
}

// ArchivedProject is a point-in-time snapshot captured when a project is
// archived, so RemoveProjectResources does not depend on already-deleted
// live rows.
type ArchivedProject struct {
	ID        string
	NetworkID string
	Services  []ArchivedService
}

// ArchivedService is a point-in-time snapshot captured when a service (or
// its owning project/environment) is archived.
type ArchivedService struct {
	ID            string
	ProjectID     string
	EnvironmentID string
	URLs          []URL
	DeploymentURLs []string
	VolumeIDs     []string
	DeploymentHashes []string
}
