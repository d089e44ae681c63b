// Package store defines the persistence interface the workflows and
// activities read and write, and a bbolt-backed implementation.
//
// Grounded on cuemby-warren/pkg/storage: the same narrow per-entity
// interface shape and the same bucket-per-entity / JSON-marshaled record
// idiom, retargeted from Warren's cluster entities (Node, Container, ...)
// to Orca's deployment entities.
package store

import "github.com/cuemby/orca/internal/domain"

// Store is the persistence interface consumed by internal/activity. Only
// the fields named in §6 of the specification are read or written; the
// full relational schema lives outside this module's scope.
type Store interface {
	CreateProject(p *domain.Project) error
	GetProject(id string) (*domain.Project, error)
	DeleteProject(id string) error

	CreateEnvironment(e *domain.Environment) error
	GetEnvironment(id string) (*domain.Environment, error)
	ListEnvironmentsByProject(projectID string) ([]*domain.Environment, error)

	CreateService(s *domain.Service) error
	GetService(id string) (*domain.Service, error)
	UpdateService(s *domain.Service) error
	DeleteService(id string) error
	// ListAllServices returns every service, for the metrics collector.
	ListAllServices() ([]*domain.Service, error)

	CreateDeployment(d *domain.Deployment) error
	GetDeployment(hash string) (*domain.Deployment, error)
	UpdateDeployment(d *domain.Deployment) error
	ListDeploymentsByService(serviceID string) ([]*domain.Deployment, error)
	// ListAllDeployments returns every deployment, for the metrics collector.
	ListAllDeployments() ([]*domain.Deployment, error)

	// GetPreviousProductionDeployment returns the most recent deployment of
	// the same service with QueuedAt before current's and a different hash,
	// or nil if none exists.
	GetPreviousProductionDeployment(serviceID, currentHash string, queuedBefore int64) (*domain.Deployment, error)

	// GetOldestQueuedDeployment returns the oldest other QUEUED deployment
	// for a service, or nil if the queue is empty. Used to drain the queue
	// at the end of DeployService.
	GetOldestQueuedDeployment(serviceID, excludeHash string) (*domain.Deployment, error)

	SaveArchivedProject(a *domain.ArchivedProject) error
	GetArchivedProject(id string) (*domain.ArchivedProject, error)
	ListArchivedServices(projectID string) ([]*domain.ArchivedService, error)

	SaveArchivedService(a *domain.ArchivedService) error
	GetArchivedService(id string) (*domain.ArchivedService, error)

	Close() error
}
