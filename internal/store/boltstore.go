package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/orca/internal/domain"
)

var (
	bucketProjects         = []byte("projects")
	bucketEnvironments     = []byte("environments")
	bucketServices         = []byte("services")
	bucketDeployments      = []byte("deployments")
	bucketArchivedProjects = []byte("archived_projects")
	bucketArchivedServices = []byte("archived_services")
)

// BoltStore implements Store on top of a single bbolt file, one bucket per
// entity and JSON-marshaled records keyed by entity ID.
//
// Grounded on cuemby-warren/pkg/storage/boltdb.go: same bucket-per-entity
// layout and db.Update/db.View/json.Marshal idiom, retargeted from Warren's
// cluster entities to Orca's deployment entities, with composite list/filter
// queries (GetPreviousProductionDeployment, GetOldestQueuedDeployment)
// implemented as a full-bucket scan, same as the teacher's
// ListContainersByService/ListContainersByNode helpers.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) orca.db under dataDir and ensures
// every bucket exists.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "orca.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketProjects,
			bucketEnvironments,
			bucketServices,
			bucketDeployments,
			bucketArchivedProjects,
			bucketArchivedServices,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func put(db *bolt.DB, bucket []byte, key string, v any) error {
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

func get[T any](db *bolt.DB, bucket []byte, key string) (*T, error) {
	var v T
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("not found: %s", key)
		}
		return json.Unmarshal(data, &v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func del(db *bolt.DB, bucket []byte, key string) error {
	return db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

func forEach[T any](db *bolt.DB, bucket []byte, fn func(T)) error {
	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.ForEach(func(k, v []byte) error {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			fn(item)
			return nil
		})
	})
}

// --- Project ---

func (s *BoltStore) CreateProject(p *domain.Project) error {
	return put(s.db, bucketProjects, p.ID, p)
}

func (s *BoltStore) GetProject(id string) (*domain.Project, error) {
	return get[domain.Project](s.db, bucketProjects, id)
}

func (s *BoltStore) DeleteProject(id string) error {
	return del(s.db, bucketProjects, id)
}

// --- Environment ---

func (s *BoltStore) CreateEnvironment(e *domain.Environment) error {
	return put(s.db, bucketEnvironments, e.ID, e)
}

func (s *BoltStore) GetEnvironment(id string) (*domain.Environment, error) {
	return get[domain.Environment](s.db, bucketEnvironments, id)
}

func (s *BoltStore) ListEnvironmentsByProject(projectID string) ([]*domain.Environment, error) {
	var out []*domain.Environment
	err := forEach(s.db, bucketEnvironments, func(e domain.Environment) {
		if e.ProjectID == projectID {
			e := e
			out = append(out, &e)
		}
	})
	return out, err
}

// --- Service ---

func (s *BoltStore) CreateService(svc *domain.Service) error {
	return put(s.db, bucketServices, svc.ID, svc)
}

func (s *BoltStore) GetService(id string) (*domain.Service, error) {
	return get[domain.Service](s.db, bucketServices, id)
}

func (s *BoltStore) UpdateService(svc *domain.Service) error {
	return s.CreateService(svc)
}

func (s *BoltStore) DeleteService(id string) error {
	return del(s.db, bucketServices, id)
}

func (s *BoltStore) ListAllServices() ([]*domain.Service, error) {
	var out []*domain.Service
	err := forEach(s.db, bucketServices, func(svc domain.Service) {
		svc := svc
		out = append(out, &svc)
	})
	return out, err
}

// --- Deployment ---

func (s *BoltStore) CreateDeployment(d *domain.Deployment) error {
	return put(s.db, bucketDeployments, d.Hash, d)
}

func (s *BoltStore) GetDeployment(hash string) (*domain.Deployment, error) {
	return get[domain.Deployment](s.db, bucketDeployments, hash)
}

func (s *BoltStore) UpdateDeployment(d *domain.Deployment) error {
	return s.CreateDeployment(d)
}

func (s *BoltStore) ListDeploymentsByService(serviceID string) ([]*domain.Deployment, error) {
	var out []*domain.Deployment
	err := forEach(s.db, bucketDeployments, func(d domain.Deployment) {
		if d.ServiceID == serviceID {
			d := d
			out = append(out, &d)
		}
	})
	return out, err
}

func (s *BoltStore) ListAllDeployments() ([]*domain.Deployment, error) {
	var out []*domain.Deployment
	err := forEach(s.db, bucketDeployments, func(d domain.Deployment) {
		d := d
		out = append(out, &d)
	})
	return out, err
}

// GetPreviousProductionDeployment scans all deployments of the service and
// returns the most recently queued one strictly before queuedBefore with a
// different hash than currentHash, or nil if none exists.
func (s *BoltStore) GetPreviousProductionDeployment(serviceID, currentHash string, queuedBefore int64) (*domain.Deployment, error) {
	deployments, err := s.ListDeploymentsByService(serviceID)
	if err != nil {
		return nil, err
	}

	var best *domain.Deployment
	for _, d := range deployments {
		if d.Hash == currentHash {
			continue
		}
		if d.QueuedAt.Unix() >= queuedBefore {
			continue
		}
		if best == nil || d.QueuedAt.After(best.QueuedAt) {
			best = d
		}
	}
	return best, nil
}

// GetOldestQueuedDeployment returns the oldest other QUEUED deployment for
// the service, used to drain the per-service queue via continue_as_new.
func (s *BoltStore) GetOldestQueuedDeployment(serviceID, excludeHash string) (*domain.Deployment, error) {
	deployments, err := s.ListDeploymentsByService(serviceID)
	if err != nil {
		return nil, err
	}

	var oldest *domain.Deployment
	for _, d := range deployments {
		if d.Hash == excludeHash || d.Status != domain.StatusQueued {
			continue
		}
		if oldest == nil || d.QueuedAt.Before(oldest.QueuedAt) {
			oldest = d
		}
	}
	return oldest, nil
}

// --- Archived snapshots ---

func (s *BoltStore) SaveArchivedProject(a *domain.ArchivedProject) error {
	return put(s.db, bucketArchivedProjects, a.ID, a)
}

func (s *BoltStore) GetArchivedProject(id string) (*domain.ArchivedProject, error) {
	return get[domain.ArchivedProject](s.db, bucketArchivedProjects, id)
}

func (s *BoltStore) ListArchivedServices(projectID string) ([]*domain.ArchivedService, error) {
	var out []*domain.ArchivedService
	err := forEach(s.db, bucketArchivedServices, func(a domain.ArchivedService) {
		if a.ProjectID == projectID {
			a := a
			out = append(out, &a)
		}
	})
	return out, err
}

func (s *BoltStore) SaveArchivedService(a *domain.ArchivedService) error {
	return put(s.db, bucketArchivedServices, a.ID, a)
}

func (s *BoltStore) GetArchivedService(id string) (*domain.ArchivedService, error) {
	return get[domain.ArchivedService](s.db, bucketArchivedServices, id)
}
