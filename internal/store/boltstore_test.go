package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/orca/internal/domain"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltStore_ServiceRoundTrip(t *testing.T) {
	s := newTestStore(t)

	svc := &domain.Service{ID: "svc-1", Name: "api", Image: "ghcr.io/acme/api:v1"}
	require.NoError(t, s.CreateService(svc))

	got, err := s.GetService("svc-1")
	require.NoError(t, err)
	require.Equal(t, "api", got.Name)

	got.Image = "ghcr.io/acme/api:v2"
	require.NoError(t, s.UpdateService(got))

	got, err = s.GetService("svc-1")
	require.NoError(t, err)
	require.Equal(t, "ghcr.io/acme/api:v2", got.Image)

	require.NoError(t, s.DeleteService("svc-1"))
	_, err = s.GetService("svc-1")
	require.Error(t, err)
}

func TestBoltStore_GetPreviousProductionDeployment(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	older := &domain.Deployment{Hash: "hash-older", ServiceID: "svc-1", QueuedAt: base.Add(-2 * time.Hour)}
	newer := &domain.Deployment{Hash: "hash-newer", ServiceID: "svc-1", QueuedAt: base.Add(-1 * time.Hour)}
	current := &domain.Deployment{Hash: "hash-current", ServiceID: "svc-1", QueuedAt: base}

	for _, d := range []*domain.Deployment{older, newer, current} {
		require.NoError(t, s.CreateDeployment(d))
	}

	prev, err := s.GetPreviousProductionDeployment("svc-1", "hash-current", base.Unix())
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.Equal(t, "hash-newer", prev.Hash)
}

func TestBoltStore_GetOldestQueuedDeployment(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	first := &domain.Deployment{Hash: "hash-1", ServiceID: "svc-1", QueuedAt: base.Add(-time.Minute), Status: domain.StatusQueued}
	second := &domain.Deployment{Hash: "hash-2", ServiceID: "svc-1", QueuedAt: base, Status: domain.StatusQueued}
	running := &domain.Deployment{Hash: "hash-running", ServiceID: "svc-1", QueuedAt: base.Add(-2 * time.Minute), Status: domain.StatusHealthy}

	for _, d := range []*domain.Deployment{first, second, running} {
		require.NoError(t, s.CreateDeployment(d))
	}

	oldest, err := s.GetOldestQueuedDeployment("svc-1", "hash-2")
	require.NoError(t, err)
	require.NotNil(t, oldest)
	require.Equal(t, "hash-1", oldest.Hash)
}

func TestBoltStore_ArchivedProjectRoundTrip(t *testing.T) {
	s := newTestStore(t)

	archived := &domain.ArchivedProject{
		ID:        "proj-1",
		NetworkID: "net-proj-1",
		Services:  []domain.ArchivedService{{ID: "svc-1", ProjectID: "proj-1"}},
	}
	require.NoError(t, s.SaveArchivedProject(archived))

	got, err := s.GetArchivedProject("proj-1")
	require.NoError(t, err)
	require.Len(t, got.Services, 1)
}
