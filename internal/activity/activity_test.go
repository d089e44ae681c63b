package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/orca/internal/domain"
	"github.com/cuemby/orca/internal/store"
)

func newTestActivities(t *testing.T) (*DeploymentActivities, store.Store) {
	t.Helper()
	s, err := store.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &DeploymentActivities{Store: s}, s
}

func TestFinishAndSave(t *testing.T) {
	t.Run("unhealthy collapses to failed", func(t *testing.T) {
		a, s := newTestActivities(t)
		d := &domain.Deployment{Hash: "hash-1", ServiceID: "svc-1", QueuedAt: time.Now()}
		require.NoError(t, s.CreateDeployment(d))

		status, err := a.FinishAndSave(context.Background(), FinishAndSaveParams{
			DeploymentHash: "hash-1",
			Status:         domain.StatusUnhealthy,
			Reason:         "healthcheck timed out",
		})
		require.NoError(t, err)
		require.Equal(t, domain.StatusFailed, status)

		got, err := s.GetDeployment("hash-1")
		require.NoError(t, err)
		require.Equal(t, domain.StatusFailed, got.Status)
		require.Equal(t, "healthcheck timed out", got.StatusReason)
		require.NotNil(t, got.FinishedAt)
	})

	t.Run("healthy stays healthy and becomes current production", func(t *testing.T) {
		a, s := newTestActivities(t)
		d := &domain.Deployment{Hash: "hash-2", ServiceID: "svc-2", QueuedAt: time.Now()}
		require.NoError(t, s.CreateDeployment(d))

		status, err := a.FinishAndSave(context.Background(), FinishAndSaveParams{
			DeploymentHash: "hash-2",
			Status:         domain.StatusHealthy,
		})
		require.NoError(t, err)
		require.Equal(t, domain.StatusHealthy, status)

		got, err := s.GetDeployment("hash-2")
		require.NoError(t, err)
		require.True(t, got.IsCurrentProduction)
	})

	t.Run("only deployment becomes current production even when unhealthy", func(t *testing.T) {
		a, s := newTestActivities(t)
		d := &domain.Deployment{Hash: "hash-3", ServiceID: "svc-3", QueuedAt: time.Now()}
		require.NoError(t, s.CreateDeployment(d))

		status, err := a.FinishAndSave(context.Background(), FinishAndSaveParams{
			DeploymentHash: "hash-3",
			Status:         domain.StatusUnhealthy,
		})
		require.NoError(t, err)
		require.Equal(t, domain.StatusFailed, status)

		got, err := s.GetDeployment("hash-3")
		require.NoError(t, err)
		require.True(t, got.IsCurrentProduction, "a service's only deployment must remain current production even when it fails")
	})

	t.Run("unhealthy redeploy does not steal production from the healthy previous deployment", func(t *testing.T) {
		a, s := newTestActivities(t)
		base := time.Now()
		prev := &domain.Deployment{Hash: "hash-prev", ServiceID: "svc-4", QueuedAt: base.Add(-time.Hour), IsCurrentProduction: true}
		next := &domain.Deployment{Hash: "hash-next", ServiceID: "svc-4", QueuedAt: base}
		require.NoError(t, s.CreateDeployment(prev))
		require.NoError(t, s.CreateDeployment(next))

		status, err := a.FinishAndSave(context.Background(), FinishAndSaveParams{
			DeploymentHash: "hash-next",
			Status:         domain.StatusUnhealthy,
		})
		require.NoError(t, err)
		require.Equal(t, domain.StatusFailed, status)

		gotNext, err := s.GetDeployment("hash-next")
		require.NoError(t, err)
		require.False(t, gotNext.IsCurrentProduction)

		gotPrev, err := s.GetDeployment("hash-prev")
		require.NoError(t, err)
		require.True(t, gotPrev.IsCurrentProduction, "the previously healthy production deployment must stay current production")
	})
}
