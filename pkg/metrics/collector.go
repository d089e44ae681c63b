package metrics

import (
	"time"

	"github.com/cuemby/orca/internal/domain"
	"github.com/cuemby/orca/internal/store"
)

// Collector periodically polls the store and republishes its contents as
// orca_services_total / orca_deployments_by_status gauges, the same
// poll-and-Set pattern cuemby-warren's Collector used against its manager.
type Collector struct {
	store  store.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over store.
func NewCollector(s store.Store) *Collector {
	return &Collector{
		store:  s,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectServiceMetrics()
	c.collectDeploymentMetrics()
}

func (c *Collector) collectServiceMetrics() {
	services, err := c.store.ListAllServices()
	if err != nil {
		return
	}
	ServicesTotal.Set(float64(len(services)))
}

func (c *Collector) collectDeploymentMetrics() {
	deployments, err := c.store.ListAllDeployments()
	if err != nil {
		return
	}

	counts := map[domain.DeploymentStatus]int{}
	for _, d := range deployments {
		counts[d.Status]++
	}

	for _, status := range []domain.DeploymentStatus{
		domain.StatusQueued, domain.StatusPreparing, domain.StatusStarting,
		domain.StatusRestarting, domain.StatusHealthy, domain.StatusUnhealthy,
		domain.StatusFailed, domain.StatusRemoved, domain.StatusCancelled,
		domain.StatusSleeping,
	} {
		DeploymentsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
