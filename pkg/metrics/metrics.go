package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Deployment workflow metrics
	DeploymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_deployments_total",
			Help: "Total number of deployment healthcheck runs by resulting healthcheck status",
		},
		[]string{"status"},
	)

	DeploymentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orca_deployment_duration_seconds",
			Help:    "DeployService workflow duration in seconds by workflow step",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"step"},
	)

	ActiveDeployWorkflows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orca_active_deploy_workflows",
			Help: "Number of DeployService workflows currently executing",
		},
	)

	DeploymentsQueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_deployments_queued_total",
			Help: "Total number of deployments drained from the per-service queue",
		},
		[]string{"service_id"},
	)

	// Healthcheck metrics
	HealthcheckAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_healthcheck_attempts_total",
			Help: "Total number of healthcheck evaluation attempts by mode",
		},
		[]string{"mode"},
	)

	HealthcheckFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_healthcheck_failures_total",
			Help: "Total number of healthcheck evaluations that did not return HEALTHY",
		},
		[]string{"mode"},
	)

	HealthcheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orca_healthcheck_duration_seconds",
			Help:    "Time taken for a full healthcheck evaluation (including polling) in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Proxy adapter metrics
	ProxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_proxy_requests_total",
			Help: "Total number of requests issued to the proxy admin API by method and status",
		},
		[]string{"method", "status"},
	)

	ProxyRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orca_proxy_request_duration_seconds",
			Help:    "Proxy admin API request duration in seconds by method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Orchestrator adapter metrics
	SwarmAPIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orca_swarm_api_request_duration_seconds",
			Help:    "Docker Swarm API request duration in seconds by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	SwarmAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_swarm_api_errors_total",
			Help: "Total number of Docker Swarm API errors by operation",
		},
		[]string{"operation"},
	)

	// Store-polled gauges, refreshed on an interval by Collector.
	ServicesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orca_services_total",
			Help: "Total number of services known to the store",
		},
	)

	DeploymentsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orca_deployments_by_status",
			Help: "Current number of deployments in each lifecycle status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(DeploymentsTotal)
	prometheus.MustRegister(DeploymentDuration)
	prometheus.MustRegister(ActiveDeployWorkflows)
	prometheus.MustRegister(DeploymentsQueuedTotal)
	prometheus.MustRegister(HealthcheckAttempts)
	prometheus.MustRegister(HealthcheckFailures)
	prometheus.MustRegister(HealthcheckDuration)
	prometheus.MustRegister(ProxyRequestsTotal)
	prometheus.MustRegister(ProxyRequestDuration)
	prometheus.MustRegister(SwarmAPIRequestDuration)
	prometheus.MustRegister(SwarmAPIErrorsTotal)
	prometheus.MustRegister(ServicesTotal)
	prometheus.MustRegister(DeploymentsByStatus)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
