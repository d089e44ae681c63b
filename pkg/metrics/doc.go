/*
Package metrics provides Prometheus metrics collection and exposition for Orca.

The metrics package defines and registers all Orca metrics using the Prometheus
client library, providing observability into deployments, healthchecks, proxy
admin API calls and Docker Swarm API calls. Metrics are exposed via HTTP endpoint
for scraping by Prometheus servers.

# Architecture

Warren's metrics system follows Prometheus best practices with comprehensive
instrumentation across all components:

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  │  - Automatic Go runtime metrics             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (node count)         │          │
	│  │  Counter: Monotonic increases (requests)    │          │
	│  │  Histogram: Distributions (latency)         │          │
	│  │  Summary: Quantiles (percentiles)           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Deployments: Outcomes, duration, queue     │          │
	│  │  Healthcheck: Attempts, failures, duration  │          │
	│  │  Proxy: Request count, duration             │          │
	│  │  Swarm: Request duration, errors            │          │
	│  │  Store: Services, deployments by status      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Prometheus Server                   │          │
	│  │  - Scrapes /metrics every 15s               │          │
	│  │  - Stores time series data                  │          │
	│  │  - Provides PromQL query interface          │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Automatic collection of Go runtime metrics
  - Thread-safe for concurrent updates

Gauge Metrics:
  - Instant value that can go up or down
  - Examples: service count, deployments by status, active deploy workflows
  - Operations: Set, Inc, Dec, Add, Sub

Counter Metrics:
  - Monotonically increasing value
  - Examples: proxy requests total, healthcheck attempts total
  - Operations: Inc, Add (cannot decrease)

Histogram Metrics:
  - Distribution of observed values
  - Buckets for latency percentiles (p50, p95, p99)
  - Examples: proxy request duration, Swarm API request duration
  - Includes: sum, count, buckets

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to histogram
  - Supports label values for histogram vectors

# Metrics Catalog

Deployment Metrics:

orca_deployments_total{status} (DeploymentsTotal):
  - Type: Counter
  - Description: Deployment healthcheck runs by resulting healthcheck status
  - Labels: status
  - Example: orca_deployments_total{status="HEALTHY"} 12

orca_deployment_duration_seconds{step} (DeploymentDuration):
  - Type: Histogram
  - Description: DeployService workflow duration by workflow step
  - Labels: step
  - Buckets: 1, 5, 10, 30, 60, 120, 300, 600, 1800

orca_active_deploy_workflows (ActiveDeployWorkflows):
  - Type: Gauge
  - Description: DeployService workflows currently executing

orca_deployments_queued_total{service_id} (DeploymentsQueuedTotal):
  - Type: Counter
  - Description: Deployments drained from the per-service queue
  - Labels: service_id

Healthcheck Metrics:

orca_healthcheck_attempts_total{mode} (HealthcheckAttempts):
  - Type: Counter
  - Description: Healthcheck evaluations started, by mode (bounded/oneshot)
  - Labels: mode

orca_healthcheck_failures_total{mode} (HealthcheckFailures):
  - Type: Counter
  - Description: Healthcheck evaluations that did not return HEALTHY
  - Labels: mode

orca_healthcheck_duration_seconds (HealthcheckDuration):
  - Type: Histogram
  - Description: Time for a full healthcheck evaluation, polling included
  - Buckets: Default Prometheus buckets

Proxy Metrics:

orca_proxy_requests_total{method, status} (ProxyRequestsTotal):
  - Type: Counter
  - Description: Requests to the proxy admin API by method and HTTP status
    ("error" when no response was received)
  - Labels: method, status
  - Example: orca_proxy_requests_total{method="PATCH",status="200"} 40

orca_proxy_request_duration_seconds{method} (ProxyRequestDuration):
  - Type: Histogram
  - Description: Proxy admin API request duration by method
  - Labels: method
  - Buckets: Default Prometheus buckets

Swarm Metrics:

orca_swarm_api_request_duration_seconds{operation} (SwarmAPIRequestDuration):
  - Type: Histogram
  - Description: Docker Swarm API request duration by operation
  - Labels: operation
  - Buckets: Default Prometheus buckets

orca_swarm_api_errors_total{operation} (SwarmAPIErrorsTotal):
  - Type: Counter
  - Description: Docker Swarm API errors by operation
  - Labels: operation

Store Metrics (refreshed every 15s by Collector):

orca_services_total (ServicesTotal):
  - Type: Gauge
  - Description: Services known to the store
  - Example: orca_services_total 10

orca_deployments_by_status{status} (DeploymentsByStatus):
  - Type: Gauge
  - Description: Deployments currently in each lifecycle status
  - Labels: status
  - Example: orca_deployments_by_status{status="HEALTHY"} 8

# Usage

Updating Gauge Metrics:

	import "github.com/cuemby/orca/pkg/metrics"

	// Set absolute value
	metrics.DeploymentsByStatus.WithLabelValues("HEALTHY").Set(5)

	// Increment/decrement
	metrics.ActiveDeployWorkflows.Inc()
	metrics.ActiveDeployWorkflows.Dec()

Updating Counter Metrics:

	// Increment by 1
	metrics.HealthcheckAttempts.WithLabelValues("bounded").Inc()

	// Add arbitrary value
	metrics.ProxyRequestsTotal.WithLabelValues("PATCH", "200").Add(1)

Recording Histogram Observations:

	// Direct observation
	metrics.HealthcheckDuration.Observe(0.125) // 125ms

	// Using Timer helper
	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.HealthcheckDuration)

Using Timer with Labels:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.ProxyRequestDuration, "PATCH")

Complete Example:

	package main

	import (
		"net/http"
		"time"
		"github.com/cuemby/orca/pkg/metrics"
	)

	func main() {
		// Update store metrics
		metrics.ServicesTotal.Set(10)
		metrics.DeploymentsByStatus.WithLabelValues("HEALTHY").Set(8)

		// Time an operation
		timer := metrics.NewTimer()
		createService()
		timer.ObserveDurationVec(metrics.SwarmAPIRequestDuration, "service.create")

		// Expose metrics endpoint
		http.Handle("/metrics", metrics.Handler())
		http.ListenAndServe(":9090", nil)
	}

	func createService() {
		// Service creation logic
		time.Sleep(100 * time.Millisecond)
	}

# Integration Points

This package integrates with:

  - internal/activity: Counts deployment healthcheck outcomes
  - internal/healthcheck: Records healthcheck attempts, failures and duration
  - internal/proxy: Records proxy admin API requests and duration
  - internal/swarm: Records Swarm API request duration and errors
  - cmd/orca-worker: Starts the Collector and serves /metrics, /health,
    /ready and /live
  - Prometheus: Scrapes /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration
  - Ensures metrics available before main()
  - No runtime registration needed

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels
  - Avoid high-cardinality labels (IDs, timestamps)
  - Document label values in metric description
  - Keep label count low (< 5 per metric)

Timer Pattern:
  - Create timer at operation start
  - Defer or explicitly call ObserveDuration
  - Automatically calculates elapsed time
  - Supports both simple and vector histograms

Global Metrics:
  - Package-level variables for all metrics
  - Accessible from any Warren package
  - Thread-safe concurrent updates
  - No initialization required by callers

# Performance Characteristics

Metric Update Overhead:
  - Gauge set/inc: ~50ns per operation
  - Counter inc: ~50ns per operation
  - Histogram observe: ~200ns per operation
  - Labels: +100ns per label value
  - Negligible impact on hot path

Memory Usage:
  - Per metric: ~1KB baseline
  - Per label combination: ~100 bytes
  - Histogram buckets: ~50 bytes each
  - Total: ~1-5MB for typical Warren cluster

Scrape Performance:
  - Metrics gathering: ~1-5ms for full scrape
  - HTTP response: ~10ms for typical metric set
  - Recommendation: Scrape interval ≥ 15s
  - Concurrent scrapes: Safe (read-only)

Cardinality Management:
  - Low cardinality: role, status, state (< 10 values)
  - Medium cardinality: method, host (< 100 values)
  - Avoid: task IDs, timestamps (unbounded)
  - Best practice: Aggregate high-cardinality in logs

# Troubleshooting

Common Issues:

Missing Metrics:
  - Symptom: Metric not appearing in /metrics output
  - Check: Metric registered in init() function
  - Check: MustRegister called (panics if duplicate)
  - Solution: Verify metric variable is exported

High Cardinality:
  - Symptom: Prometheus memory usage grows
  - Cause: Using IDs or unbounded values as labels
  - Check: Label cardinality (count unique combinations)
  - Solution: Remove high-cardinality labels, aggregate differently

Histogram Bucket Mismatch:
  - Symptom: No data in desired percentiles
  - Cause: Buckets don't cover observed value range
  - Check: Histogram sum / count for average
  - Solution: Customize buckets for value range

Stale Metrics:
  - Symptom: Metrics not updating
  - Cause: Code not calling metric update methods
  - Check: Add logging around metric updates
  - Solution: Instrument code paths correctly

# Monitoring

Prometheus Queries (PromQL):

Deployments:
  - Services: orca_services_total
  - Deployments by status: orca_deployments_by_status
  - Unhealthy rollouts: rate(orca_deployments_total{status="UNHEALTHY"}[5m])

Healthchecks:
  - Failure ratio: rate(orca_healthcheck_failures_total[5m]) / rate(orca_healthcheck_attempts_total[5m])
  - p95 duration: histogram_quantile(0.95, orca_healthcheck_duration_seconds_bucket)

Proxy Admin API:
  - Request rate: rate(orca_proxy_requests_total[1m])
  - Error rate: rate(orca_proxy_requests_total{status=~"5..|error"}[1m])
  - p95 latency: histogram_quantile(0.95, orca_proxy_request_duration_seconds_bucket)

Swarm API:
  - Error rate: rate(orca_swarm_api_errors_total[5m])
  - p95 latency: histogram_quantile(0.95, orca_swarm_api_request_duration_seconds_bucket)

# Alerting Rules

Recommended Prometheus alerts:

Frequent Unhealthy Rollouts:
  - Alert: rate(orca_deployments_total{status="UNHEALTHY"}[15m]) > 0
  - Description: Deployments are failing their healthcheck and rolling back
  - Action: Check the service's image, healthcheck and task errors

Proxy Admin API Errors:
  - Alert: rate(orca_proxy_requests_total{status=~"5..|error"}[5m]) > 0
  - Description: The proxy admin API is failing or unreachable
  - Action: Check the proxy's admin endpoint and its logs

Swarm API Errors:
  - Alert: rate(orca_swarm_api_errors_total[5m]) > 0.1
  - Description: Docker Swarm API calls are failing
  - Action: Check the Docker daemon and Swarm manager status

# Grafana Dashboards

Recommended dashboard panels:

Deployments:
  - Gauge: Total services
  - Time series: Deployments by status
  - Time series: Deployment healthcheck outcomes

Healthchecks:
  - Time series: Attempts and failures by mode
  - Heatmap: Healthcheck duration distribution

Adapters:
  - Time series: Proxy request rate and p95 latency by method
  - Time series: Swarm API p95 latency and errors by operation

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
  - PromQL tutorial: https://prometheus.io/docs/prometheus/latest/querying/basics/
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
