// Package config loads Orca's runtime configuration from environment
// variables, in the same plain os.Getenv idiom cuemby-warren's cmd/warren
// uses for its cobra persistent flags (see initLogging in cmd/warren/main.go)
// rather than a struct-tag config library — no dependency in the examples
// covers this concern, so it stays on the standard library (see DESIGN.md).
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full set of settings the worker and CLI binaries need.
type Config struct {
	// ProxyAdminURL is the base URL of the reverse-proxy admin API, e.g.
	// http://localhost:2019.
	ProxyAdminURL string
	// ProxyAuthToken authenticates internal deployment-URL requests;
	// mirrors the original's ZANE_INTERNAL_DOMAIN token scheme.
	ProxyAuthToken string
	// ProxyServiceName is the swarm service name fronting the reverse
	// proxy, used to attach/detach project networks to it.
	ProxyServiceName string

	// TemporalAddress is host:port of the Temporal frontend.
	TemporalAddress string
	// TemporalNamespace is the Temporal namespace to connect to.
	TemporalNamespace string
	// TemporalTaskQueue is the task queue workflows and activities are
	// registered on.
	TemporalTaskQueue string

	// DataDir holds the bbolt database file.
	DataDir string

	// DefaultHealthcheckTimeout holds DEFAULT_HEALTHCHECK_TIMEOUT. The worker
	// does not read it: the workflows and the evaluator fall back to their
	// own 30s default when no healthcheck timeout is passed.
	DefaultHealthcheckTimeout time.Duration
	// HCWait is the poll interval ScaleDownServiceDeployment uses while
	// waiting for a service's tasks to stop. The bounded healthcheck polls
	// at healthcheck.HCWait instead.
	HCWait time.Duration

	// InternalDomain is appended to generate internal deployment URLs
	// (e.g. "internal.orca.local").
	InternalDomain string

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint.
	MetricsAddr string

	LogLevel string
	LogJSON  bool
}

// Load reads Config from the process environment, applying the same
// defaults the specification's glossary lists for HC_WAIT and the overall
// healthcheck timeout.
func Load() Config {
	return Config{
		ProxyAdminURL:             getenv("CADDY_PROXY_ADMIN_HOST", "http://localhost:2019"),
		ProxyAuthToken:            getenv("ORCA_PROXY_AUTH_TOKEN", ""),
		ProxyServiceName:          getenv("ORCA_PROXY_SERVICE_NAME", "orca_proxy"),
		TemporalAddress:           getenv("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:         getenv("TEMPORAL_NAMESPACE", "default"),
		TemporalTaskQueue:         getenv("TEMPORAL_TASK_QUEUE", "orca-deployments"),
		DataDir:                   getenv("ORCA_DATA_DIR", "/var/lib/orca"),
		DefaultHealthcheckTimeout: getenvDuration("DEFAULT_HEALTHCHECK_TIMEOUT", 30*time.Second),
		HCWait:                    getenvDuration("HC_WAIT", 3*time.Second),
		InternalDomain:            getenv("ZANE_INTERNAL_DOMAIN", "internal.orca.local"),
		MetricsAddr:               getenv("ORCA_METRICS_ADDR", ":9090"),
		LogLevel:                  getenv("LOG_LEVEL", "info"),
		LogJSON:                   getenvBool("LOG_JSON", false),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(secs) * time.Second
}
