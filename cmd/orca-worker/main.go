// Command orca-worker runs the Temporal worker process: it registers every
// deployment workflow and activity on the configured task queue and serves
// Prometheus metrics alongside it, the same cobra root+OnInitialize+
// background-HTTP-server shape cuemby-warren's "warren worker start"
// command uses, retargeted from an embedded-containerd worker to a
// Temporal worker.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/docker/docker/client"
	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/cuemby/orca/internal/activity"
	"github.com/cuemby/orca/internal/config"
	"github.com/cuemby/orca/internal/proxy"
	"github.com/cuemby/orca/internal/store"
	orcaswarm "github.com/cuemby/orca/internal/swarm"
	"github.com/cuemby/orca/internal/workflow"
	"github.com/cuemby/orca/pkg/log"
	"github.com/cuemby/orca/pkg/metrics"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "orca-worker",
	Short:   "Orca deployment-orchestration Temporal worker",
	Version: Version,
	RunE:    runWorker,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("orca-worker version %s\nCommit: %s\n", Version, Commit))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Println("Starting Orca worker...")
	fmt.Printf("  Temporal:   %s (namespace %s, queue %s)\n", cfg.TemporalAddress, cfg.TemporalNamespace, cfg.TemporalTaskQueue)
	fmt.Printf("  Data dir:   %s\n", cfg.DataDir)
	fmt.Printf("  Proxy:      %s\n", cfg.ProxyAdminURL)
	fmt.Println()

	dockerCli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("failed to create docker client: %w", err)
	}
	defer dockerCli.Close()

	st, err := store.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	swarmAdapter := orcaswarm.NewAdapter(dockerCli, cfg.ProxyServiceName)
	proxyClient := proxy.NewClient(cfg.ProxyAdminURL, cfg.ProxyAuthToken)
	acts := activity.NewDeploymentActivities(swarmAdapter, proxyClient, st, cfg.InternalDomain, cfg.ProxyAuthToken, cfg.HCWait)

	temporalOpts := temporalclient.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	}
	tc, err := temporalclient.Dial(temporalOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to temporal: %w", err)
	}
	defer tc.Close()
	fmt.Println("✓ Connected to Temporal")

	w := worker.New(tc, cfg.TemporalTaskQueue, worker.Options{MaxConcurrentActivityExecutionSize: 10})
	w.RegisterWorkflow(workflow.CreateProjectResourcesWorkflow)
	w.RegisterWorkflow(workflow.RemoveProjectResourcesWorkflow)
	w.RegisterWorkflow(workflow.ArchiveServiceWorkflow)
	w.RegisterWorkflow(workflow.ToggleServiceWorkflow)
	w.RegisterWorkflow(workflow.DeployServiceWorkflow)
	w.RegisterWorkflow(workflow.MonitorDeploymentWorkflow)
	w.RegisterActivity(acts)

	metricsCollector := metrics.NewCollector(st)
	metricsCollector.Start()
	defer metricsCollector.Stop()
	fmt.Println("✓ Metrics collector started")

	metrics.SetVersion(Version)
	metrics.RegisterComponent("temporal", true, "connected")
	metrics.RegisterComponent("docker", true, "connected")
	metrics.RegisterComponent("store", true, "open")

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.MetricsAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := w.Run(worker.InterruptCh()); err != nil {
			errCh <- fmt.Errorf("worker run error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\nShutting down...")
	}

	fmt.Println("✓ Shutdown complete")
	return nil
}
