// Command orcactl is a thin operator CLI talking directly to Temporal,
// grounded on cuemby-warren's pkg/client "thin connection wrapped by typed
// methods, dialed fresh per command" shape — retargeted from a gRPC
// connection against Warren's own API server to a Temporal client, since
// Orca has no bespoke RPC server of its own.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/cuemby/orca/internal/config"
	"github.com/cuemby/orca/internal/workflow"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "orcactl",
	Short: "Operator CLI for the Orca deployment orchestrator",
}

func init() {
	rootCmd.PersistentFlags().String("temporal-address", "", "Temporal frontend address (defaults to TEMPORAL_ADDRESS)")
	rootCmd.PersistentFlags().String("temporal-namespace", "", "Temporal namespace (defaults to TEMPORAL_NAMESPACE)")

	deployCmd.Flags().String("project", "", "project ID")
	deployCmd.Flags().String("environment", "", "environment ID")
	deployCmd.Flags().String("hash", "", "deployment hash")
	deployCmd.Flags().Bool("http", true, "expose the service over HTTP once healthy")
	deployCmd.Flags().Duration("healthcheck-timeout", 30*time.Second, "overall healthcheck timeout")
	_ = deployCmd.MarkFlagRequired("project")
	_ = deployCmd.MarkFlagRequired("environment")
	_ = deployCmd.MarkFlagRequired("hash")

	rootCmd.AddCommand(deployCmd, cancelCmd, statusCmd)
}

func dial(cmd *cobra.Command) (temporalclient.Client, error) {
	cfg := config.Load()
	addr, _ := cmd.Flags().GetString("temporal-address")
	if addr != "" {
		cfg.TemporalAddress = addr
	}
	ns, _ := cmd.Flags().GetString("temporal-namespace")
	if ns != "" {
		cfg.TemporalNamespace = ns
	}
	return temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.TemporalNamespace})
}

// deploymentWorkflowID is the deterministic workflow ID shared by every
// DeployService execution (and its ContinueAsNew chain) for one service, so
// that cancel/status commands can find it without a side index.
func deploymentWorkflowID(serviceID string) string {
	return fmt.Sprintf("deploy-%s", serviceID)
}

var deployCmd = &cobra.Command{
	Use:   "deploy <service-id>",
	Short: "Start a DeployService workflow for a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceID := args[0]
		projectID, _ := cmd.Flags().GetString("project")
		envID, _ := cmd.Flags().GetString("environment")
		hash, _ := cmd.Flags().GetString("hash")
		httpEnabled, _ := cmd.Flags().GetBool("http")
		hcTimeout, _ := cmd.Flags().GetDuration("healthcheck-timeout")

		tc, err := dial(cmd)
		if err != nil {
			return fmt.Errorf("failed to connect to temporal: %w", err)
		}
		defer tc.Close()

		params := workflow.DeployServiceParams{
			DeploymentHash:     hash,
			ProjectID:          projectID,
			ServiceID:          serviceID,
			EnvironmentID:      envID,
			HTTPEnabled:        httpEnabled,
			HealthcheckTimeout: hcTimeout,
		}

		ctx := context.Background()
		run, err := tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
			ID:        deploymentWorkflowID(serviceID),
			TaskQueue: config.Load().TemporalTaskQueue,
		}, workflow.DeployServiceWorkflow, params)
		if err != nil {
			return fmt.Errorf("failed to start deploy workflow: %w", err)
		}

		fmt.Printf("Started deployment %s (workflow %s, run %s)\n", hash, run.GetID(), run.GetRunID())
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <service-id>",
	Short: "Request cancellation of the in-flight deployment for a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceID := args[0]

		tc, err := dial(cmd)
		if err != nil {
			return fmt.Errorf("failed to connect to temporal: %w", err)
		}
		defer tc.Close()

		ctx := context.Background()
		handle, err := tc.UpdateWorkflow(ctx, temporalclient.UpdateWorkflowOptions{
			WorkflowID:   deploymentWorkflowID(serviceID),
			UpdateName:   "cancel_deployment",
			UpdateID:     uuid.NewString(),
			WaitForStage: temporalclient.WorkflowUpdateStageCompleted,
		})
		if err != nil {
			return fmt.Errorf("failed to send cancel_deployment update: %w", err)
		}

		var result workflow.CancelDeploymentResult
		if err := handle.Get(ctx, &result); err != nil {
			return fmt.Errorf("cancel_deployment update failed: %w", err)
		}

		if !result.Success {
			fmt.Printf("Not cancelled: %s\n", result.Message)
			return nil
		}
		fmt.Println("Cancellation requested")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <service-id>",
	Short: "Print the Temporal execution status of a service's deployment workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceID := args[0]

		tc, err := dial(cmd)
		if err != nil {
			return fmt.Errorf("failed to connect to temporal: %w", err)
		}
		defer tc.Close()

		ctx := context.Background()
		resp, err := tc.DescribeWorkflowExecution(ctx, deploymentWorkflowID(serviceID), "")
		if err != nil {
			return fmt.Errorf("failed to describe workflow: %w", err)
		}

		info := resp.GetWorkflowExecutionInfo()
		fmt.Printf("Workflow:  %s\n", info.GetExecution().GetWorkflowId())
		fmt.Printf("Run:       %s\n", info.GetExecution().GetRunId())
		fmt.Printf("Status:    %s\n", info.GetStatus())
		fmt.Printf("Started:   %s\n", info.GetStartTime().AsTime())
		return nil
	},
}
