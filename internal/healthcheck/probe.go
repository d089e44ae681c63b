package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/docker/docker/api/types/swarm"

	orcaswarm "github.com/cuemby/orca/internal/swarm"
)

// HTTPProbe implements the PATH custom probe type: GET
// {scheme}://{deployment.url}{probe.path} with an Authorization token
// header and a per-attempt timeout of min(time_left, 5s).
type HTTPProbe struct {
	Scheme string // "http" or "https"
	Path   string
	Client *http.Client
}

// NewHTTPProbe builds an HTTPProbe with a sane default client.
func NewHTTPProbe(scheme, path string) *HTTPProbe {
	return &HTTPProbe{Scheme: scheme, Path: path, Client: &http.Client{}}
}

func (p *HTTPProbe) Run(ctx context.Context, target Target, _ swarm.Task, timeout time.Duration) Result {
	url := fmt.Sprintf("%s://%s%s", p.Scheme, target.DeploymentURL, p.Path)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Status: statusUnhealthy, Reason: err.Error()}
	}
	if target.AuthToken != "" {
		req.Header.Set("Authorization", "Token "+target.AuthToken)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{Status: statusUnhealthy, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return Result{Status: statusHealthy}
	}
	return Result{Status: statusUnhealthy, Reason: fmt.Sprintf("probe returned HTTP %d", resp.StatusCode)}
}

// CommandProbe implements the COMMAND custom probe type: execute the
// command in the task's container; exit code 0 is HEALTHY, anything else
// is UNHEALTHY with the captured output as the reason.
//
// Grounded on other_examples/a08f4a9e_z0x010-tsuru's execInTaskContainer
// (Docker exec create/attach/inspect), since cuemby-warren's own
// ExecChecker only execs on the host, not inside a container.
type CommandProbe struct {
	Command []string
	Adapter *orcaswarm.Adapter
}

func NewCommandProbe(adapter *orcaswarm.Adapter, command []string) *CommandProbe {
	return &CommandProbe{Adapter: adapter, Command: command}
}

func (p *CommandProbe) Run(ctx context.Context, _ Target, task swarm.Task, timeout time.Duration) Result {
	if task.Status.ContainerStatus == nil {
		return Result{Status: statusUnhealthy, Reason: "task has no running container to exec into"}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exitCode, output, err := p.Adapter.ExecInTask(reqCtx, task.Status.ContainerStatus.ContainerID, p.Command)
	if err != nil {
		return Result{Status: statusUnhealthy, Reason: err.Error()}
	}
	if exitCode == 0 {
		return Result{Status: statusHealthy, Reason: output}
	}
	return Result{Status: statusUnhealthy, Reason: output}
}
