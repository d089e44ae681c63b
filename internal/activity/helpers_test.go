package activity

import (
	"testing"

	"github.com/cuemby/orca/internal/domain"
	orcaswarm "github.com/cuemby/orca/internal/swarm"
)

func TestMountSource(t *testing.T) {
	tests := []struct {
		name   string
		volume domain.Volume
		want   string
	}{
		{
			name:   "managed volume uses swarm volume name",
			volume: domain.Volume{ID: "vol-1"},
			want:   orcaswarm.VolumeName("vol-1"),
		},
		{
			name:   "host-mounted volume uses the host path directly",
			volume: domain.Volume{ID: "vol-2", HostPath: "/data/app"},
			want:   "/data/app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mountSource(tt.volume)
			if got != tt.want {
				t.Errorf("mountSource(%+v) = %q, want %q", tt.volume, got, tt.want)
			}
		})
	}
}

func TestCommandParts(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want []string
	}{
		{"empty command", "", nil},
		{"shell command", "echo hello", []string{"sh", "-c", "echo hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := commandParts(tt.cmd)
			if len(got) != len(tt.want) {
				t.Fatalf("commandParts(%q) = %v, want %v", tt.cmd, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("commandParts(%q)[%d] = %q, want %q", tt.cmd, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDeploymentActivities_serviceName(t *testing.T) {
	a := &DeploymentActivities{}
	ref := SimpleDeploymentRef{ProjectID: "proj1", ServiceID: "svc1", DeploymentHash: "abc123"}

	got := a.serviceName(ref)
	want := orcaswarm.ServiceName("proj1", "svc1", "abc123")
	if got != want {
		t.Errorf("serviceName(%+v) = %q, want %q", ref, got, want)
	}
}
