package swarm

import "testing"

func TestServiceName(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		serviceID string
		hash      string
		want      string
	}{
		{"simple", "proj1", "svc1", "abc123", "srv-proj1-svc1-abc123"},
		{"empty hash", "proj1", "svc1", "", "srv-proj1-svc1-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ServiceName(tt.projectID, tt.serviceID, tt.hash)
			if got != tt.want {
				t.Errorf("ServiceName(%q, %q, %q) = %q, want %q", tt.projectID, tt.serviceID, tt.hash, got, tt.want)
			}
		})
	}
}

func TestEnvironmentNetworkName(t *testing.T) {
	got := EnvironmentNetworkName("proj1", "env1")
	want := "net-proj1-env1"
	if got != want {
		t.Errorf("EnvironmentNetworkName() = %q, want %q", got, want)
	}
}

func TestProjectNetworkName(t *testing.T) {
	got := ProjectNetworkName("proj1")
	want := "net-proj1"
	if got != want {
		t.Errorf("ProjectNetworkName() = %q, want %q", got, want)
	}
}

func TestVolumeName(t *testing.T) {
	got := VolumeName("vol-abc")
	want := "vol-vol-abc"
	if got != want {
		t.Errorf("VolumeName() = %q, want %q", got, want)
	}
}

func TestLabels(t *testing.T) {
	labels := Labels("proj1", map[string]string{LabelService: "svc1"})

	if labels[LabelManaged] != "true" {
		t.Errorf("expected %s=true, got %q", LabelManaged, labels[LabelManaged])
	}
	if labels[LabelProject] != "proj1" {
		t.Errorf("expected %s=proj1, got %q", LabelProject, labels[LabelProject])
	}
	if labels[LabelService] != "svc1" {
		t.Errorf("expected %s=svc1, got %q", LabelService, labels[LabelService])
	}
}
