package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDetect_UnknownPreference(t *testing.T) {
	_, err := Detect("podman-machine", nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unknown engine") {
		t.Errorf("expected unknown engine error, got %v", err)
	}
}

func TestDetect_DockerPreferenceUsesDockerFactory(t *testing.T) {
	mock := &MockBackend{}
	dockerFn := func() (ContainerBackend, error) { return mock, nil }

	b, err := Detect(EngineDocker, dockerFn, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != ContainerBackend(mock) {
		t.Error("expected the docker factory result")
	}
}

func TestDetect_DockerPreferenceFactoryError(t *testing.T) {
	dockerFn := func() (ContainerBackend, error) { return nil, errors.New("no socket") }

	_, err := Detect(EngineDocker, dockerFn, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "creating docker backend") {
		t.Errorf("expected docker backend error, got %v", err)
	}
}

func TestDetect_CLIPreferenceProbesCLIs(t *testing.T) {
	mock := &MockBackend{}
	var probed [][]string
	cliFn := func(cli []string) (ContainerBackend, error) {
		probed = append(probed, cli)
		if cli[0] == "docker" {
			return nil, errors.New("docker CLI missing")
		}
		return mock, nil
	}

	b, err := Detect(EngineCLI, nil, cliFn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != ContainerBackend(mock) {
		t.Error("expected the nerdctl fallback")
	}
	if len(probed) != 2 || probed[0][0] != "docker" || probed[1][0] != "nerdctl" {
		t.Errorf("probe order = %v, want docker then nerdctl", probed)
	}
}

func TestDetect_CLIPreferenceNoEngineFound(t *testing.T) {
	cliFn := func(_ []string) (ContainerBackend, error) { return nil, errors.New("missing") }

	_, err := Detect(EngineCLI, nil, cliFn)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "no container engine found") {
		t.Errorf("expected no-engine error, got %v", err)
	}
}

// pingableMock wraps MockBackend with a Ping result.
type pingableMock struct {
	MockBackend
	pingErr error
}

func (p *pingableMock) Ping(_ context.Context) error {
	return p.pingErr
}

func TestDetect_UnresponsiveBackendIsClosedAndSkipped(t *testing.T) {
	dead := &pingableMock{pingErr: errors.New("timeout")}
	dockerFn := func() (ContainerBackend, error) { return dead, nil }

	_, err := Detect(EngineDocker, dockerFn, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if dead.Closed != 1 {
		t.Errorf("dead backend closed %d times, want 1", dead.Closed)
	}
}
