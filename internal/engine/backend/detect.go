package backend

import (
	"context"
	"fmt"
	"os"
	"time"
)

const (
	// dockerSocket is the default Docker daemon socket path.
	dockerSocket = "/var/run/docker.sock"

	// EngineDocker selects the Docker SDK backend.
	EngineDocker = "docker"
	// EngineCLI selects a container CLI backend (docker, then nerdctl).
	EngineCLI = "cli"
	// EngineAuto auto-detects: Docker SDK preferred, CLI fallback.
	EngineAuto = "auto"
)

// pingTimeout bounds the connectivity probe during detection.
const pingTimeout = 5 * time.Second

// Pingable is satisfied by backends that can verify engine connectivity.
type Pingable interface {
	Ping(ctx context.Context) error
}

// DockerFactory creates a Docker SDK backend.
type DockerFactory func() (ContainerBackend, error)

// CLIFactory creates a CLI backend with the given command prefix.
type CLIFactory func(cli []string) (ContainerBackend, error)

// Detect selects and creates a backend based on the preference string:
// "docker" requires the SDK backend, "cli" probes container CLIs, and
// "auto" (or empty) prefers the SDK when the daemon socket exists and falls
// back to the CLIs. The factories keep this function decoupled from the
// concrete implementations.
//
// CLI backends share ctrctl's package-level command setting, so the last
// constructed CLIBackend wins. The sequential probing here is safe because it
// stops at the first responsive CLI, but callers must not hold on to more
// than one CLIBackend per process.
func Detect(preference string, dockerFn DockerFactory, cliFn CLIFactory) (ContainerBackend, error) {
	switch preference {
	case EngineDocker:
		return tryDocker(dockerFn)
	case EngineCLI:
		return tryCLIs(cliFn)
	case EngineAuto, "":
		if socketExists(dockerSocket) {
			if b, err := tryDocker(dockerFn); err == nil {
				return b, nil
			}
		}
		return tryCLIs(cliFn)
	default:
		return nil, fmt.Errorf("unknown engine %q: valid values are %q, %q, %q",
			preference, EngineDocker, EngineCLI, EngineAuto)
	}
}

func tryDocker(dockerFn DockerFactory) (ContainerBackend, error) {
	b, err := dockerFn()
	if err != nil {
		return nil, fmt.Errorf("creating docker backend: %w", err)
	}
	if err := ping(b); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("docker daemon not responding: %w", err)
	}
	return b, nil
}

func tryCLIs(cliFn CLIFactory) (ContainerBackend, error) {
	for _, cli := range [][]string{{"docker"}, {"nerdctl"}} {
		b, err := cliFn(cli)
		if err != nil {
			continue
		}
		if err := ping(b); err != nil {
			_ = b.Close()
			continue
		}
		return b, nil
	}
	return nil, fmt.Errorf("no container engine found: checked Docker SDK (%s) and CLIs (docker, nerdctl)", dockerSocket)
}

func ping(b ContainerBackend) error {
	p, ok := b.(Pingable)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}

func socketExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	// Accept both sockets and regular files (the socket can be a file in some setups).
	return fi.Mode()&os.ModeSocket != 0 || !fi.IsDir()
}
