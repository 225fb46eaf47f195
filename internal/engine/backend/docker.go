package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/PersonalHealthTrain/train-container-library/internal/platform/logger"
)

// stopGraceSeconds is the delay granted to a container between SIGTERM and
// SIGKILL during StopAndRemoveContainer.
const stopGraceSeconds = 10

// dockerAPI abstracts the Docker SDK operations the backend uses, for
// testability. Production code passes *client.Client; tests use mockDockerAPI.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	ImageTag(ctx context.Context, source, target string) error
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *v1.Platform, name string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerCommit(ctx context.Context, containerID string, options container.CommitOptions) (types.IDResponse, error)
	CopyFromContainer(ctx context.Context, containerID, srcPath string) (io.ReadCloser, container.PathStat, error)
	CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options container.CopyToContainerOptions) error
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	Close() error
}

// DockerBackend implements ContainerBackend using the Docker SDK.
type DockerBackend struct {
	api dockerAPI

	// registryAuth is the encoded auth established by Login. Empty until a
	// successful login; used for PullAuth resolutions and pushes.
	registryAuth string
}

// NewDockerBackendFrom creates a DockerBackend with the given API client.
// Use this constructor when you need to inject a specific client (e.g., for testing).
func NewDockerBackendFrom(api dockerAPI) *DockerBackend {
	return &DockerBackend{api: api}
}

// NewDockerBackend creates a DockerBackend with a Docker SDK client.
// Uses the default Docker host and API version negotiation.
func NewDockerBackend() (*DockerBackend, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return NewDockerBackendFrom(cli), nil
}

// Ping checks if the Docker daemon is available and responsive.
func (d *DockerBackend) Ping(ctx context.Context) error {
	_, err := d.api.Ping(ctx)
	return err
}

// CreateContainer creates a container from the given image.
func (d *DockerBackend) CreateContainer(ctx context.Context, imageID ImageID, opts CreateOptions) (ContainerCreation, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating container", "image", imageID, "commands", opts.Commands, "network", opts.Network)

	config := &container.Config{
		Image: string(imageID),
		Cmd:   opts.Commands,
		Env:   envList(opts.Env),
	}

	var networkingConfig *network.NetworkingConfig
	if opts.Network != "" {
		// The endpoint is attached at creation time, which satisfies the
		// contract that the network holds before the container starts.
		networkingConfig = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				string(opts.Network): {},
			},
		}
	}

	resp, err := d.api.ContainerCreate(ctx, config, nil, networkingConfig, nil, "")
	if err != nil {
		return ContainerCreation{}, &CreationError{Image: imageID, Cause: err}
	}
	if resp.ID == "" {
		return ContainerCreation{}, &CreationError{Image: imageID}
	}

	log.Info("container created", "container_id", resp.ID, "warnings", len(resp.Warnings))
	return ContainerCreation{ID: ContainerID(resp.ID), Warnings: resp.Warnings}, nil
}

// RepoTagToImageID resolves repoTag to the id of exactly one local image,
// pulling first according to mode.
func (d *DockerBackend) RepoTagToImageID(ctx context.Context, repoTag string, mode PullMode) (ImageID, error) {
	log := logger.FromContext(ctx)
	log.Debug("resolving repo tag", "repo_tag", repoTag, "pull_mode", mode)

	switch mode {
	case PullNone:
		// Image is expected locally; no network fetch.
	case PullPublic:
		if err := d.pull(ctx, repoTag, ""); err != nil {
			return "", err
		}
	case PullAuth:
		if err := d.pull(ctx, repoTag, d.registryAuth); err != nil {
			return "", err
		}
	}

	summaries, err := d.api.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", repoTag)),
	})
	if err != nil {
		return "", fmt.Errorf("listing images for %q: %w", repoTag, err)
	}
	if len(summaries) != 1 {
		return "", &StateError{RepoTag: repoTag, Matches: len(summaries)}
	}

	return ImageID(summaries[0].ID), nil
}

// pull requests the image and drains the progress stream. Docker reports pull
// errors inside that stream, so the pull is not complete (or known to have
// succeeded) until EOF.
func (d *DockerBackend) pull(ctx context.Context, ref, auth string) error {
	reader, err := d.api.ImagePull(ctx, ref, image.PullOptions{RegistryAuth: auth})
	if err != nil {
		return fmt.Errorf("pulling image %q: %w", ref, err)
	}
	if reader == nil {
		return nil
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		if closeErr := reader.Close(); closeErr != nil {
			logger.FromContext(ctx).Error("failed to close image pull reader", "error", closeErr)
		}
		return fmt.Errorf("reading image pull response: %w", err)
	}
	if err := reader.Close(); err != nil {
		return fmt.Errorf("closing image pull reader: %w", err)
	}
	return nil
}

// StartContainer starts a created container.
func (d *DockerBackend) StartContainer(ctx context.Context, id ContainerID) error {
	if err := d.api.ContainerStart(ctx, string(id), container.StartOptions{}); err != nil {
		return fmt.Errorf("starting container %q: %w", id, err)
	}
	logger.FromContext(ctx).Info("container started", "container_id", id)
	return nil
}

// StopAndRemoveContainer stops the container, granting it a grace period, and
// removes it. The removal is attempted even when the stop fails, so containers
// that already exited are still cleaned up.
func (d *DockerBackend) StopAndRemoveContainer(ctx context.Context, id ContainerID) error {
	log := logger.FromContext(ctx)

	grace := stopGraceSeconds
	if err := d.api.ContainerStop(ctx, string(id), container.StopOptions{Timeout: &grace}); err != nil {
		log.Debug("container stop reported an error, removing anyway", "container_id", id, "error", err)
	}

	if err := d.api.ContainerRemove(ctx, string(id), container.RemoveOptions{}); err != nil {
		return fmt.Errorf("removing container %q: %w", id, err)
	}
	log.Info("container removed", "container_id", id)
	return nil
}

// ContainerCopyFile copies the regular file at path from one container into
// the same path inside another, preserving its parent directory location.
func (d *DockerBackend) ContainerCopyFile(ctx context.Context, filePath string, from, to ContainerID) error {
	logger.FromContext(ctx).Debug("copying file between containers", "path", filePath, "from", from, "to", to)

	reader, stat, err := d.api.CopyFromContainer(ctx, string(from), filePath)
	if err != nil {
		return fmt.Errorf("copying %q out of container %q: %w", filePath, from, err)
	}
	defer reader.Close()

	if !stat.Mode.IsRegular() {
		return fmt.Errorf("path %q in container %q is not a regular file", filePath, from)
	}

	// The archive from CopyFromContainer carries the file under its base name,
	// so extracting into the parent directory reproduces the original path.
	dstDir := path.Dir(filePath)
	if err := d.api.CopyToContainer(ctx, string(to), dstDir, reader, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("copying %q into container %q: %w", filePath, to, err)
	}
	return nil
}

// CommitContainer snapshots the container filesystem into a new image tagged
// repo:tag. The container may still be running.
func (d *DockerBackend) CommitContainer(ctx context.Context, id ContainerID, repo, tag string) error {
	ref := Reference(repo, tag, "")
	if _, err := d.api.ContainerCommit(ctx, string(id), container.CommitOptions{Reference: ref}); err != nil {
		return fmt.Errorf("committing container %q as %q: %w", id, ref, err)
	}
	logger.FromContext(ctx).Info("container committed", "container_id", id, "reference", ref)
	return nil
}

// IsRunning reports whether the container is not in a terminal state.
func (d *DockerBackend) IsRunning(ctx context.Context, id ContainerID) (bool, error) {
	inspect, err := d.api.ContainerInspect(ctx, string(id))
	if err != nil {
		return false, fmt.Errorf("inspecting container %q: %w", id, err)
	}
	return inspect.State != nil && inspect.State.Running, nil
}

// WaitForContainer blocks until the container exits and returns its exit code.
func (d *DockerBackend) WaitForContainer(ctx context.Context, id ContainerID) (int, error) {
	statusCh, errCh := d.api.ContainerWait(ctx, string(id), container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return 0, fmt.Errorf("waiting for container %q: %w", id, err)
	case status := <-statusCh:
		if status.Error != nil {
			return 0, fmt.Errorf("waiting for container %q: %s", id, status.Error.Message)
		}
		return int(status.StatusCode), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// GetStdout returns the captured stdout of an exited container.
func (d *DockerBackend) GetStdout(ctx context.Context, id ContainerID) (string, error) {
	stdout, _, err := d.logs(ctx, id)
	return stdout, err
}

// GetStderr returns the captured stderr of an exited container.
func (d *DockerBackend) GetStderr(ctx context.Context, id ContainerID) (string, error) {
	_, stderr, err := d.logs(ctx, id)
	return stderr, err
}

// logs fetches both log streams and demultiplexes them. The daemon sends a
// single multiplexed stream for non-tty containers, so stdout and stderr are
// always fetched together and split with stdcopy.
func (d *DockerBackend) logs(ctx context.Context, id ContainerID) (string, string, error) {
	reader, err := d.api.ContainerLogs(ctx, string(id), container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("fetching logs of container %q: %w", id, err)
	}
	defer reader.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, reader); err != nil {
		return "", "", fmt.Errorf("demultiplexing logs of container %q: %w", id, err)
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

// Login establishes registry credentials for later PullAuth resolutions and
// pushes. A rejection by the registry yields (false, nil); transport failures
// yield an error.
func (d *DockerBackend) Login(ctx context.Context, username, password, host string) (bool, error) {
	auth := registry.AuthConfig{
		Username:      username,
		Password:      password,
		ServerAddress: host,
	}

	if _, err := d.api.RegistryLogin(ctx, auth); err != nil {
		// The daemon reports rejected credentials as an API error rather than
		// through a dedicated field, so classify by message.
		if strings.Contains(strings.ToLower(err.Error()), "unauthorized") {
			return false, nil
		}
		return false, fmt.Errorf("registry login: %w", err)
	}

	encoded, err := registry.EncodeAuthConfig(auth)
	if err != nil {
		return false, fmt.Errorf("encoding registry auth: %w", err)
	}
	d.registryAuth = encoded
	logger.FromContext(ctx).Info("registry login succeeded", "host", host, "username", username)
	return true, nil
}

// Push pushes repo:tag to the registry, using credentials from Login when present.
func (d *DockerBackend) Push(ctx context.Context, repo, tag, host string) error {
	ref := Reference(repo, tag, host)

	auth := d.registryAuth
	if auth == "" {
		// The API requires a registry auth header even for anonymous pushes.
		encoded, err := registry.EncodeAuthConfig(registry.AuthConfig{})
		if err != nil {
			return fmt.Errorf("encoding anonymous registry auth: %w", err)
		}
		auth = encoded
	}

	reader, err := d.api.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: auth})
	if err != nil {
		return fmt.Errorf("pushing image %q: %w", ref, err)
	}
	defer reader.Close()

	// Push errors are reported in the progress stream, like pull errors.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("reading image push response: %w", err)
	}
	logger.FromContext(ctx).Info("image pushed", "reference", ref)
	return nil
}

// Tag applies repo:tag (optionally prefixed with host) to an image.
func (d *DockerBackend) Tag(ctx context.Context, imageID ImageID, repo, tag, host string) error {
	ref := Reference(repo, tag, host)
	if err := d.api.ImageTag(ctx, string(imageID), ref); err != nil {
		return fmt.Errorf("tagging image %q as %q: %w", imageID, ref, err)
	}
	return nil
}

// Close releases the Docker client resources.
func (d *DockerBackend) Close() error {
	return d.api.Close()
}

// envList converts an environment map to the KEY=VALUE slice the engine expects.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, fmt.Sprintf("%s=%s", k, v))
	}
	return list
}
