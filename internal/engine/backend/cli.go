package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"lesiw.io/ctrctl"

	"github.com/PersonalHealthTrain/train-container-library/internal/platform/logger"
)

// CLIBackend implements ContainerBackend by shelling out to a container CLI
// (docker or nerdctl) through ctrctl. It is the fallback when the Docker
// daemon socket is not reachable through the SDK.
type CLIBackend struct {
	cli []string
}

// NewCLIBackend creates a CLIBackend using the given CLI command prefix,
// e.g. []string{"docker"} or []string{"nerdctl"}.
//
// ctrctl routes all calls through a package-level CLI setting, so only one
// CLIBackend configuration can be active per process.
func NewCLIBackend(cli []string) (*CLIBackend, error) {
	if len(cli) == 0 {
		return nil, fmt.Errorf("empty container CLI command")
	}
	ctrctl.Cli = cli
	return &CLIBackend{cli: cli}, nil
}

// Ping verifies the CLI is available and responsive.
func (c *CLIBackend) Ping(_ context.Context) error {
	_, err := ctrctl.Version(nil)
	return err
}

// CreateContainer creates a container from the given image.
func (c *CLIBackend) CreateContainer(ctx context.Context, imageID ImageID, opts CreateOptions) (ContainerCreation, error) {
	createOpts := &ctrctl.ContainerCreateOpts{
		Env:     envList(opts.Env),
		Network: string(opts.Network),
	}

	var command string
	var args []string
	if len(opts.Commands) > 0 {
		command = opts.Commands[0]
		args = opts.Commands[1:]
	}

	out, err := ctrctl.ContainerCreate(createOpts, string(imageID), command, args...)
	if err != nil {
		return ContainerCreation{}, &CreationError{Image: imageID, Cause: err}
	}

	id := strings.TrimSpace(out)
	if id == "" {
		return ContainerCreation{}, &CreationError{Image: imageID}
	}
	logger.FromContext(ctx).Info("container created", "container_id", id)

	// The CLI prints only the id; there is no warnings channel.
	return ContainerCreation{ID: ContainerID(id)}, nil
}

// RepoTagToImageID resolves repoTag to the id of exactly one local image.
// For PullAuth the CLI reuses the credential store populated by `login`, so
// authenticated and anonymous pulls issue the same command.
func (c *CLIBackend) RepoTagToImageID(ctx context.Context, repoTag string, mode PullMode) (ImageID, error) {
	logger.FromContext(ctx).Debug("resolving repo tag", "repo_tag", repoTag, "pull_mode", mode)

	if mode == PullPublic || mode == PullAuth {
		if _, err := ctrctl.ImagePull(&ctrctl.ImagePullOpts{}, repoTag); err != nil {
			return "", fmt.Errorf("pulling image %q: %w", repoTag, err)
		}
	}

	out, err := ctrctl.ImageLs(&ctrctl.ImageLsOpts{Quiet: true, NoTrunc: true}, repoTag)
	if err != nil {
		return "", fmt.Errorf("listing images for %q: %w", repoTag, err)
	}

	ids := splitLines(out)
	if len(ids) != 1 {
		return "", &StateError{RepoTag: repoTag, Matches: len(ids)}
	}
	return ImageID(ids[0]), nil
}

// StartContainer starts a created container.
func (c *CLIBackend) StartContainer(ctx context.Context, id ContainerID) error {
	if _, err := ctrctl.ContainerStart(nil, string(id)); err != nil {
		return fmt.Errorf("starting container %q: %w", id, err)
	}
	logger.FromContext(ctx).Info("container started", "container_id", id)
	return nil
}

// StopAndRemoveContainer stops the container (the CLI grants its default
// grace period before killing) and removes it. Removal is attempted even
// when the stop fails on an already-exited container.
func (c *CLIBackend) StopAndRemoveContainer(ctx context.Context, id ContainerID) error {
	log := logger.FromContext(ctx)

	if _, err := ctrctl.ContainerStop(nil, string(id)); err != nil {
		log.Debug("container stop reported an error, removing anyway", "container_id", id, "error", err)
	}

	if _, err := ctrctl.ContainerRm(nil, string(id)); err != nil {
		return fmt.Errorf("removing container %q: %w", id, err)
	}
	log.Info("container removed", "container_id", id)
	return nil
}

// ContainerCopyFile copies the regular file at filePath from one container
// into the same path inside another. The CLI cannot copy between two
// containers directly, so the file is staged through a host temp directory.
func (c *CLIBackend) ContainerCopyFile(ctx context.Context, filePath string, from, to ContainerID) error {
	logger.FromContext(ctx).Debug("copying file between containers", "path", filePath, "from", from, "to", to)

	tmpDir, err := os.MkdirTemp("", "trainctl-cp-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	local := filepath.Join(tmpDir, path.Base(filePath))
	if _, err := ctrctl.ContainerCp(nil, string(from)+":"+filePath, local); err != nil {
		return fmt.Errorf("copying %q out of container %q: %w", filePath, from, err)
	}

	info, err := os.Stat(local)
	if err != nil {
		return fmt.Errorf("inspecting staged copy of %q: %w", filePath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %q in container %q is not a regular file", filePath, from)
	}

	if _, err := ctrctl.ContainerCp(nil, local, string(to)+":"+path.Dir(filePath)); err != nil {
		return fmt.Errorf("copying %q into container %q: %w", filePath, to, err)
	}
	return nil
}

// CommitContainer snapshots the container filesystem into a new image tagged
// repo:tag.
func (c *CLIBackend) CommitContainer(ctx context.Context, id ContainerID, repo, tag string) error {
	ref := Reference(repo, tag, "")
	if _, err := ctrctl.ContainerCommit(nil, string(id), ref); err != nil {
		return fmt.Errorf("committing container %q as %q: %w", id, ref, err)
	}
	logger.FromContext(ctx).Info("container committed", "container_id", id, "reference", ref)
	return nil
}

// IsRunning reports whether the container is not in a terminal state.
func (c *CLIBackend) IsRunning(_ context.Context, id ContainerID) (bool, error) {
	out, err := ctrctl.ContainerInspect(
		&ctrctl.ContainerInspectOpts{Format: "{{.State.Running}}"},
		string(id),
	)
	if err != nil {
		return false, fmt.Errorf("inspecting container %q: %w", id, err)
	}
	return strings.TrimSpace(out) == "true", nil
}

// WaitForContainer blocks until the container exits and returns its exit code.
func (c *CLIBackend) WaitForContainer(_ context.Context, id ContainerID) (int, error) {
	out, err := ctrctl.ContainerWait(nil, string(id))
	if err != nil {
		return 0, fmt.Errorf("waiting for container %q: %w", id, err)
	}
	code, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parsing exit code of container %q: %w", id, err)
	}
	return code, nil
}

// GetStdout returns the captured stdout of an exited container.
func (c *CLIBackend) GetStdout(ctx context.Context, id ContainerID) (string, error) {
	stdout, _, err := c.logs(ctx, id)
	return stdout, err
}

// GetStderr returns the captured stderr of an exited container.
func (c *CLIBackend) GetStderr(ctx context.Context, id ContainerID) (string, error) {
	_, stderr, err := c.logs(ctx, id)
	return stderr, err
}

// logs runs the CLI logs command with separate stream buffers. The CLI
// replays container stdout on its stdout and container stderr on its stderr,
// which keeps the two streams apart without a demultiplexer.
func (c *CLIBackend) logs(_ context.Context, id ContainerID) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	opts := &ctrctl.ContainerLogsOpts{
		Cmd: &exec.Cmd{
			Stdout: &stdoutBuf,
			Stderr: &stderrBuf,
		},
	}
	if _, err := ctrctl.ContainerLogs(opts, string(id)); err != nil {
		return "", "", fmt.Errorf("fetching logs of container %q: %w", id, err)
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

// Login stores registry credentials in the CLI credential store. Later pulls
// and pushes through the same CLI pick them up automatically.
func (c *CLIBackend) Login(ctx context.Context, username, password, host string) (bool, error) {
	opts := &ctrctl.LoginOpts{
		Username: username,
		Password: password,
	}

	// ctrctl drops empty positional args, so an empty host logs in against
	// the CLI's default registry.
	if _, err := ctrctl.Login(opts, host); err != nil {
		// The CLI folds credential rejection and transport failures into one
		// exit status, so a failed login is reported as not-logged-in.
		logger.FromContext(ctx).Debug("registry login failed", "host", host, "error", err)
		return false, nil
	}
	logger.FromContext(ctx).Info("registry login succeeded", "host", host, "username", username)
	return true, nil
}

// Push pushes repo:tag to the registry, optionally prefixed with host.
func (c *CLIBackend) Push(ctx context.Context, repo, tag, host string) error {
	ref := Reference(repo, tag, host)
	if _, err := ctrctl.ImagePush(nil, ref); err != nil {
		return fmt.Errorf("pushing image %q: %w", ref, err)
	}
	logger.FromContext(ctx).Info("image pushed", "reference", ref)
	return nil
}

// Tag applies repo:tag (optionally prefixed with host) to an image.
func (c *CLIBackend) Tag(_ context.Context, imageID ImageID, repo, tag, host string) error {
	ref := Reference(repo, tag, host)
	if _, err := ctrctl.ImageTag(nil, string(imageID), ref); err != nil {
		return fmt.Errorf("tagging image %q as %q: %w", imageID, ref, err)
	}
	return nil
}

// Close is a no-op for CLI-based backends.
func (c *CLIBackend) Close() error {
	return nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
