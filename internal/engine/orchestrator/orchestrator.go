// Package orchestrator composes backend primitives into the two high-level
// container operations: running a container end-to-end and synthesizing a new
// image from an existing container by rebasing its exported files.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
	"github.com/PersonalHealthTrain/train-container-library/internal/platform/logger"
)

// ErrClosed is returned by every operation invoked on a closed Orchestrator.
var ErrClosed = errors.New("orchestrator is closed")

// defaultPollInterval paces the interrupt-monitoring loop between IsRunning
// and WasInterrupted probes so it does not saturate the engine.
const defaultPollInterval = 100 * time.Millisecond

// ContainerOutput is the terminal result of a Run invocation. It is built
// only after the container has exited and its logs were retrieved.
type ContainerOutput struct {
	ID       backend.ContainerID
	ExitCode int
	Stdout   string
	Stderr   string
	Warnings []string
}

// InterruptSignaler reports whether an external interrupt has occurred for a
// container. The signal is poll-only; the orchestrator asks repeatedly while
// the container runs.
type InterruptSignaler interface {
	WasInterrupted(ctx context.Context, id backend.ContainerID) (bool, error)
}

// InterruptHandler reacts to a reported interrupt. The polling cadence is
// unbounded, so a handler must be idempotent against repeated invocation for
// the same interrupt. Monitoring never stops the container by itself; any
// corrective action (such as requesting a stop) is the handler's job.
type InterruptHandler interface {
	HandleInterrupt(ctx context.Context, id backend.ContainerID) error
}

// InterruptMonitor pairs a signaler with its handler. The two only make sense
// together, so they travel as one optional unit.
type InterruptMonitor struct {
	Signaler InterruptSignaler
	Handler  InterruptHandler
}

// RunOptions holds the optional inputs of Run.
type RunOptions struct {
	Env       map[string]string
	Interrupt *InterruptMonitor
}

// Orchestrator sequences backend calls with deterministic ordering and owns
// the open/closed lifecycle of the binding. All operations run sequentially
// on the calling goroutine; WaitForContainer is the only long-blocking step.
type Orchestrator struct {
	backend      backend.ContainerBackend
	pollInterval time.Duration

	mu     sync.Mutex
	closed bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPollInterval sets the delay between interrupt-monitoring probes.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// New creates an Orchestrator bound to the given backend.
func New(b backend.ContainerBackend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:      b,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// checkOpen fails fast when the orchestrator was closed.
func (o *Orchestrator) checkOpen() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	return nil
}

// Run creates and starts a container from imageID, optionally monitors it for
// external interrupts, waits for it to exit, collects its output, and removes
// it when rm is set.
//
// A backend failure aborts the remaining sequence without compensating
// cleanup; the container created so far is left in place.
func (o *Orchestrator) Run(ctx context.Context, imageID backend.ImageID, commands []string, rm bool, opts RunOptions) (*ContainerOutput, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Info("run started", "image", imageID, "commands", commands, "rm", rm)

	creation, err := o.backend.CreateContainer(ctx, imageID, backend.CreateOptions{
		Commands: commands,
		Env:      opts.Env,
	})
	if err != nil {
		return nil, err
	}
	id := creation.ID

	if err := o.backend.StartContainer(ctx, id); err != nil {
		return nil, err
	}

	if opts.Interrupt != nil {
		if err := o.monitorInterrupts(ctx, id, opts.Interrupt); err != nil {
			return nil, err
		}
	}

	exitCode, err := o.backend.WaitForContainer(ctx, id)
	if err != nil {
		return nil, err
	}

	// Logs must be read before removal; the engine may garbage-collect them
	// once the container is gone.
	stdout, err := o.backend.GetStdout(ctx, id)
	if err != nil {
		return nil, err
	}
	stderr, err := o.backend.GetStderr(ctx, id)
	if err != nil {
		return nil, err
	}

	if rm {
		if err := o.backend.StopAndRemoveContainer(ctx, id); err != nil {
			return nil, err
		}
	}

	log.Info("run completed", "container_id", id, "exit_code", exitCode)
	return &ContainerOutput{
		ID:       id,
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
		Warnings: creation.Warnings,
	}, nil
}

// monitorInterrupts polls the signaler while the container runs and invokes
// the handler synchronously on every reported interrupt. It returns once the
// container leaves the running state.
func (o *Orchestrator) monitorInterrupts(ctx context.Context, id backend.ContainerID, monitor *InterruptMonitor) error {
	log := logger.FromContext(ctx)

	for {
		running, err := o.backend.IsRunning(ctx, id)
		if err != nil {
			return err
		}
		if !running {
			return nil
		}

		interrupted, err := monitor.Signaler.WasInterrupted(ctx, id)
		if err != nil {
			return fmt.Errorf("interrupt signaler: %w", err)
		}
		if interrupted {
			log.Info("interrupt reported", "container_id", id)
			if err := monitor.Handler.HandleInterrupt(ctx, id); err != nil {
				return fmt.Errorf("interrupt handler: %w", err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.pollInterval):
		}
	}
}

// CommitByRebase synthesizes a new image tagged targetRepo:targetTag from the
// source container. A fresh target container is created from baseImage and
// each export file is copied from the source into it, in input order, as a
// staging step. The commit is then taken from the source container, not the
// staging target; callers depend on that direction.
//
// Both containers are removed before the resolved image id is returned. On
// failure partway through, containers created so far are left in place.
func (o *Orchestrator) CommitByRebase(ctx context.Context, containerID backend.ContainerID, exportFiles []string, baseImage, targetRepo, targetTag string) (backend.ImageID, error) {
	if err := o.checkOpen(); err != nil {
		return "", err
	}

	// Validate all paths before the first backend call so a bad input cannot
	// leave partial engine state behind.
	for _, f := range exportFiles {
		if !path.IsAbs(f) {
			return "", fmt.Errorf("export path %q is not absolute", f)
		}
	}

	log := logger.FromContext(ctx)
	log.Info("commit-by-rebase started",
		"source_container", containerID,
		"base_image", baseImage,
		"target", targetRepo+":"+targetTag,
		"export_files", len(exportFiles))

	// Only unauthenticated pulls are permitted for the base image.
	baseID, err := o.backend.RepoTagToImageID(ctx, baseImage, backend.PullPublic)
	if err != nil {
		return "", err
	}

	creation, err := o.backend.CreateContainer(ctx, baseID, backend.CreateOptions{})
	if err != nil {
		return "", err
	}
	targetContainer := creation.ID

	// Input order is preserved: later copies may overwrite state created by
	// earlier ones.
	for _, f := range exportFiles {
		if err := o.backend.ContainerCopyFile(ctx, f, containerID, targetContainer); err != nil {
			return "", err
		}
	}

	if err := o.backend.CommitContainer(ctx, containerID, targetRepo, targetTag); err != nil {
		return "", err
	}

	if err := o.backend.StopAndRemoveContainer(ctx, targetContainer); err != nil {
		return "", err
	}
	if err := o.backend.StopAndRemoveContainer(ctx, containerID); err != nil {
		return "", err
	}

	// The image was just committed locally, so no pull is appropriate.
	imageID, err := o.backend.RepoTagToImageID(ctx, backend.Reference(targetRepo, targetTag, ""), backend.PullNone)
	if err != nil {
		return "", err
	}

	log.Info("commit-by-rebase completed", "image_id", imageID)
	return imageID, nil
}

// ResolveImage resolves a repo:tag reference to an image id under the given
// pull mode through the backend.
func (o *Orchestrator) ResolveImage(ctx context.Context, repoTag string, mode backend.PullMode) (backend.ImageID, error) {
	if err := o.checkOpen(); err != nil {
		return "", err
	}
	return o.backend.RepoTagToImageID(ctx, repoTag, mode)
}

// Login establishes registry credentials on the backend for later
// authenticated pulls and pushes.
func (o *Orchestrator) Login(ctx context.Context, username, password, host string) (bool, error) {
	if err := o.checkOpen(); err != nil {
		return false, err
	}
	return o.backend.Login(ctx, username, password, host)
}

// Push pushes repo:tag through the backend.
func (o *Orchestrator) Push(ctx context.Context, repo, tag, host string) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	return o.backend.Push(ctx, repo, tag, host)
}

// Tag applies repo:tag to an image through the backend.
func (o *Orchestrator) Tag(ctx context.Context, imageID backend.ImageID, repo, tag, host string) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	return o.backend.Tag(ctx, imageID, repo, tag, host)
}

// Close marks the orchestrator permanently unusable and releases the backend.
// The first call closes the backend; further calls are no-ops.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.backend.Close()
}
