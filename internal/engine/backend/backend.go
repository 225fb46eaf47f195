// Package backend defines the contract a container engine adapter must satisfy
// and provides Docker SDK and CLI implementations of it.
package backend

import "context"

// ContainerID identifies a container on the engine side.
type ContainerID string

// ImageID identifies an image on the engine side.
type ImageID string

// NetworkReference names an engine network a container can be attached to.
type NetworkReference string

// ContainerCreation is the result of creating a container.
type ContainerCreation struct {
	ID       ContainerID
	Warnings []string
}

// PullMode controls how RepoTagToImageID resolves a repo:tag reference.
type PullMode int

const (
	// PullNone assumes the image is already present locally.
	PullNone PullMode = iota
	// PullPublic pulls without credentials before resolving.
	PullPublic
	// PullAuth pulls with stored credentials if a login happened, otherwise anonymously.
	PullAuth
)

func (m PullMode) String() string {
	switch m {
	case PullNone:
		return "none"
	case PullPublic:
		return "public"
	case PullAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// CreateOptions holds the optional inputs of CreateContainer.
type CreateOptions struct {
	// Commands overrides the image default entrypoint/command when non-empty.
	Commands []string
	// Env is injected into the container environment.
	Env map[string]string
	// Network, when non-empty, must be attached before the container is started.
	Network NetworkReference
}

// ContainerBackend is the primitive surface the orchestrator is written against.
// Implementations wrap a concrete container engine; the orchestrator never
// touches the engine directly.
type ContainerBackend interface {
	// CreateContainer creates a container from the given image.
	// Returns a CreationError if the engine reports no container id.
	CreateContainer(ctx context.Context, imageID ImageID, opts CreateOptions) (ContainerCreation, error)

	// RepoTagToImageID resolves a repo:tag reference to an image id after any
	// pulling dictated by mode. Exactly one local image must match afterwards;
	// zero or multiple matches is a StateError.
	RepoTagToImageID(ctx context.Context, repoTag string, mode PullMode) (ImageID, error)

	// StartContainer starts a created container.
	StartContainer(ctx context.Context, id ContainerID) error

	// StopAndRemoveContainer stops the container with a grace period and then
	// removes it. Removal is attempted even if the container already exited.
	StopAndRemoveContainer(ctx context.Context, id ContainerID) error

	// ContainerCopyFile copies the regular file at path from one container into
	// the same path inside another. path must be absolute.
	ContainerCopyFile(ctx context.Context, path string, from, to ContainerID) error

	// CommitContainer snapshots the container filesystem into a new image
	// tagged repo:tag. The container does not have to be stopped.
	CommitContainer(ctx context.Context, id ContainerID, repo, tag string) error

	// IsRunning reports whether the container is not in a terminal state.
	IsRunning(ctx context.Context, id ContainerID) (bool, error)

	// WaitForContainer blocks until the container reaches a terminal state and
	// returns its exit code. This is the only blocking primitive in the contract.
	WaitForContainer(ctx context.Context, id ContainerID) (int, error)

	// GetStdout returns the captured stdout of the container. Call only after
	// the container exited and before it is removed.
	GetStdout(ctx context.Context, id ContainerID) (string, error)

	// GetStderr returns the captured stderr of the container, with the same
	// constraints as GetStdout.
	GetStderr(ctx context.Context, id ContainerID) (string, error)

	// Login establishes registry credentials for subsequent PullAuth resolutions
	// and pushes. Returns false without error when the registry rejects them.
	Login(ctx context.Context, username, password, host string) (bool, error)

	// Push pushes repo:tag to the registry, optionally prefixed with host.
	Push(ctx context.Context, repo, tag, host string) error

	// Tag applies repo:tag (optionally prefixed with host) to an image.
	Tag(ctx context.Context, imageID ImageID, repo, tag, host string) error

	// Close releases the engine connection.
	Close() error
}

// Reference builds the engine reference string for repo:tag, prefixed with
// host when one is given.
func Reference(repo, tag, host string) string {
	ref := repo + ":" + tag
	if host != "" {
		ref = host + "/" + ref
	}
	return ref
}
