package backend

import "fmt"

// CreationError reports that the engine accepted a create request but returned
// no container id. Nothing was created, so no cleanup is needed.
type CreationError struct {
	Image ImageID
	Cause error
}

func (e *CreationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("container creation from image %q failed: %v", e.Image, e.Cause)
	}
	return fmt.Sprintf("container creation from image %q failed: engine returned no container id", e.Image)
}

func (e *CreationError) Unwrap() error {
	return e.Cause
}

// StateError reports an engine state that violates an invariant the caller
// relies on, such as a repo:tag resolving to zero or multiple local images.
// It signals a defect or environment inconsistency, not an operational failure.
type StateError struct {
	RepoTag string
	Matches int
}

func (e *StateError) Error() string {
	return fmt.Sprintf("expected exactly one image for %q, found %d", e.RepoTag, e.Matches)
}
