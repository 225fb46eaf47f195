package backend

import (
	"context"
	"fmt"
	"strings"
)

// PreflightError wraps an engine connectivity error with a user-friendly message.
type PreflightError struct {
	Hint  string
	Cause error
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("❌ %s", e.Hint)
}

func (e *PreflightError) Unwrap() error {
	return e.Cause
}

// CheckEngine verifies the container engine is reachable before any composed
// operation runs, so users get an actionable hint instead of a failure midway
// through a container lifecycle.
func CheckEngine(ctx context.Context, b ContainerBackend) error {
	p, ok := b.(Pingable)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return classifyEngineError(err)
	}
	return nil
}

// classifyEngineError inspects the error message to produce actionable user hints.
func classifyEngineError(err error) *PreflightError {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "permission denied"):
		return &PreflightError{
			Hint:  "Container engine permission denied. Run: sudo usermod -aG docker $USER, then re-login.",
			Cause: err,
		}
	case strings.Contains(msg, "connection refused"):
		return &PreflightError{
			Hint:  "Container engine is not running. Start it with: sudo systemctl start docker",
			Cause: err,
		}
	default:
		return &PreflightError{
			Hint:  "A container engine is required but not reachable. Install Docker from https://docker.com",
			Cause: err,
		}
	}
}
