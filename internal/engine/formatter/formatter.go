// Package formatter renders container run results for CLI and JSON output.
package formatter

import (
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/orchestrator"
)

// RunReport is the presentation form of a completed container run.
type RunReport struct {
	ContainerID string   `json:"container_id"`
	ExitCode    int      `json:"exit_code"`
	Stdout      string   `json:"stdout"`
	Stderr      string   `json:"stderr"`
	Warnings    []string `json:"warnings,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
}

// NewRunReport builds a RunReport from a ContainerOutput.
func NewRunReport(out *orchestrator.ContainerOutput, durationMs int64) RunReport {
	return RunReport{
		ContainerID: string(out.ID),
		ExitCode:    out.ExitCode,
		Stdout:      out.Stdout,
		Stderr:      out.Stderr,
		Warnings:    out.Warnings,
		DurationMs:  durationMs,
	}
}

// ImageReport is the presentation form of an operation producing an image.
type ImageReport struct {
	ImageID   string `json:"image_id"`
	Reference string `json:"reference"`
}

// NewImageReport builds an ImageReport for an image id tagged as repo:tag.
func NewImageReport(id backend.ImageID, repo, tag string) ImageReport {
	return ImageReport{
		ImageID:   string(id),
		Reference: backend.Reference(repo, tag, ""),
	}
}

// Formatter formats reports into a human-readable or machine-readable string.
type Formatter interface {
	FormatRun(report RunReport) string
	FormatImage(report ImageReport) string
}

// New returns the formatter matching the output flags.
func New(jsonOut, color, verbose bool) Formatter {
	if jsonOut {
		return NewJSONFormatter()
	}
	return NewCLIFormatter(color, verbose)
}
