package formatter

import (
	"fmt"
	"strings"
)

// ANSI color codes.
const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiDim   = "\033[2m"
)

// CLIFormatter outputs reports as human-readable CLI text.
type CLIFormatter struct {
	Color   bool
	Verbose bool
}

// NewCLIFormatter creates a new CLIFormatter.
func NewCLIFormatter(color, verbose bool) *CLIFormatter {
	return &CLIFormatter{Color: color, Verbose: verbose}
}

// FormatRun returns a formatted report of a completed container run.
func (f *CLIFormatter) FormatRun(report RunReport) string {
	var b strings.Builder

	icon := f.colorize("✅", ansiGreen)
	status := "succeeded"
	if report.ExitCode != 0 {
		icon = f.colorize("❌", ansiRed)
		status = fmt.Sprintf("exited with code %d", report.ExitCode)
	}
	b.WriteString(fmt.Sprintf("\n%s %s — %s in %dms\n",
		icon,
		f.colorize(shortID(report.ContainerID), ansiBold),
		status,
		report.DurationMs))

	for _, w := range report.Warnings {
		b.WriteString(fmt.Sprintf("  ⚠️  %s\n", w))
	}

	if report.Stdout != "" {
		b.WriteString(report.Stdout)
		if !strings.HasSuffix(report.Stdout, "\n") {
			b.WriteString("\n")
		}
	}

	if f.Verbose && report.Stderr != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", f.colorize("--- stderr ---", ansiDim)))
		b.WriteString(f.colorize(report.Stderr, ansiDim))
		if !strings.HasSuffix(report.Stderr, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// FormatImage returns a formatted report of an operation producing an image.
func (f *CLIFormatter) FormatImage(report ImageReport) string {
	return fmt.Sprintf("\n%s %s → %s\n",
		f.colorize("✅", ansiGreen),
		f.colorize(report.Reference, ansiBold),
		shortID(report.ImageID))
}

func (f *CLIFormatter) colorize(s, code string) string {
	if !f.Color {
		return s
	}
	return code + s + ansiReset
}

// shortID trims an engine id to the familiar 12-character form.
func shortID(id string) string {
	trimmed := strings.TrimPrefix(id, "sha256:")
	if len(trimmed) > 12 {
		return trimmed[:12]
	}
	return trimmed
}
