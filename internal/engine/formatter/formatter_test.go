package formatter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/orchestrator"
)

func sampleRunReport() RunReport {
	return RunReport{
		ContainerID: "sha256:0123456789abcdef0123456789abcdef",
		ExitCode:    0,
		Stdout:      "hello from container",
		Stderr:      "some diagnostic noise",
		Warnings:    []string{"cgroup v1 is deprecated"},
		DurationMs:  1200,
	}
}

func failedRunReport() RunReport {
	r := sampleRunReport()
	r.ExitCode = 127
	return r
}

// --- JSON Formatter Tests ---

func TestJSONFormatter_ValidJSON(t *testing.T) {
	f := NewJSONFormatter()
	output := f.FormatRun(sampleRunReport())

	var parsed RunReport
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput:\n%s", err, output)
	}

	if parsed.ExitCode != 0 {
		t.Errorf("expected ExitCode=0, got %d", parsed.ExitCode)
	}
	if parsed.DurationMs != 1200 {
		t.Errorf("expected DurationMs=1200, got %d", parsed.DurationMs)
	}
	if len(parsed.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(parsed.Warnings))
	}
}

func TestJSONFormatter_Fields(t *testing.T) {
	f := NewJSONFormatter()
	output := f.FormatRun(sampleRunReport())

	if !strings.Contains(output, `"container_id": "sha256:0123456789abcdef0123456789abcdef"`) {
		t.Error("expected JSON to contain container_id field")
	}
	if !strings.Contains(output, `"stdout": "hello from container"`) {
		t.Error("expected JSON to contain stdout field")
	}
	if !strings.Contains(output, `"cgroup v1 is deprecated"`) {
		t.Error("expected JSON to contain warning text")
	}
}

func TestJSONFormatter_OmitsEmptyWarnings(t *testing.T) {
	f := NewJSONFormatter()
	r := sampleRunReport()
	r.Warnings = nil
	output := f.FormatRun(r)

	if strings.Contains(output, "warnings") {
		t.Error("expected warnings field to be omitted when empty")
	}
}

func TestJSONFormatter_ImageReport(t *testing.T) {
	f := NewJSONFormatter()
	output := f.FormatImage(ImageReport{ImageID: "sha256:abc", Reference: "myrepo:v1"})

	var parsed ImageReport
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Reference != "myrepo:v1" {
		t.Errorf("expected reference myrepo:v1, got %q", parsed.Reference)
	}
}

// --- CLI Formatter Tests ---

func TestCLIFormatter_PassFailIcons(t *testing.T) {
	f := NewCLIFormatter(false, false)

	if !strings.Contains(f.FormatRun(sampleRunReport()), "✅") {
		t.Error("expected ✅ icon for successful run")
	}
	failed := f.FormatRun(failedRunReport())
	if !strings.Contains(failed, "❌") {
		t.Error("expected ❌ icon for failed run")
	}
	if !strings.Contains(failed, "exited with code 127") {
		t.Error("expected exit code in failure line")
	}
}

func TestCLIFormatter_ShortensContainerID(t *testing.T) {
	f := NewCLIFormatter(false, false)
	output := f.FormatRun(sampleRunReport())

	if !strings.Contains(output, "0123456789ab") {
		t.Error("expected 12-character id in output")
	}
	if strings.Contains(output, "sha256:") {
		t.Error("expected sha256: prefix to be stripped")
	}
}

func TestCLIFormatter_Warnings(t *testing.T) {
	f := NewCLIFormatter(false, false)
	output := f.FormatRun(sampleRunReport())

	if !strings.Contains(output, "⚠️") {
		t.Error("expected warning icon")
	}
	if !strings.Contains(output, "cgroup v1 is deprecated") {
		t.Error("expected warning text")
	}
}

func TestCLIFormatter_VerboseMode(t *testing.T) {
	// Without verbose
	quiet := NewCLIFormatter(false, false).FormatRun(sampleRunReport())
	if strings.Contains(quiet, "some diagnostic noise") {
		t.Error("expected no stderr in non-verbose mode")
	}

	// With verbose
	verbose := NewCLIFormatter(false, true).FormatRun(sampleRunReport())
	if !strings.Contains(verbose, "some diagnostic noise") {
		t.Error("expected stderr in verbose mode")
	}
	if !strings.Contains(verbose, "stderr") {
		t.Error("expected stderr header in verbose mode")
	}
}

func TestCLIFormatter_NoColorMode(t *testing.T) {
	output := NewCLIFormatter(false, false).FormatRun(sampleRunReport())
	if strings.Contains(output, "\033[") {
		t.Error("expected no ANSI escape codes in no-color mode")
	}
}

func TestCLIFormatter_ColorMode(t *testing.T) {
	output := NewCLIFormatter(true, false).FormatRun(sampleRunReport())
	if !strings.Contains(output, "\033[") {
		t.Error("expected ANSI escape codes in color mode")
	}
}

func TestCLIFormatter_ImageReport(t *testing.T) {
	f := NewCLIFormatter(false, false)
	output := f.FormatImage(ImageReport{ImageID: "sha256:abcdef0123456789abcdef", Reference: "myrepo:v1"})

	if !strings.Contains(output, "myrepo:v1") {
		t.Error("expected reference in output")
	}
	if !strings.Contains(output, "abcdef012345") {
		t.Error("expected shortened image id in output")
	}
}

// --- Report constructors ---

func TestNewRunReport(t *testing.T) {
	out := &orchestrator.ContainerOutput{
		ID:       backend.ContainerID("abc"),
		ExitCode: 3,
		Stdout:   "out",
		Stderr:   "err",
		Warnings: []string{"w1"},
	}
	r := NewRunReport(out, 42)

	if r.ContainerID != "abc" || r.ExitCode != 3 || r.DurationMs != 42 {
		t.Errorf("unexpected report: %+v", r)
	}
	if r.Stdout != "out" || r.Stderr != "err" || len(r.Warnings) != 1 {
		t.Errorf("unexpected report streams: %+v", r)
	}
}

func TestNewImageReport(t *testing.T) {
	r := NewImageReport(backend.ImageID("sha256:abc"), "myrepo", "v1")
	if r.Reference != "myrepo:v1" {
		t.Errorf("expected reference myrepo:v1, got %q", r.Reference)
	}
	if r.ImageID != "sha256:abc" {
		t.Errorf("expected image id preserved, got %q", r.ImageID)
	}
}

func TestNew_SelectsFormatter(t *testing.T) {
	if _, ok := New(true, false, false).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter when jsonOut is true")
	}
	if _, ok := New(false, true, true).(*CLIFormatter); !ok {
		t.Error("expected CLIFormatter when jsonOut is false")
	}
}
