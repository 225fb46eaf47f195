package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/formatter"
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/orchestrator"
)

var (
	flagRunRM   bool
	flagRunEnv  []string
	flagRunPull string
)

var runCmd = &cobra.Command{
	Use:   "run IMAGE [COMMAND...]",
	Short: "Run a container end-to-end and print its output",
	Long: `Create and start a container from IMAGE, wait for it to exit, and print
its captured output. IMAGE is a repo:tag reference resolved through the
configured pull policy. With --rm the container is removed afterwards.

The command exits with the container's exit code.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		o, _, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer o.Close()

		env, err := parseEnv(flagRunEnv)
		if err != nil {
			return err
		}

		pullMode, err := parsePullMode(flagRunPull)
		if err != nil {
			return err
		}

		// The orchestrator takes an image id, so the human-readable reference
		// is resolved first through the backend contract.
		imageID, err := o.ResolveImage(ctx, args[0], pullMode)
		if err != nil {
			return err
		}

		out, err := o.Run(ctx, imageID, args[1:], flagRunRM, orchestrator.RunOptions{Env: env})
		if err != nil {
			return err
		}

		report := formatter.NewRunReport(out, time.Since(start).Milliseconds())
		fmt.Fprint(cmd.OutOrStdout(), newFormatter().FormatRun(report))

		// Returned instead of calling os.Exit here so the deferred Close runs;
		// main translates it into the process exit status.
		if out.ExitCode != 0 {
			return &exitCodeError{code: out.ExitCode}
		}
		return nil
	},
}

// exitCodeError carries a container's nonzero exit code to main. The run
// report was already printed, so it produces no extra error output.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("container exited with code %d", e.code)
}

// ExitCode returns the process exit status encoded in err, if any.
func ExitCode(err error) (int, bool) {
	var e *exitCodeError
	if errors.As(err, &e) {
		return e.code, true
	}
	return 0, false
}

func init() {
	runCmd.Flags().BoolVar(&flagRunRM, "rm", false, "Remove the container after it exits")
	runCmd.Flags().StringArrayVar(&flagRunEnv, "env", nil, "Environment variable KEY=VALUE (repeatable)")
	runCmd.Flags().StringVar(&flagRunPull, "pull", "none", "Image pull policy: none, public, or auth")
	rootCmd.AddCommand(runCmd)
}

// parseEnv converts KEY=VALUE flag values into an environment map.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env value %q (expected KEY=VALUE)", p)
		}
		env[k] = v
	}
	return env, nil
}

// parsePullMode maps the --pull flag value to a backend PullMode.
func parsePullMode(s string) (backend.PullMode, error) {
	switch s {
	case "none", "":
		return backend.PullNone, nil
	case "public":
		return backend.PullPublic, nil
	case "auth":
		return backend.PullAuth, nil
	default:
		return backend.PullNone, fmt.Errorf("invalid --pull value %q (valid: none, public, auth)", s)
	}
}
