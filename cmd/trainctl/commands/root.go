// Package commands implements the CLI commands for trainctl.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/PersonalHealthTrain/train-container-library/internal/platform/logger"
)

// Global flag values accessible to all commands.
var (
	flagJSON    bool
	flagVerbose bool
	flagNoColor bool
	flagEngine  string
)

// rootCmd is the base command for the trainctl CLI.
var rootCmd = &cobra.Command{
	Use:   "trainctl",
	Short: "Container lifecycle orchestration for train images",
	Long: `Trainctl runs container images end-to-end (create, start, wait, collect
output, clean up) and synthesizes new images from existing containers by
rebasing their exported files onto a base image.

It talks to the container engine through the Docker API when available and
falls back to the docker/nerdctl CLIs otherwise.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		l := logger.New(flagVerbose, flagJSON)
		ctx := logger.WithContext(cmd.Context(), l)
		cmd.SetContext(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output results as JSON to stdout")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Include debug logs and container stderr in output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "", "Container engine: docker, cli, or auto (default from config)")
}

// Execute runs the root command. Returns an error if the command fails.
func Execute() error {
	return rootCmd.Execute()
}
