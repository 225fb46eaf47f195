package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/formatter"
)

var (
	flagRebaseExport []string
	flagRebaseBase   string
	flagRebaseRepo   string
	flagRebaseTag    string
	flagRebasePush   bool
)

var rebaseCmd = &cobra.Command{
	Use:   "rebase CONTAINER",
	Short: "Commit a container as a new image after staging its exported files",
	Long: `Synthesize a new image from CONTAINER. A staging container is created from
the base image and each --export file is copied into it from CONTAINER, in the
given order; CONTAINER itself is then committed as REPO:TAG and both containers
are removed.

Export paths must be absolute. With --push, the committed image is pushed to
the configured registry afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagRebaseRepo == "" {
			return fmt.Errorf("--repo is required")
		}

		ctx := cmd.Context()
		o, cfg, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer o.Close()

		imageID, err := o.CommitByRebase(ctx, backend.ContainerID(args[0]), flagRebaseExport, flagRebaseBase, flagRebaseRepo, flagRebaseTag)
		if err != nil {
			return err
		}

		if flagRebasePush {
			if err := o.Push(ctx, flagRebaseRepo, flagRebaseTag, cfg.Registry.Host); err != nil {
				return err
			}
		}

		report := formatter.NewImageReport(imageID, flagRebaseRepo, flagRebaseTag)
		fmt.Fprint(cmd.OutOrStdout(), newFormatter().FormatImage(report))
		return nil
	},
}

func init() {
	rebaseCmd.Flags().StringArrayVar(&flagRebaseExport, "export", nil, "Absolute file path to stage into the rebased image (repeatable)")
	rebaseCmd.Flags().StringVar(&flagRebaseBase, "base", "alpine:latest", "Base image reference for the staging container")
	rebaseCmd.Flags().StringVar(&flagRebaseRepo, "repo", "", "Target repository for the committed image")
	rebaseCmd.Flags().StringVar(&flagRebaseTag, "tag", "latest", "Target tag for the committed image")
	rebaseCmd.Flags().BoolVar(&flagRebasePush, "push", false, "Push the committed image to the configured registry")
	rootCmd.AddCommand(rebaseCmd)
}
