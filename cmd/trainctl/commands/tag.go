package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
)

var flagTagHost string

var tagCmd = &cobra.Command{
	Use:   "tag IMAGE REPO TAG",
	Short: "Apply a repo:tag reference to an image",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		o, cfg, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer o.Close()

		host := flagTagHost
		if host == "" {
			host = cfg.Registry.Host
		}

		if err := o.Tag(ctx, backend.ImageID(args[0]), args[1], args[2], host); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "tagged %s as %s\n", args[0], backend.Reference(args[1], args[2], host))
		return nil
	},
}

func init() {
	tagCmd.Flags().StringVar(&flagTagHost, "host", "", "Registry host prefix (overrides configuration)")
	rootCmd.AddCommand(tagCmd)
}
