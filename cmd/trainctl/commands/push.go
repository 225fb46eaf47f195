package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagPushHost string

var pushCmd = &cobra.Command{
	Use:   "push REPO TAG",
	Short: "Push an image to a registry",
	Long: `Push REPO:TAG to a registry. The registry host comes from --host, or from
the configured registry when the flag is omitted. Credentials established by
'trainctl login' are used when present.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		o, cfg, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer o.Close()

		host := flagPushHost
		if host == "" {
			host = cfg.Registry.Host
		}

		if err := o.Push(ctx, args[0], args[1], host); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "pushed %s:%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	pushCmd.Flags().StringVar(&flagPushHost, "host", "", "Registry host prefix (overrides configuration)")
	rootCmd.AddCommand(pushCmd)
}
