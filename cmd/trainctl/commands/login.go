package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagLoginUsername string
	flagLoginPassword string
	flagLoginHost     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Establish registry credentials for authenticated pulls and pushes",
	Long: `Log in to a container registry. Credentials come from --username/--password,
or from the configured registry section (including the TRAINCTL_REGISTRY_*
environment variables) when the flags are omitted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		o, cfg, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer o.Close()

		username := flagLoginUsername
		if username == "" {
			username = cfg.Registry.Username
		}
		password := flagLoginPassword
		if password == "" {
			password = string(cfg.Registry.Password)
		}
		host := flagLoginHost
		if host == "" {
			host = cfg.Registry.Host
		}

		if username == "" || password == "" {
			return fmt.Errorf("no registry credentials: pass --username/--password or configure the registry section")
		}

		ok, err := o.Login(ctx, username, password, host)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("registry rejected the credentials for %q", username)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "logged in to %s as %s\n", host, username)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&flagLoginUsername, "username", "", "Registry username (overrides configuration)")
	loginCmd.Flags().StringVar(&flagLoginPassword, "password", "", "Registry password (overrides configuration)")
	loginCmd.Flags().StringVar(&flagLoginHost, "host", "", "Registry host (overrides configuration)")
	rootCmd.AddCommand(loginCmd)
}
