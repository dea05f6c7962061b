package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/cli/commands"
	"github.com/authdeck/authdeck/internal/cli/config"
)

// NewRootCmd builds the command tree around load
func NewRootCmd(load app.Loader, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "authdeck",
		Short: "authdeck - sign in and browse your dashboard from the terminal",
		Long: `authdeck CLI - Sign in to an authdeck API and open your dashboard,
profile, analytics and reports.

The session is kept in the credential store selected by
AUTHDECK_CREDENTIAL_STORE and refreshed automatically when it expires.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "authdeck version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(load))
	rootCmd.AddCommand(commands.NewRegisterCmd(load))
	rootCmd.AddCommand(commands.NewLogoutCmd(load))
	rootCmd.AddCommand(commands.NewRefreshCmd(load))
	rootCmd.AddCommand(commands.NewDashboardCmd(load))
	rootCmd.AddCommand(commands.NewProfileCmd(load))
	rootCmd.AddCommand(commands.NewSettingsCmd(load))
	rootCmd.AddCommand(commands.NewLanguageCmd(load))
	rootCmd.AddCommand(commands.NewAnalyticsCmd(load))
	rootCmd.AddCommand(commands.NewReportsCmd(load))

	return rootCmd
}

// Execute runs the root command, reporting version from the version command
func Execute(version string) error {
	load := func() (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return app.New(cfg, os.Stderr)
	}

	if err := NewRootCmd(load, version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
