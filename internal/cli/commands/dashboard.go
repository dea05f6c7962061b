package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/guard"
)

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(load app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show the welcome dashboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				user, err := a.Open(guard.Dashboard)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				heading(out, a.T("dashboard.title"))
				fmt.Fprintln(out, a.T("dashboard.welcome", "firstName", user.FirstName))
				fmt.Fprintln(out)
				fmt.Fprintln(out, a.T("dashboard.welcome-message"))
				fmt.Fprintln(out, a.T("dashboard.description"))
				return nil
			})
		},
	}
}
