package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/guard"
)

const memberSinceLayout = "January 2, 2006"

// NewProfileCmd creates the profile command
func NewProfileCmd(load app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				if _, err := a.Open(guard.Profile); err != nil {
					return err
				}

				user, err := a.API.Me(cmd.Context())
				if err != nil {
					return err
				}
				if err := a.Gateway.SyncUser(*user); err != nil {
					a.Logger.Warn().Err(err).Msg("Failed to store refreshed profile")
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", user.FirstName, user.LastName)
				fmt.Fprintf(out, "%s %s\n\n", a.T("profile.member-since"), user.CreatedAt.Format(memberSinceLayout))
				heading(out, a.T("profile.personal-info"))

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\n", a.T("profile.first-name"), user.FirstName)
				fmt.Fprintf(w, "%s\t%s\n", a.T("profile.last-name"), user.LastName)
				fmt.Fprintf(w, "%s\t%s\n", a.T("profile.email"), user.Email)
				fmt.Fprintf(w, "%s\t%s\n", a.T("profile.user-id"), user.ID)
				return w.Flush()
			})
		},
	}
}

