package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(load app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				if err := a.Gateway.Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.T("auth.logout.done"))
				return nil
			})
		},
	}
}

// NewRefreshCmd creates the refresh command
func NewRefreshCmd(load app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				if _, err := a.Gateway.RefreshToken(cmd.Context()); err != nil {
					return fmt.Errorf("%w (%w)", app.ErrNotSignedIn, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.T("auth.refresh.done"))
				return nil
			})
		},
	}
}
