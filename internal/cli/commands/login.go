package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/forms"
	"github.com/authdeck/authdeck/internal/guard"
)

// NewLoginCmd creates the login command
func NewLoginCmd(load app.Loader) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				return runLogin(cmd, a, email, password)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set AUTHDECK_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set AUTHDECK_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, a *app.App, email, password string) error {
	out := cmd.OutOrStdout()

	// Check for environment variables (useful for CI/CD)
	email = firstNonEmpty(email, os.Getenv("AUTHDECK_EMAIL"))
	password = firstNonEmpty(password, os.Getenv("AUTHDECK_PASSWORD"))

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or AUTHDECK_EMAIL env var)")
	}

	if password == "" {
		var err error
		password, err = readPassword(a.T("auth.password.label")+": ", out)
		if err != nil {
			return err
		}
	}

	form := forms.LoginForm{Email: email, Password: password}
	if err := a.Forms.Validate(form); err != nil {
		return err
	}

	fmt.Fprintln(out, a.T("auth.login.signing-in"))

	resp, err := a.Gateway.Login(cmd.Context(), form.Email, form.Password)
	if err != nil {
		return fmt.Errorf("login failed: %s", a.Session.Error())
	}

	a.Router.Navigate(guard.Dashboard)
	fmt.Fprintln(out, a.T("dashboard.welcome", "firstName", resp.User.FirstName))
	return nil
}
