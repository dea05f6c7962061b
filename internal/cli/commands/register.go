package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/forms"
	"github.com/authdeck/authdeck/internal/gateway"
	"github.com/authdeck/authdeck/internal/guard"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(load app.Loader) *cobra.Command {
	var form forms.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				return runRegister(cmd, a, form)
			})
		},
	}

	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (will prompt twice if not provided)")

	return cmd
}

func runRegister(cmd *cobra.Command, a *app.App, form forms.RegisterForm) error {
	out := cmd.OutOrStdout()

	if form.Password == "" {
		fmt.Fprintln(out, a.T("auth.register.password-requirements"))
		for _, key := range []string{"requirement1", "requirement2", "requirement3", "requirement4"} {
			fmt.Fprintf(out, "  • %s\n", a.T("auth.register."+key))
		}

		var err error
		if form.Password, err = readPassword(a.T("auth.password.label")+": ", out); err != nil {
			return err
		}
		if form.ConfirmPassword, err = readPassword(a.T("auth.register.confirm-password")+": ", out); err != nil {
			return err
		}
	} else {
		form.ConfirmPassword = form.Password
	}

	if err := a.Forms.Validate(form); err != nil {
		return err
	}

	fmt.Fprintln(out, a.T("auth.register.creating"))

	resp, err := a.Gateway.Register(cmd.Context(), gateway.RegisterRequest{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %s", a.Session.Error())
	}

	a.Router.Navigate(guard.Dashboard)
	fmt.Fprintln(out, a.T("dashboard.welcome", "firstName", resp.User.FirstName))
	return nil
}
