package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/cli/client"
	"github.com/authdeck/authdeck/internal/forms"
	"github.com/authdeck/authdeck/internal/guard"
)

// NewSettingsCmd creates the settings command. Without flags it shows the
// current settings.
func NewSettingsCmd(load app.Loader) *cobra.Command {
	var changes forms.SettingsForm

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View or change your profile and language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				return runSettings(cmd, a, changes)
			})
		},
	}

	cmd.Flags().StringVar(&changes.FirstName, "first-name", "", "New first name")
	cmd.Flags().StringVar(&changes.LastName, "last-name", "", "New last name")
	cmd.Flags().StringVar(&changes.Email, "email", "", "New email address")
	cmd.Flags().StringVar(&changes.Language, "language", "", "Interface language (en, vi, ja, fr)")

	return cmd
}

func runSettings(cmd *cobra.Command, a *app.App, changes forms.SettingsForm) error {
	user, err := a.Open(guard.Settings)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	current := forms.SettingsForm{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Language:  a.Catalog.CurrentLanguage().Code,
	}
	form := forms.SettingsForm{
		FirstName: firstNonEmpty(changes.FirstName, current.FirstName),
		LastName:  firstNonEmpty(changes.LastName, current.LastName),
		Email:     firstNonEmpty(changes.Email, current.Email),
		Language:  firstNonEmpty(changes.Language, current.Language),
	}

	if form == current {
		printSettings(cmd, a, current)
		return nil
	}

	if err := a.Forms.Validate(form); err != nil {
		return err
	}

	if form.FirstName != current.FirstName || form.LastName != current.LastName || form.Email != current.Email {
		fmt.Fprintln(out, a.T("settings.saving"))
		updated, err := a.API.UpdateProfile(cmd.Context(), client.UpdateProfileRequest{
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
		})
		if err != nil {
			return err
		}
		if err := a.Gateway.SyncUser(*updated); err != nil {
			return err
		}
	}

	if form.Language != current.Language {
		a.Catalog.ChangeLanguage(form.Language)
	}

	fmt.Fprintln(out, a.T("settings.saved"))
	return nil
}

func printSettings(cmd *cobra.Command, a *app.App, s forms.SettingsForm) {
	out := cmd.OutOrStdout()
	heading(out, a.T("settings.title"))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", a.T("settings.first-name"), s.FirstName)
	fmt.Fprintf(w, "%s\t%s\n", a.T("settings.last-name"), s.LastName)
	fmt.Fprintf(w, "%s\t%s\n", a.T("settings.email"), s.Email)
	lang := a.Catalog.CurrentLanguage()
	fmt.Fprintf(w, "%s\t%s %s\n", a.T("settings.language"), lang.Flag, lang.Name)
	w.Flush()
}
