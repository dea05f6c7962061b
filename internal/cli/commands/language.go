package commands

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/i18n"
)

// NewLanguageCmd creates the language command. It needs no session.
func NewLanguageCmd(load app.Loader) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "language [code]",
		Short: "List, set or pick the interface language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				switch {
				case len(args) == 1:
					return setLanguage(cmd, a, args[0])
				case interactive:
					code, err := promptLanguage(a.Catalog)
					if err != nil {
						return err
					}
					return setLanguage(cmd, a, code)
				default:
					listLanguages(cmd, a.Catalog)
					return nil
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&interactive, "select", "s", false, "Pick the language interactively")

	return cmd
}

func setLanguage(cmd *cobra.Command, a *app.App, code string) error {
	if !a.Catalog.ChangeLanguage(code) {
		return fmt.Errorf("unsupported language %q (expected one of %v)", code, i18n.SupportedCodes())
	}
	lang := a.Catalog.CurrentLanguage()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", a.T("settings.language"), lang.Flag, lang.Name)
	return nil
}

func listLanguages(cmd *cobra.Command, catalog *i18n.Catalog) {
	out := cmd.OutOrStdout()
	for _, lang := range catalog.Languages() {
		marker := " "
		if catalog.IsCurrentLanguage(lang.Code) {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s  %s %s\n", marker, lang.Code, lang.Flag, lang.Name)
	}
}

// promptLanguage shows an interactive prompt for the user to select a language
func promptLanguage(catalog *i18n.Catalog) (string, error) {
	languages := catalog.Languages()

	cursor := 0
	for i, lang := range languages {
		if catalog.IsCurrentLanguage(lang.Code) {
			cursor = i
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Flag }} {{ .Name | cyan }}",
		Inactive: "  {{ .Flag }} {{ .Name }}",
		Selected: "{{ .Flag }} {{ .Name | green }}",
	}

	prompt := promptui.Select{
		Label:     catalog.T("settings.language"),
		Items:     languages,
		Templates: templates,
		Size:      len(languages),
		CursorPos: cursor,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("language selection cancelled: %w", err)
	}

	return languages[index].Code, nil
}
