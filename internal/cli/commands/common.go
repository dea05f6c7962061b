package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/authdeck/authdeck/internal/cli/app"
)

var errNonInteractive = errors.New("password is required in non-interactive mode (use --password flag or AUTHDECK_PASSWORD env var)")

// readPassword prompts on the terminal without echo. Tests replace it.
var readPassword = func(prompt string, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNonInteractive
	}

	fmt.Fprint(out, prompt)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// withApp loads the app, runs fn and closes the app
func withApp(load app.Loader, fn func(a *app.App) error) error {
	a, err := load()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close credential store")
		}
	}()
	return fn(a)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// heading prints a title with an underline of matching width
func heading(out io.Writer, title string) {
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("─", len([]rune(title))))
}
