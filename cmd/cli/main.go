package main

import (
	"errors"
	"os"

	"github.com/authdeck/authdeck/internal/cli"
	"github.com/authdeck/authdeck/internal/cli/app"
)

var version = "dev" // Will be set during build with -ldflags

// exitNotSignedIn lets scripts tell a missing session from other failures
const exitNotSignedIn = 2

func main() {
	err := cli.Execute(version)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrNotSignedIn):
		os.Exit(exitNotSignedIn)
	default:
		os.Exit(1)
	}
}
