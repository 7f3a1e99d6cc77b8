// Package main is the valentine command line client.
package main

import (
	"cmp"
	"fmt"
	"os"

	"github.com/atinyakov/valentine/internal/cli"
)

var (
	version   string
	buildDate string
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.Version = fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

