package main

import (
	"fmt"
	"os"

	"github.com/spiffcs/ghreport/cmd"
)

// Set via ldflags at release time.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
